package directory

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarc-format/zarc/integrity"
)

func TestElementFrameRoundTrip(t *testing.T) {
	t.Parallel()

	edition := Edition{
		Number:     1,
		WrittenAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DigestType: integrity.DigestTypeBlake3,
	}

	elem, err := Marshal(ElementKindEdition, edition)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = elem.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadElementFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, ElementKindEdition, got.Kind)

	var decoded Edition
	require.NoError(t, got.Unmarshal(&decoded))
	assert.Equal(t, edition.Number, decoded.Number)
	assert.True(t, edition.WrittenAt.Equal(decoded.WrittenAt))
	assert.Equal(t, edition.DigestType, decoded.DigestType)
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	name, err := ParsePathname("a/b/c.txt")
	require.NoError(t, err)

	mode := uint32(0o644)
	f := File{
		Edition: 1,
		Name:    name,
		Digest:  integrity.Digest{1, 2, 3, 4},
		Mode:    &mode,
		User:    PosixOwner{Name: "alice"},
		Attributes: map[string]AttributeValue{
			"linux.immutable": BoolAttribute(true),
		},
	}

	elem, err := Marshal(ElementKindFile, f)
	require.NoError(t, err)

	var decoded File
	require.NoError(t, elem.Unmarshal(&decoded))
	assert.Equal(t, f.Name, decoded.Name)
	assert.Equal(t, f.Digest, decoded.Digest)
	assert.Equal(t, *f.Mode, *decoded.Mode)
	assert.Equal(t, f.User.Name, decoded.User.Name)
	assert.True(t, decoded.Attributes["linux.immutable"].IsBool)
	assert.True(t, decoded.Attributes["linux.immutable"].Bool)
}

func TestUnknownElementKindIsSkippable(t *testing.T) {
	t.Parallel()

	elem := &ElementFrame{Kind: ElementKind(200), Payload: []byte{0xA1, 0x00, 0x01}}
	var buf bytes.Buffer
	_, err := elem.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadElementFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, ElementKind(200), got.Kind)
	assert.Equal(t, elem.Payload, got.Payload)
}

func TestMarshalRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	big := make([]string, 0, 40000)
	for i := 0; i < 40000; i++ {
		big = append(big, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
	}
	_, err := Marshal(ElementKindFile, big)
	require.Error(t, err)
}

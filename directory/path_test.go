package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCborStringRoundTripText(t *testing.T) {
	t.Parallel()

	s := CborStringFromGoString("héllo.txt")
	assert.True(t, s.IsText)

	b, err := s.MarshalCBOR()
	require.NoError(t, err)

	var got CborString
	require.NoError(t, got.UnmarshalCBOR(b))
	assert.True(t, got.IsText)
	assert.Equal(t, "héllo.txt", got.String())
}

func TestCborStringRoundTripBinary(t *testing.T) {
	t.Parallel()

	raw := []byte{0xFF, 0xFE, 'a', 0x80}
	s := CborStringFromBytes(raw)
	assert.False(t, s.IsText)

	b, err := s.MarshalCBOR()
	require.NoError(t, err)

	var got CborString
	require.NoError(t, got.UnmarshalCBOR(b))
	assert.False(t, got.IsText)
	assert.Equal(t, raw, got.Bytes())
}

func TestPathnameWithNonUTF8Component(t *testing.T) {
	t.Parallel()

	name := Pathname{
		CborStringFromGoString("normal"),
		CborStringFromBytes([]byte{0xFF, 0xFE}),
	}

	f := File{Name: name}
	elem, err := Marshal(ElementKindFile, f)
	require.NoError(t, err)

	var decoded File
	require.NoError(t, elem.Unmarshal(&decoded))
	require.Len(t, decoded.Name, 2)
	assert.True(t, decoded.Name[0].IsText)
	assert.False(t, decoded.Name[1].IsText)
	assert.Equal(t, []byte{0xFF, 0xFE}, decoded.Name[1].Bytes())
}

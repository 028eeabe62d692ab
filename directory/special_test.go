package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialFileKindPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, SpecialDirectory.IsDir())
	assert.False(t, SpecialSymlink.IsDir())

	for _, k := range []SpecialFileKind{
		SpecialSymlink, SpecialInternalSymlink,
		SpecialExternalAbsoluteSymlink, SpecialExternalRelativeSymlink,
	} {
		assert.True(t, k.IsSymlink(), k.String())
		assert.True(t, k.IsLink(), k.String())
		assert.False(t, k.IsHardlink(), k.String())
	}

	for _, k := range []SpecialFileKind{
		SpecialHardlink, SpecialInternalHardlink, SpecialExternalHardlink,
	} {
		assert.True(t, k.IsHardlink(), k.String())
		assert.True(t, k.IsLink(), k.String())
		assert.False(t, k.IsSymlink(), k.String())
	}

	assert.Equal(t, "unknown(200)", SpecialFileKind(200).String())
}

func TestLinkTargetRoundTripFullPath(t *testing.T) {
	t.Parallel()

	lt := LinkTarget{FullPath: "/etc/hosts"}
	b, err := lt.MarshalCBOR()
	require.NoError(t, err)

	var got LinkTarget
	require.NoError(t, got.UnmarshalCBOR(b))
	assert.Equal(t, lt.FullPath, got.FullPath)
	assert.Empty(t, got.Components)
}

func TestLinkTargetRoundTripComponents(t *testing.T) {
	t.Parallel()

	lt := LinkTarget{Components: []string{"..", "shared", "lib.so"}}
	b, err := lt.MarshalCBOR()
	require.NoError(t, err)

	var got LinkTarget
	require.NoError(t, got.UnmarshalCBOR(b))
	assert.Equal(t, lt.Components, got.Components)
	assert.Empty(t, got.FullPath)
}

func TestSpecialFileRoundTripThroughElement(t *testing.T) {
	t.Parallel()

	kind := SpecialExternalRelativeSymlink
	sf := SpecialFile{
		Kind:       &kind,
		LinkTarget: &LinkTarget{FullPath: "../target"},
	}

	name, err := ParsePathname("link")
	require.NoError(t, err)
	f := File{Name: name, Special: &sf}

	elem, err := Marshal(ElementKindFile, f)
	require.NoError(t, err)

	var decoded File
	require.NoError(t, elem.Unmarshal(&decoded))

	require.NotNil(t, decoded.Special)
	require.NotNil(t, decoded.Special.Kind)
	assert.Equal(t, SpecialExternalRelativeSymlink, *decoded.Special.Kind)
	require.NotNil(t, decoded.Special.LinkTarget)
	assert.Equal(t, "../target", decoded.Special.LinkTarget.FullPath)
}

func TestSpecialFileNilWhenNotSpecial(t *testing.T) {
	t.Parallel()

	name, err := ParsePathname("regular.txt")
	require.NoError(t, err)
	f := File{Name: name}

	elem, err := Marshal(ElementKindFile, f)
	require.NoError(t, err)

	var decoded File
	require.NoError(t, elem.Unmarshal(&decoded))
	assert.Nil(t, decoded.Special)
}

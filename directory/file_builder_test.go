package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarc-format/zarc/integrity"
)

func TestFileBuilderChaining(t *testing.T) {
	t.Parallel()

	name, err := ParsePathname("a/b.txt")
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	digest := integrity.Digest{1, 2, 3}

	f := NewFileBuilder(name).
		Digest(digest).
		Mode(0o640).
		UserName("alice").
		UserID(1000).
		GroupName("staff").
		GroupID(20).
		TimeModified(now).
		UserMetadata("source", "test").
		Attribute("immutable", BoolAttribute(true)).
		ExtendedAttribute("user.comment", []byte("hello")).
		Build()

	assert.Equal(t, name, f.Name)
	assert.Equal(t, digest, f.Digest)
	require.NotNil(t, f.Mode)
	assert.Equal(t, uint32(0o640), *f.Mode)
	assert.Equal(t, "alice", f.User.Name)
	require.NotNil(t, f.User.ID)
	assert.Equal(t, uint32(1000), *f.User.ID)
	assert.Equal(t, "staff", f.Group.Name)
	require.NotNil(t, f.Group.ID)
	assert.Equal(t, uint32(20), *f.Group.ID)
	require.NotNil(t, f.Times.Modified)
	assert.True(t, now.Equal(*f.Times.Modified))
	assert.Equal(t, "test", f.UserMetadata["source"])
	assert.True(t, f.Attributes["linux.immutable"].Bool)
	assert.Equal(t, []byte("hello"), f.ExtendedAttributes["user.comment"])
}

func TestFileBuilderDirectoryClearsDigest(t *testing.T) {
	t.Parallel()

	name, err := ParsePathname("dir")
	require.NoError(t, err)

	f := NewFileBuilder(name).
		Digest(integrity.Digest{1}).
		Directory().
		Build()

	assert.Nil(t, f.Digest)
	require.NotNil(t, f.Special)
	require.NotNil(t, f.Special.Kind)
	assert.Equal(t, SpecialDirectory, *f.Special.Kind)
}

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "linux.immutable", AttributeKey(PlatformLinux, "immutable"))
	assert.Equal(t, "bsd.immutable", AttributeKey(PlatformBSD, "immutable"))
	assert.Equal(t, "win32.read-only", AttributeKey(PlatformWin32, "read-only"))
}

func TestApplyCommonAttributeAliasesAnyPlatform(t *testing.T) {
	t.Parallel()

	// The common alias is an OR across whichever platform happened to
	// collect the flag, not a single hardcoded namespace: a bsd-only
	// immutable flag must still produce the unprefixed alias.
	attrs := map[string]AttributeValue{
		AttributeKey(PlatformBSD, "immutable"): BoolAttribute(true),
	}
	ApplyCommonAttributeAliases(attrs)
	assert.True(t, attrs["immutable"].Bool)
	_, hasLinux := attrs[AttributeKey(PlatformLinux, "immutable")]
	assert.False(t, hasLinux)
}

func TestApplyCommonAttributeAliasesNoMatch(t *testing.T) {
	t.Parallel()

	attrs := map[string]AttributeValue{
		AttributeKey(PlatformLinux, "compressed"): BoolAttribute(false),
	}
	ApplyCommonAttributeAliases(attrs)
	_, ok := attrs["compressed"]
	assert.False(t, ok)
}

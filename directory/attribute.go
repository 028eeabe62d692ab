package directory

import "strings"

// Platform namespaces used to prefix a platform-specific attribute name.
const (
	PlatformLinux = "linux"
	PlatformBSD   = "bsd"
	PlatformWin32 = "win32"
)

// AttributeKey returns the namespaced attribute key for name on the given
// platform, e.g. AttributeKey(PlatformLinux, "immutable") ->
// "linux.immutable". This is how each platform's attribute collector
// names its own flags before any common, unprefixed alias is considered.
func AttributeKey(platform, name string) string {
	return platform + "." + name
}

// Well-known unprefixed attribute aliases, used by SetAttribute/
// FileBuilder.Attribute as a convenience default namespace for a single
// caller-supplied value. This is distinct from, and narrower than, the
// cross-platform union semantics in ApplyCommonAttributeAliases: it
// always expands to one specific namespace and doesn't consult what
// other platforms' flags are already present.
var attributeAliases = map[string]string{
	"append-only": AttributeKey(PlatformLinux, "append-only"),
	"compressed":  AttributeKey(PlatformLinux, "compressed"),
	"immutable":   AttributeKey(PlatformLinux, "immutable"),
	"read-only":   AttributeKey(PlatformWin32, "read-only"),
}

// NormalizeAttributeName expands a well-known unprefixed alias (e.g.
// "immutable") to one default namespaced form (e.g. "linux.immutable").
// Names that are already namespaced, or aren't recognized aliases, are
// returned unchanged. See ApplyCommonAttributeAliases for the full
// cross-platform union semantics a filesystem attribute collector needs.
func NormalizeAttributeName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if full, ok := attributeAliases[name]; ok {
		return full
	}
	return name
}

// commonAttributeAliases maps each unprefixed common alias to every
// platform-specific key that should set it. Grounded in the ground
// truth's file_attributes(): "if these flags are present in any of the
// platforms that support them, they will also be present as unprefixed
// keys" — an OR across platforms, not a single hardcoded namespace.
var commonAttributeAliases = map[string][]string{
	"append-only": {AttributeKey(PlatformLinux, "append-only"), AttributeKey(PlatformBSD, "append-only")},
	"immutable":   {AttributeKey(PlatformLinux, "immutable"), AttributeKey(PlatformBSD, "immutable")},
	"compressed":  {AttributeKey(PlatformLinux, "compressed"), AttributeKey(PlatformWin32, "compressed")},
}

// ApplyCommonAttributeAliases scans attrs for platform-specific flags
// that have a common unprefixed alias and sets that alias to true
// whenever any of its platform-specific variants is true, regardless of
// which platform collected them. Safe to call with attrs from any
// single platform; aliases with no matching key are left untouched.
func ApplyCommonAttributeAliases(attrs map[string]AttributeValue) {
	for alias, keys := range commonAttributeAliases {
		for _, key := range keys {
			if v, ok := attrs[key]; ok && v.IsBool && v.Bool {
				attrs[alias] = BoolAttribute(true)
				break
			}
		}
	}
}

// AttributeValue is the value half of a file attribute: either a boolean
// flag (present/absent, e.g. "linux.immutable") or a string (e.g.
// "win32.reparse-tag"). Exactly one of the two is meaningful, selected by
// IsBool.
type AttributeValue struct {
	IsBool bool
	Bool   bool
	Text   string
}

// BoolAttribute constructs a boolean-valued attribute.
func BoolAttribute(v bool) AttributeValue { return AttributeValue{IsBool: true, Bool: v} }

// TextAttribute constructs a string-valued attribute.
func TextAttribute(v string) AttributeValue { return AttributeValue{Text: v} }

func (v AttributeValue) MarshalCBOR() ([]byte, error) {
	if v.IsBool {
		return cborEncMode.Marshal(v.Bool)
	}
	return cborEncMode.Marshal(v.Text)
}

func (v *AttributeValue) UnmarshalCBOR(data []byte) error {
	var b bool
	if err := cborDecMode.Unmarshal(data, &b); err == nil {
		*v = AttributeValue{IsBool: true, Bool: b}
		return nil
	}
	var s string
	if err := cborDecMode.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = AttributeValue{Text: s}
	return nil
}

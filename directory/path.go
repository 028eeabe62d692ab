package directory

import (
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// CborString is a text-or-bytes union: a UTF-8 text string on the wire
// when the value is valid UTF-8, or a byte string when it isn't. This
// lets a path component (or other archive string) round-trip losslessly
// even when it comes from a filesystem that allows arbitrary,
// non-UTF-8 byte sequences in names.
type CborString struct {
	Text   string
	Binary []byte
	IsText bool
}

// CborStringFromGoString builds a CborString from a Go string, choosing
// the text or binary form depending on whether the string holds valid
// UTF-8. Go strings can carry arbitrary bytes (e.g. a path component
// recovered from a non-UTF-8 OS filename), so this is not a no-op.
func CborStringFromGoString(s string) CborString {
	if utf8.ValidString(s) {
		return CborString{Text: s, IsText: true}
	}
	return CborString{Binary: []byte(s)}
}

// CborStringFromBytes builds a CborString from raw bytes, choosing text
// form when they are valid UTF-8.
func CborStringFromBytes(b []byte) CborString {
	if utf8.Valid(b) {
		return CborString{Text: string(b), IsText: true}
	}
	return CborString{Binary: b}
}

// String renders the value for display, lossily if it's binary.
func (s CborString) String() string {
	if s.IsText {
		return s.Text
	}
	return string(s.Binary)
}

// Bytes returns the value's raw bytes, whichever form it's in.
func (s CborString) Bytes() []byte {
	if s.IsText {
		return []byte(s.Text)
	}
	return s.Binary
}

func (s CborString) MarshalCBOR() ([]byte, error) {
	if s.IsText {
		return cborEncMode.Marshal(s.Text)
	}
	return cborEncMode.Marshal(s.Binary)
}

func (s *CborString) UnmarshalCBOR(data []byte) error {
	var text string
	if err := cborDecMode.Unmarshal(data, &text); err == nil {
		*s = CborString{Text: text, IsText: true}
		return nil
	}
	var raw cbor.RawMessage = data
	var b []byte
	if err := cborDecMode.Unmarshal(raw, &b); err != nil {
		return err
	}
	*s = CborString{Binary: b}
	return nil
}

// Pathname is a file's archive path, stored as an ordered list of
// CborString components rather than a single delimited string, so that
// archives remain portable across platforms with different path
// separators, reserved characters, and non-UTF-8 filenames.
type Pathname []CborString

// String renders the path using "/" as a separator, for display and for
// indexing FilesByName. Binary components render lossily.
func (p Pathname) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, "/")
}

// ParsePathname splits a "/"-delimited path into components, silently
// dropping components that wouldn't make sense stored in an archive:
// empty components (double slashes), ".", and "..". This mirrors how
// such components are filtered at capture time rather than rejected,
// so a caller-supplied path never needs to be rewritten before parsing.
// Leading/trailing slashes are ignored. Non-UTF-8 components are kept,
// stored as binary.
func ParsePathname(s string) (Pathname, error) {
	raw := strings.Split(strings.Trim(s, "/"), "/")
	out := make(Pathname, 0, len(raw))
	for _, c := range raw {
		switch c {
		case "", ".", "..":
			continue
		}
		out = append(out, CborStringFromGoString(c))
	}
	return out, nil
}

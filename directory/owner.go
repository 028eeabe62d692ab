package directory

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborMajorType returns the CBOR major type (top 3 bits of the initial
// byte) of a raw-encoded value, used to dispatch PosixOwner's
// position-independent array elements by type rather than by index.
func cborMajorType(raw cbor.RawMessage) byte {
	if len(raw) == 0 {
		return 0xFF
	}
	return raw[0] >> 5
}

const (
	cborMajorUnsigned = 0
	cborMajorNegative = 1
	cborMajorBytes    = 2
	cborMajorText     = 3
)

// PosixOwner is a user or group reference: a numeric id, an optional name,
// or both. On the wire it is a CBOR array of 0 to 2 elements — [] for
// "unknown", [id], [name], [id, name], matching how the original archiver wrote it
// so that an archive can carry a human-readable owner even when the
// numeric id wouldn't mean anything on a different machine.
type PosixOwner struct {
	ID   *uint32
	Name string
}

// IsEmpty reports whether the owner carries no information at all.
func (o PosixOwner) IsEmpty() bool {
	return o.ID == nil && o.Name == ""
}

// MarshalCBOR encodes the owner as an array sized by which fields are
// present, with no placeholder for an absent id: [] for "unknown",
// [id] for id-only, [name] for name-only, [id, name] for both.
func (o PosixOwner) MarshalCBOR() ([]byte, error) {
	elems := make([]interface{}, 0, 2)
	if o.ID != nil {
		elems = append(elems, *o.ID)
	}
	if o.Name != "" {
		elems = append(elems, o.Name)
	}
	return cborEncMode.Marshal(elems)
}

// UnmarshalCBOR decodes a 0-2 element array whose elements are
// identified by CBOR type rather than position, since a name-only
// owner encodes as a single-element array holding just the text/byte
// string (no placeholder for the absent id), matching the ground
// truth's own decode-by-type dispatch.
func (o *PosixOwner) UnmarshalCBOR(data []byte) error {
	var raw []cbor.RawMessage
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = PosixOwner{}
	for _, elem := range raw {
		switch cborMajorType(elem) {
		case cborMajorUnsigned, cborMajorNegative:
			var id uint32
			if err := cborDecMode.Unmarshal(elem, &id); err != nil {
				return fmt.Errorf("directory: decode posix owner id: %w", err)
			}
			o.ID = &id
		case cborMajorText:
			var name string
			if err := cborDecMode.Unmarshal(elem, &name); err != nil {
				return fmt.Errorf("directory: decode posix owner name: %w", err)
			}
			o.Name = name
		case cborMajorBytes:
			var name []byte
			if err := cborDecMode.Unmarshal(elem, &name); err != nil {
				return fmt.Errorf("directory: decode posix owner name: %w", err)
			}
			o.Name = string(name)
		default:
			return fmt.Errorf("directory: unexpected posix owner array element type %d", cborMajorType(elem))
		}
	}
	return nil
}

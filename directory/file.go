package directory

import (
	"github.com/zarc-format/zarc/integrity"
)

// File is one entry in the directory: a path, the ownership/mode/timestamp
// metadata carried over from the source filesystem, and a reference to the
// content frame holding its data (absent for directories and links, see
// Special).
type File struct {
	Edition uint64           `cbor:"0,keyasint"`
	Name    Pathname         `cbor:"1,keyasint"`
	Digest  integrity.Digest `cbor:"2,keyasint,omitempty"`
	Mode    *uint32          `cbor:"3,keyasint,omitempty"`
	User    PosixOwner       `cbor:"4,keyasint,omitempty"`
	Group   PosixOwner       `cbor:"5,keyasint,omitempty"`
	Times   Timestamps       `cbor:"6,keyasint,omitempty"`
	Special *SpecialFile     `cbor:"7,keyasint,omitempty"`

	UserMetadata       map[string]string          `cbor:"10,keyasint,omitempty"`
	Attributes         map[string]AttributeValue  `cbor:"11,keyasint,omitempty"`
	ExtendedAttributes map[string][]byte          `cbor:"12,keyasint,omitempty"`
}

// IsRegular reports whether this entry is a plain file with content,
// rather than a directory or link.
func (f *File) IsRegular() bool {
	return f.Special == nil
}

// SetAttribute records a file attribute under its namespaced name,
// expanding well-known aliases (see NormalizeAttributeName).
func (f *File) SetAttribute(name string, value AttributeValue) {
	if f.Attributes == nil {
		f.Attributes = make(map[string]AttributeValue)
	}
	f.Attributes[NormalizeAttributeName(name)] = value
}

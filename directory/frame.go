package directory

import "github.com/zarc-format/zarc/integrity"

// Frame is a directory record for one content frame backing the archive:
// where it sits in the file (a byte offset from the start of the archive
// to its Zstandard frame magic), its digest, and its compressed/
// uncompressed lengths. Files reference a Frame by Digest, so two files
// with identical content share one Frame and are written to disk once.
type Frame struct {
	Edition      uint64           `cbor:"0,keyasint"`
	Offset       uint64           `cbor:"1,keyasint"`
	Digest       integrity.Digest `cbor:"2,keyasint"`
	Length       uint64           `cbor:"3,keyasint"`
	Uncompressed uint64           `cbor:"4,keyasint"`
}

// Package trailer implements the Zarc trailer: a fixed-layout footer,
// written as a skippable Zstd frame with nibble 0xF, that lets a reader
// bootstrap an archive by reading only its tail.
package trailer

import (
	"encoding/binary"
	"fmt"

	"github.com/zarc-format/zarc/framing"
	"github.com/zarc-format/zarc/integrity"
)

// Nibble is the skippable-frame nibble that identifies a trailer frame.
const Nibble uint8 = 0xF

// ZarcMagic is the 3-byte magic that ends every trailer.
var ZarcMagic = [3]byte{0x65, 0xAA, 0xDC}

// ZarcVersion is the format version this package reads and writes.
const ZarcVersion uint8 = 1

// EpilogueLength is the fixed size, independent of digest algorithm, of
// the trailer's tail: digest_type, directory_offset,
// directory_uncompressed_size, check byte, version, and magic.
const EpilogueLength = 22

// SkippableFrameOverhead is the 8-byte magic+length header every skippable
// frame carries.
const SkippableFrameOverhead = 8

// Trailer is a fully parsed trailer.
type Trailer struct {
	DigestType                DigestType
	Digest                    integrity.Digest
	DirectoryOffset           int64
	DirectoryUncompressedSize uint64
	Version                   uint8
}

// DigestType is a local alias kept distinct from integrity.DigestType so
// the trailer package's wire-level field reads naturally; the underlying
// values are identical and interchangeable.
type DigestType = integrity.DigestType

// Len returns the total byte length of the trailer's content (not
// including the skippable frame wrapper around it): reserved(1) +
// digest_type(1) + digest(D) + epilogue(22).
func Len(digestType DigestType) int {
	return 2 + digestType.Len() + EpilogueLength
}

// Bytes serializes the trailer to its wire form (the skippable frame's
// payload, not including the frame's own magic+length header).
func (t *Trailer) Bytes() ([]byte, error) {
	d := t.DigestType.Len()
	if d == 0 {
		return nil, fmt.Errorf("trailer: unknown digest type %d", t.DigestType)
	}
	if len(t.Digest) != d {
		return nil, fmt.Errorf("trailer: digest length %d does not match digest type %s (want %d)", len(t.Digest), t.DigestType, d)
	}

	total := Len(t.DigestType)
	out := make([]byte, total)

	out[0] = 0 // reserved
	out[1] = byte(t.DigestType)
	copy(out[2:2+d], t.Digest)
	out[2+d] = byte(t.DigestType)
	binary.LittleEndian.PutUint64(out[3+d:11+d], uint64(t.DirectoryOffset))
	binary.LittleEndian.PutUint64(out[11+d:19+d], t.DirectoryUncompressedSize)

	var check byte
	for _, b := range out[:19+d] {
		check ^= b
	}
	// version and magic also participate in the check byte.
	version := t.Version
	if version == 0 {
		version = ZarcVersion
	}
	check ^= version
	for _, b := range ZarcMagic {
		check ^= b
	}

	out[19+d] = check
	out[20+d] = version
	copy(out[21+d:24+d], ZarcMagic[:])

	return out, nil
}

// Parse decodes a full trailer payload (as produced by Bytes) of the
// given digest type.
func Parse(buf []byte, digestType DigestType) (*Trailer, error) {
	d := digestType.Len()
	want := Len(digestType)
	if len(buf) != want {
		return nil, fmt.Errorf("trailer: expected %d bytes, got %d", want, len(buf))
	}

	dup := DigestType(buf[2+d])
	if dup != digestType {
		return nil, &framing.ParseError{Message: fmt.Sprintf("trailer digest_type mismatch: %d vs %d", digestType, dup)}
	}

	var check byte
	for i, b := range buf {
		if i == 19+d {
			continue
		}
		check ^= b
	}
	if check != buf[19+d] {
		return nil, &framing.ParseError{Message: "trailer check byte mismatch"}
	}

	magic := buf[21+d : 24+d]
	if magic[0] != ZarcMagic[0] || magic[1] != ZarcMagic[1] || magic[2] != ZarcMagic[2] {
		return nil, &framing.ParseError{Message: "trailer has wrong zarc magic"}
	}

	digest := make(integrity.Digest, d)
	copy(digest, buf[2:2+d])

	t := &Trailer{
		DigestType:                digestType,
		Digest:                    digest,
		DirectoryOffset:           int64(binary.LittleEndian.Uint64(buf[3+d : 11+d])),
		DirectoryUncompressedSize: binary.LittleEndian.Uint64(buf[11+d : 19+d]),
		Version:                   buf[20+d],
	}
	return t, nil
}

// ParseEpilogue reads just the digest type out of the last EpilogueLength
// bytes of a trailer, without yet knowing the digest length — this is
// the first step of the reading protocol, used to discover how many more
// preceding bytes to read.
func ParseEpilogue(epilogue []byte) (DigestType, error) {
	if len(epilogue) != EpilogueLength {
		return 0, fmt.Errorf("trailer: epilogue must be %d bytes, got %d", EpilogueLength, len(epilogue))
	}
	return DigestType(epilogue[0]), nil
}

// MakeOffsetPositive converts a trailer's directory_offset, which is
// negative on disk (bytes-from-end), into a positive byte offset from the
// start of the file, given the total file length.
func MakeOffsetPositive(offset int64, fileLength int64) int64 {
	if offset < 0 {
		return fileLength + offset
	}
	return offset
}

// ComputeDirectoryOffset computes the (already-negative) directory_offset
// to write into the trailer, given the byte length of the compressed
// directory frame and the trailer's own content length; the trailer's
// skippable frame header (SkippableFrameOverhead) is added here.
func ComputeDirectoryOffset(directoryFrameBytes int, trailerLen int) int64 {
	return -(int64(directoryFrameBytes) + SkippableFrameOverhead + trailerLen)
}

// Package framing implements the byte-level structures of the Zstandard
// container format that Zarc embeds its metadata inside: skippable frames,
// Zstandard frame headers, and block headers. It never delegates to a zstd
// codec for these structural concerns, since no codec API can emit a
// standalone skippable frame or a fully uncompressed Zstandard frame.
//
// https://datatracker.ietf.org/doc/html/rfc8878
package framing

import (
	"encoding/binary"
	"fmt"
	"io"
)

// skippableFrameMagicBase is the fixed high 28 bits of a skippable frame's
// 4-byte little-endian magic; the low nibble (bits 0-3 of the first byte)
// identifies the frame's purpose and is free for the embedder to choose.
const skippableFrameMagicBase = 0x184D2A50

// ZstdFrameMagic is the 4-byte magic that begins every Zstandard data frame.
var ZstdFrameMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// SkippableFrame is a Zstd skippable frame: a magic with a free nibble, a
// little-endian u32 payload length, and the payload itself. A stock zstd
// decompressor skips these verbatim; Zarc uses them to carry its header and
// trailer.
type SkippableFrame struct {
	Nibble uint8
	Data   []byte
}

// NewSkippableFrame constructs a skippable frame. Panics if nibble is >15,
// since that can't be represented.
func NewSkippableFrame(nibble uint8, data []byte) *SkippableFrame {
	if nibble > 0xF {
		panic(fmt.Sprintf("skippable frame nibble must be 0..=15, got %d", nibble))
	}
	return &SkippableFrame{Nibble: nibble, Data: data}
}

// Bytes serializes the frame to its wire form.
func (f *SkippableFrame) Bytes() []byte {
	out := make([]byte, 8+len(f.Data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(skippableFrameMagicBase)+uint32(f.Nibble))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(f.Data)))
	copy(out[8:], f.Data)
	return out
}

// WriteTo writes the frame's wire form to w.
func (f *SkippableFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// ReadSkippableFrame reads a skippable frame from r and checks that its
// nibble matches the expected value.
func ReadSkippableFrame(r io.Reader, expectNibble uint8) (*SkippableFrame, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("framing: read skippable frame header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(hdr[0:4])
	nibble := uint8(magic & 0xF)
	if magic&0xFFFFFFF0 != skippableFrameMagicBase {
		return nil, &ParseError{Message: fmt.Sprintf("bad skippable frame magic: 0x%08X", magic)}
	}
	if nibble != expectNibble {
		return nil, &InvalidNibbleError{Expected: expectNibble, Actual: nibble}
	}

	size := binary.LittleEndian.Uint32(hdr[4:8])
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("framing: read skippable frame payload: %w", err)
	}

	return &SkippableFrame{Nibble: nibble, Data: data}, nil
}

// ParseError reports malformed framing or directory structure.
type ParseError struct {
	Message string
	Offset  int64
}

func (e *ParseError) Error() string {
	if e.Offset != 0 {
		return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// InvalidNibbleError reports a skippable frame whose nibble doesn't match
// the role it was read in (header or trailer).
type InvalidNibbleError struct {
	Expected, Actual uint8
}

func (e *InvalidNibbleError) Error() string {
	return fmt.Sprintf("invalid skippable frame nibble: expected 0x%X, got 0x%X", e.Expected, e.Actual)
}

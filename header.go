package zarc

import (
	"fmt"
	"io"

	"github.com/zarc-format/zarc/framing"
)

// headerNibble is the skippable-frame nibble used by the 12-byte file
// header.
const headerNibble uint8 = 0x0

// headerLength is the total on-disk size of the header: 8-byte skippable
// frame envelope + 4-byte payload (magic+version).
const headerLength = 12

// ZarcMagic is the 3-byte magic embedded in both the header and the
// trailer.
var ZarcMagic = [3]byte{0x65, 0xAA, 0xDC}

// ZarcVersion is the format version this package reads and writes.
const ZarcVersion uint8 = 1

// writeHeader writes the 12-byte file header:
// 50 2A 4D 18 04 00 00 00 65 AA DC 01
func writeHeader(w io.Writer) error {
	frame := framing.NewSkippableFrame(headerNibble, append(append([]byte{}, ZarcMagic[:]...), ZarcVersion))
	_, err := frame.WriteTo(w)
	if err != nil {
		return wrapError(ErrIO, err, "write header")
	}
	return nil
}

// readHeader reads and validates the 12-byte file header, returning the
// version byte it carried so the caller can cross-check it against the
// trailer's version.
func readHeader(r io.Reader) (uint8, error) {
	frame, err := framing.ReadSkippableFrame(r, headerNibble)
	if err != nil {
		if ne, ok := err.(*framing.InvalidNibbleError); ok {
			return 0, wrapError(ErrInvalidNibble, ne, "header")
		}
		if pe, ok := err.(*framing.ParseError); ok {
			return 0, wrapError(ErrParse, pe, "header")
		}
		return 0, wrapError(ErrIO, err, "read header")
	}
	if len(frame.Data) != 4 {
		return 0, newError(ErrParse, "header payload must be 4 bytes, got %d", len(frame.Data))
	}
	if frame.Data[0] != ZarcMagic[0] || frame.Data[1] != ZarcMagic[1] || frame.Data[2] != ZarcMagic[2] {
		return 0, newError(ErrParse, "bad zarc magic in header")
	}
	if frame.Data[3] != ZarcVersion {
		return 0, &Error{Kind: ErrUnsupportedVersion, Message: fmt.Sprintf("version %d", frame.Data[3])}
	}
	return frame.Data[3], nil
}

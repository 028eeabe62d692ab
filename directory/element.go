// Package directory implements the CBOR-encoded directory elements that
// describe the content of a Zarc archive: editions, files, and the content
// frames that back their data. Every element is wrapped in a small binary
// envelope (ElementFrame) before being written into the directory's
// Zstandard frame, so that a reader can skip elements it doesn't
// understand without decoding their CBOR payload.
package directory

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ElementKind tags the type of a directory element.
type ElementKind uint8

const (
	ElementKindEdition ElementKind = 1
	ElementKindFile    ElementKind = 2
	ElementKindFrame   ElementKind = 3
)

func (k ElementKind) String() string {
	switch k {
	case ElementKindEdition:
		return "edition"
	case ElementKindFile:
		return "file"
	case ElementKindFrame:
		return "frame"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ElementFrame is the 4-byte envelope every directory element is wrapped
// in: a kind byte, a little-endian u16 payload length, and a reserved byte
// (always zero on write, ignored on read), followed by the CBOR payload
// itself. The length lets a reader skip elements of a kind it doesn't
// recognize, which is how the format stays forward-compatible.
type ElementFrame struct {
	Kind    ElementKind
	Payload []byte
}

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	opts.TimeTag = cbor.EncTagRequired
	m, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// cborDecMode decodes both tag-0 (RFC 3339 text) and tag-1 (epoch numeric)
// timestamps into time.Time, matching what the library's default behavior
// already does; declared explicitly so the decision is visible here rather
// than relying on an unstated default.
var cborDecMode = func() cbor.DecMode {
	m, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// Marshal encodes v as CBOR and wraps it in an ElementFrame of the given
// kind.
func Marshal(kind ElementKind, v interface{}) (*ElementFrame, error) {
	payload, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("directory: marshal %s element: %w", kind, err)
	}
	if len(payload) > 0xFFFF {
		return nil, fmt.Errorf("directory: %s element payload too large: %d bytes", kind, len(payload))
	}
	return &ElementFrame{Kind: kind, Payload: payload}, nil
}

// Bytes serializes the element frame to its wire form.
func (e *ElementFrame) Bytes() []byte {
	out := make([]byte, 4+len(e.Payload))
	out[0] = byte(e.Kind)
	binary.LittleEndian.PutUint16(out[1:3], uint16(len(e.Payload)))
	out[3] = 0
	copy(out[4:], e.Payload)
	return out
}

// WriteTo writes the element frame's wire form to w.
func (e *ElementFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.Bytes())
	return int64(n), err
}

// ReadElementFrame reads one element frame's envelope and payload from r.
// The caller is responsible for decoding Payload according to Kind; unknown
// kinds should simply be discarded, since the envelope already consumed
// exactly Payload's length of the stream.
func ReadElementFrame(r io.Reader) (*ElementFrame, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	kind := ElementKind(hdr[0])
	size := binary.LittleEndian.Uint16(hdr[1:3])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("directory: read %s element payload: %w", kind, err)
	}

	return &ElementFrame{Kind: kind, Payload: payload}, nil
}

// Unmarshal decodes the element's CBOR payload into v.
func (e *ElementFrame) Unmarshal(v interface{}) error {
	if err := cborDecMode.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("directory: unmarshal %s element: %w", e.Kind, err)
	}
	return nil
}

package framing

import (
	"encoding/binary"
	"io"
)

// maxRawBlockSize is the size at which WriteUncompressedFrame splits data
// into Raw blocks; each block carries at most this many bytes.
const maxRawBlockSize = 65535

// WriteUncompressedFrame writes data as a single valid Zstandard frame made
// entirely of Raw blocks, with no window descriptor, no dictionary ID, and
// no content checksum. This lets Zarc store content frames uncompressed
// while remaining a legal Zstandard stream that any stock decompressor can
// read — used when EnableCompression is false or when compressing would not
// help (the encoder does not try to detect that here; callers decide).
//
// The frame always carries an 8-byte Frame_Content_Size field (FCS size 3)
// so that len(data) is recoverable from the header alone.
func WriteUncompressedFrame(w io.Writer, data []byte) (int64, error) {
	var written int64

	if _, err := w.Write(ZstdFrameMagic[:]); err != nil {
		return written, err
	}
	written += int64(len(ZstdFrameMagic))

	desc := FrameDescriptor{
		FCSSize:       3,
		SingleSegment: true,
	}
	if _, err := w.Write([]byte{desc.encode()}); err != nil {
		return written, err
	}
	written++

	var fcs [8]byte
	binary.LittleEndian.PutUint64(fcs[:], uint64(len(data)))
	if _, err := w.Write(fcs[:]); err != nil {
		return written, err
	}
	written += 8

	if len(data) == 0 {
		hdr := NewBlockHeader(BlockRaw, true, 0)
		b := hdr.Bytes()
		n, err := w.Write(b[:])
		written += int64(n)
		return written, err
	}

	for offset := 0; offset < len(data); {
		chunk := data[offset:]
		last := false
		if len(chunk) > maxRawBlockSize {
			chunk = chunk[:maxRawBlockSize]
		} else {
			last = true
		}

		hdr := NewBlockHeader(BlockRaw, last, uint32(len(chunk)))
		hb := hdr.Bytes()
		if _, err := w.Write(hb[:]); err != nil {
			return written, err
		}
		written += 3

		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}

		offset += len(chunk)
	}

	return written, nil
}

// ReadUncompressedFrame reads a Zstandard frame made of Raw/RLE blocks back
// into memory, without invoking a zstd codec. It rejects Compressed blocks,
// since those require the full zstd decompression engine; callers that may
// encounter compressed content frames should fall back to a codec-backed
// reader instead (see the root package's FrameIterator).
func ReadUncompressedFrame(r io.Reader) ([]byte, error) {
	hdr, err := ReadZstdFrameHeader(r)
	if err != nil {
		return nil, err
	}

	expected := hdr.UncompressedSize()
	out := make([]byte, 0, expected)

	for {
		bh, err := ReadBlockHeader(r)
		if err != nil {
			return nil, err
		}

		switch bh.Type {
		case BlockRaw:
			buf := make([]byte, bh.Size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out = append(out, buf...)
		case BlockRLE:
			var b [1]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			for i := uint32(0); i < bh.Size; i++ {
				out = append(out, b[0])
			}
		default:
			return nil, &ParseError{Message: "uncompressed frame reader encountered a compressed block"}
		}

		if bh.Last {
			break
		}
	}

	return out, nil
}

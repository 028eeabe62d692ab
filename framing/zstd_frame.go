package framing

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameDescriptor is the single-byte bitfield that begins a Zstandard
// frame's header and determines the size of every other header field.
//
//	bit 7-6: fcs_size      bit 5: single_segment   bit 4: unused
//	bit 3:   reserved      bit 2: checksum         bit 1-0: did_size
type FrameDescriptor struct {
	FCSSize       uint8
	SingleSegment bool
	Unused        bool
	Reserved      bool
	Checksum      bool
	DIDSize       uint8
}

func decodeFrameDescriptor(b byte) FrameDescriptor {
	return FrameDescriptor{
		FCSSize:       b >> 6,
		SingleSegment: b&(1<<5) != 0,
		Unused:        b&(1<<4) != 0,
		Reserved:      b&(1<<3) != 0,
		Checksum:      b&(1<<2) != 0,
		DIDSize:       b & 0b11,
	}
}

func (d FrameDescriptor) encode() byte {
	var b byte
	b |= d.FCSSize << 6
	if d.SingleSegment {
		b |= 1 << 5
	}
	if d.Unused {
		b |= 1 << 4
	}
	if d.Reserved {
		b |= 1 << 3
	}
	if d.Checksum {
		b |= 1 << 2
	}
	b |= d.DIDSize & 0b11
	return b
}

// DIDLength returns the byte length of the Dictionary_ID field.
func (d FrameDescriptor) DIDLength() int {
	switch d.DIDSize {
	case 0:
		return 0
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	default:
		return 0
	}
}

// FCSLength returns the byte length of the Frame_Content_Size field.
func (d FrameDescriptor) FCSLength() int {
	switch d.FCSSize {
	case 0:
		if d.SingleSegment {
			return 1
		}
		return 0
	case 1:
		return 2
	case 2:
		return 4
	case 3:
		return 8
	default:
		return 0
	}
}

// ZstdFrameHeader is a parsed Zstandard data frame header, up to (but not
// including) the blocks.
type ZstdFrameHeader struct {
	Descriptor       FrameDescriptor
	WindowDescriptor *uint8
	DictionaryID     []byte
	FrameContentSize []byte
}

// UncompressedSize decodes the Frame_Content_Size field, applying the
// 256-byte offset that applies when the field is 2 bytes wide.
func (h ZstdFrameHeader) UncompressedSize() uint64 {
	switch len(h.FrameContentSize) {
	case 0:
		return 0
	case 1:
		return uint64(h.FrameContentSize[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(h.FrameContentSize)) + 256
	case 4:
		return uint64(binary.LittleEndian.Uint32(h.FrameContentSize))
	case 8:
		return binary.LittleEndian.Uint64(h.FrameContentSize)
	default:
		return 0
	}
}

// ReadZstdFrameHeader reads and validates a Zstandard frame header from r,
// leaving the reader positioned at the start of the first block.
func ReadZstdFrameHeader(r io.Reader) (*ZstdFrameHeader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("framing: read zstd frame magic: %w", err)
	}
	if magic != ZstdFrameMagic {
		return nil, &ParseError{Message: fmt.Sprintf("bad zstd frame magic: % 02X", magic)}
	}

	var descByte [1]byte
	if _, err := io.ReadFull(r, descByte[:]); err != nil {
		return nil, fmt.Errorf("framing: read frame descriptor: %w", err)
	}
	desc := decodeFrameDescriptor(descByte[0])

	h := &ZstdFrameHeader{Descriptor: desc}

	if !desc.SingleSegment {
		var wd [1]byte
		if _, err := io.ReadFull(r, wd[:]); err != nil {
			return nil, fmt.Errorf("framing: read window descriptor: %w", err)
		}
		h.WindowDescriptor = &wd[0]
	}

	if n := desc.DIDLength(); n > 0 {
		h.DictionaryID = make([]byte, n)
		if _, err := io.ReadFull(r, h.DictionaryID); err != nil {
			return nil, fmt.Errorf("framing: read dictionary id: %w", err)
		}
	}

	if n := desc.FCSLength(); n > 0 {
		h.FrameContentSize = make([]byte, n)
		if _, err := io.ReadFull(r, h.FrameContentSize); err != nil {
			return nil, fmt.Errorf("framing: read frame content size: %w", err)
		}
	}

	return h, nil
}

// BlockType is the 2-bit block-type field of a block header.
type BlockType uint8

const (
	BlockRaw        BlockType = 0
	BlockRLE        BlockType = 1
	BlockCompressed BlockType = 2
	BlockReserved   BlockType = 3
)

// BlockHeader is a parsed 24-bit Zstandard block header: 1-bit last flag,
// 2-bit type, 21-bit size (bit-packed little-endian across three bytes).
type BlockHeader struct {
	Last bool
	Type BlockType
	Size uint32
}

// NewBlockHeader constructs a header for a block of the given type and
// size. Panics if size doesn't fit in 21 bits.
func NewBlockHeader(blockType BlockType, last bool, size uint32) BlockHeader {
	if size >= 1<<21 {
		panic(fmt.Sprintf("framing: block size %d exceeds 21 bits", size))
	}
	return BlockHeader{Last: last, Type: blockType, Size: size}
}

// Bytes encodes the block header to its 3-byte wire form.
func (h BlockHeader) Bytes() [3]byte {
	// Layout (LSB-first bitstream): bit0=last, bits1-2=type, bits3-23=size.
	v := uint32(0)
	if h.Last {
		v |= 1
	}
	v |= uint32(h.Type&0b11) << 1
	v |= (h.Size & 0x1FFFFF) << 3

	var out [3]byte
	out[0] = byte(v)
	out[1] = byte(v >> 8)
	out[2] = byte(v >> 16)
	return out
}

// ActualSize returns the number of payload bytes that follow this header:
// Size itself for Raw/Compressed blocks, or 1 for an RLE block (whose Size
// field is instead the repeat count, see RLECount).
func (h BlockHeader) ActualSize() (uint32, error) {
	switch h.Type {
	case BlockRaw, BlockCompressed:
		return h.Size, nil
	case BlockRLE:
		return 1, nil
	default:
		return 0, &ParseError{Message: "corrupt zstd: reserved block type"}
	}
}

// RLECount returns the repeat count for an RLE block, and ok=false for any
// other block type.
func (h BlockHeader) RLECount() (count uint32, ok bool) {
	if h.Type != BlockRLE {
		return 0, false
	}
	return h.Size, true
}

// ReadBlockHeader reads a 3-byte block header from r.
func ReadBlockHeader(r io.Reader) (BlockHeader, error) {
	var raw [3]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return BlockHeader{}, fmt.Errorf("framing: read block header: %w", err)
	}
	v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16

	h := BlockHeader{
		Last: v&1 != 0,
		Type: BlockType((v >> 1) & 0b11),
		Size: (v >> 3) & 0x1FFFFF,
	}
	if h.Type == BlockReserved {
		return h, &ParseError{Message: "corrupt zstd: reserved block type"}
	}
	return h, nil
}

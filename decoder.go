package zarc

import (
	"bytes"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/zarc-format/zarc/directory"
	"github.com/zarc-format/zarc/integrity"
	"github.com/zarc-format/zarc/trailer"
)

// decoderFileEntry mirrors fileIndexEntry for the read side's by-name
// index.
type decoderFileEntry struct {
	Name    string
	Indices []int
}

func decoderFileLess(a, b *decoderFileEntry) bool { return a.Name < b.Name }

// decoderState is the Unopened -> Open -> Loaded progression.
type decoderState uint8

const (
	stateUnopened decoderState = iota
	stateOpen
	stateLoaded
)

// Decoder reads a Zarc archive: Open verifies the header and trailer;
// ReadDirectory then loads and verifies the directory, after which
// content frames can be read by digest.
type Decoder struct {
	source ByteSource
	logger *zap.Logger

	state decoderState

	length          int64
	headerVersion   uint8
	trailer         *trailer.Trailer
	directoryOffset int64

	editions map[uint64]directory.Edition
	frames   map[string]directory.Frame
	files    []directory.File
	byName   *btree.BTreeG[*decoderFileEntry]
	byDigest map[string][]int

	// cachedFrame mirrors the teacher's single-slot decompressed-frame
	// cache: repeated reads of the same content frame skip decompression
	// if the caller hasn't moved on. Keyed by an xxhash of the digest
	// rather than the digest itself, since the fast path only needs a
	// cheap inequality check before falling back to decompression.
	cachedKey  uint64
	cachedData []byte
}

// DOption configures a Decoder at Open time.
type DOption func(*decoderOptions) error

type decoderOptions struct {
	logger *zap.Logger
}

func (o *decoderOptions) setDefault() {
	*o = decoderOptions{logger: zap.NewNop()}
}

// WithDLogger sets the logger the decoder reports diagnostics to.
func WithDLogger(l *zap.Logger) DOption {
	return func(o *decoderOptions) error { o.logger = l; return nil }
}

// Open verifies the header and trailer of an archive, moving the decoder
// to the Open state. It does not read the directory; call ReadDirectory
// for that.
func Open(source ByteSource, opts ...DOption) (*Decoder, error) {
	var o decoderOptions
	o.setDefault()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	d := &Decoder{
		source: source,
		logger: o.logger,
		frames: make(map[string]directory.Frame),
	}

	hr, err := source.Open()
	if err != nil {
		return nil, err
	}
	defer hr.Close()

	version, err := readHeader(hr)
	if err != nil {
		return nil, err
	}
	d.headerVersion = version

	tr, length, err := openReader(source)
	if err != nil {
		return nil, err
	}
	d.length = length
	d.trailer = tr
	d.directoryOffset = trailer.MakeOffsetPositive(tr.DirectoryOffset, length)

	if tr.Version != version {
		d.logger.Warn("header/trailer version mismatch",
			zap.Uint8("header", version), zap.Uint8("trailer", tr.Version))
	}

	d.state = stateOpen
	return d, nil
}

// openReader implements the trailer reading protocol: read up to 1KiB
// from the end, parse the epilogue, complete the read if the digest is
// longer than what was already fetched, and verify the check byte. It
// returns the trailer with its directory offset as stored (negative) and
// the file length; Open makes the offset positive.
func openReader(source ByteSource) (*trailer.Trailer, int64, error) {
	r, err := source.Open()
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, wrapError(ErrIO, err, "seek to end")
	}

	const initialRead = 1024
	readLen := int64(initialRead)
	if readLen > length {
		readLen = length
	}
	if _, err := r.Seek(-readLen, io.SeekEnd); err != nil {
		return nil, 0, wrapError(ErrIO, err, "seek to tail")
	}
	tail := make([]byte, readLen)
	if _, err := io.ReadFull(r, tail); err != nil {
		return nil, 0, wrapError(ErrIO, err, "read tail")
	}

	if int64(len(tail)) < trailer.EpilogueLength {
		return nil, 0, newError(ErrParse, "archive too small to contain a trailer")
	}
	epilogue := tail[len(tail)-trailer.EpilogueLength:]
	digestType, err := trailer.ParseEpilogue(epilogue)
	if err != nil {
		return nil, 0, wrapError(ErrParse, err, "parse epilogue")
	}

	full := trailer.Len(digestType)
	var fullBuf []byte
	if int64(full) <= int64(len(tail)) {
		fullBuf = tail[int64(len(tail))-int64(full):]
	} else {
		missing := int64(full) - int64(len(tail))
		if _, err := r.Seek(-(readLen + missing), io.SeekEnd); err != nil {
			return nil, 0, wrapError(ErrIO, err, "seek to full trailer")
		}
		fullBuf = make([]byte, full)
		if _, err := io.ReadFull(r, fullBuf); err != nil {
			return nil, 0, wrapError(ErrIO, err, "read full trailer")
		}
	}

	t, err := trailer.Parse(fullBuf, digestType)
	if err != nil {
		return nil, 0, wrapError(ErrParse, err, "parse trailer")
	}

	return t, length, nil
}

// ReadDirectory reads, decompresses, and verifies the directory frame,
// populating the decoder's in-memory indices. Moves the decoder to the
// Loaded state.
func (d *Decoder) ReadDirectory() error {
	if d.state == stateUnopened {
		return newError(ErrReadOrderViolation, "must Open before ReadDirectory")
	}

	r, err := d.source.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.Seek(d.directoryOffset, io.SeekStart); err != nil {
		return wrapError(ErrIO, err, "seek to directory")
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return wrapError(ErrZstdInit, err, "create zstd reader for directory")
	}
	defer zr.Close()

	hasher := integrity.NewHasher(d.trailer.DigestType)
	uncompressed, err := io.ReadAll(zr)
	if err != nil {
		return wrapError(ErrIO, err, "decompress directory")
	}
	if _, err := hasher.Write(uncompressed); err != nil {
		return wrapError(ErrIO, err, "digest directory")
	}

	if !hasher.Sum().Equal(d.trailer.Digest) {
		return &Error{Kind: ErrDirectoryIntegrity, Message: "directory digest does not match trailer"}
	}

	d.editions = make(map[uint64]directory.Edition)
	d.byName = btree.NewG(8, decoderFileLess)
	d.byDigest = make(map[string][]int)

	buf := bytes.NewReader(uncompressed)
	for buf.Len() > 0 {
		elem, err := directory.ReadElementFrame(buf)
		if err != nil {
			if err == io.EOF {
				break
			}
			return wrapError(ErrParse, err, "read directory element")
		}

		switch elem.Kind {
		case directory.ElementKindEdition:
			var ed directory.Edition
			if err := elem.Unmarshal(&ed); err != nil {
				return err
			}
			d.editions[ed.Number] = ed

		case directory.ElementKindFrame:
			var fr directory.Frame
			if err := elem.Unmarshal(&fr); err != nil {
				return err
			}
			d.frames[string(fr.Digest)] = fr

		case directory.ElementKindFile:
			var f directory.File
			if err := elem.Unmarshal(&f); err != nil {
				return err
			}
			idx := len(d.files)
			d.files = append(d.files, f)

			name := f.Name.String()
			entry, found := d.byName.Get(&decoderFileEntry{Name: name})
			if !found {
				entry = &decoderFileEntry{Name: name}
				d.byName.ReplaceOrInsert(entry)
			}
			entry.Indices = append(entry.Indices, idx)

			if len(f.Digest) > 0 {
				key := string(f.Digest)
				d.byDigest[key] = append(d.byDigest[key], idx)
			}

		default:
			// unknown kind: already consumed by length, nothing to do
		}
	}

	d.state = stateLoaded
	return nil
}

// Editions returns every edition the directory recorded, keyed by number.
func (d *Decoder) Editions() (map[uint64]directory.Edition, error) {
	if d.state != stateLoaded {
		return nil, newError(ErrReadOrderViolation, "must ReadDirectory first")
	}
	return d.editions, nil
}

// LatestEdition returns the highest-numbered edition.
func (d *Decoder) LatestEdition() (directory.Edition, bool) {
	var best directory.Edition
	var found bool
	for _, e := range d.editions {
		if !found || e.Number > best.Number {
			best = e
			found = true
		}
	}
	return best, found
}

// Files returns every File record, in directory order.
func (d *Decoder) Files() ([]directory.File, error) {
	if d.state != stateLoaded {
		return nil, newError(ErrReadOrderViolation, "must ReadDirectory first")
	}
	return d.files, nil
}

// FilesByName returns every File recorded at the given archive path.
func (d *Decoder) FilesByName(name string) []directory.File {
	entry, ok := d.byName.Get(&decoderFileEntry{Name: name})
	if !ok {
		return nil
	}
	out := make([]directory.File, 0, len(entry.Indices))
	for _, idx := range entry.Indices {
		out = append(out, d.files[idx])
	}
	return out
}

// FilesByDigest returns every File whose content digest equals digest.
func (d *Decoder) FilesByDigest(digest integrity.Digest) []directory.File {
	indices := d.byDigest[string(digest)]
	out := make([]directory.File, 0, len(indices))
	for _, idx := range indices {
		out = append(out, d.files[idx])
	}
	return out
}

// Frame looks up a content Frame record by digest.
func (d *Decoder) Frame(digest integrity.Digest) (directory.Frame, bool) {
	fr, ok := d.frames[string(digest)]
	return fr, ok
}

// ReadContentFrame returns a streaming iterator over the decompressed
// bytes of the content frame identified by digest. It refuses to read the
// header frame or the directory frame, which are never content frames.
func (d *Decoder) ReadContentFrame(digest integrity.Digest) (*FrameIterator, error) {
	if d.state != stateLoaded {
		return nil, newError(ErrReadOrderViolation, "must ReadDirectory first")
	}
	fr, ok := d.frames[string(digest)]
	if !ok {
		return nil, newError(ErrParse, "unknown content digest %s", digest)
	}
	if int64(fr.Offset) == headerLength || int64(fr.Offset) == d.directoryOffset {
		return nil, newError(ErrParse, "offset %d is not a content frame", fr.Offset)
	}

	r, err := d.source.Open()
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(fr.Offset), io.SeekStart); err != nil {
		r.Close()
		return nil, wrapError(ErrIO, err, "seek to content frame")
	}

	// Bound the codec to this frame's on-disk length, so it stops at the
	// end of the frame instead of decoding the frames that follow it.
	zr, err := zstd.NewReader(io.LimitReader(r, int64(fr.Length)))
	if err != nil {
		r.Close()
		return nil, wrapError(ErrZstdInit, err, "create zstd reader for content frame")
	}

	cacheKey := xxhash.Sum64(digest)
	if d.cachedKey == cacheKey && d.cachedData != nil {
		zr.Close()
		r.Close()
		return &FrameIterator{
			expectedDigest: digest,
			uncompressed:   fr.Uncompressed,
			remaining:      fr.Uncompressed,
			hasher:         integrity.NewHasher(d.trailer.DigestType),
			preloaded:      d.cachedData,
		}, nil
	}

	return &FrameIterator{
		r:              r,
		zr:             zr,
		expectedDigest: digest,
		uncompressed:   fr.Uncompressed,
		remaining:      fr.Uncompressed,
		hasher:         integrity.NewHasher(d.trailer.DigestType),
		onExhausted: func(data []byte) {
			d.cachedKey = cacheKey
			d.cachedData = data
		},
	}, nil
}

// FrameIterator streams the decompressed bytes of one content frame,
// hashing each chunk as it is yielded. Digest and Verify are only
// meaningful after the iterator is exhausted (Next returns io.EOF).
type FrameIterator struct {
	r  ReadSeekCloser
	zr *zstd.Decoder

	expectedDigest integrity.Digest
	uncompressed   uint64
	remaining      uint64

	hasher    integrity.Hasher
	exhausted bool

	preloaded []byte
	consumed  bool

	onExhausted func([]byte)
	collected   []byte

	closed atomic.Bool
}

// recommendedChunk mirrors the spec's "at least 1 KiB" input/output sizing
// guidance for the streaming step.
const recommendedChunk = 64 * 1024

// Next reads the next chunk of decompressed bytes, or returns io.EOF once
// the frame is exhausted.
func (it *FrameIterator) Next() ([]byte, error) {
	if it.preloaded != nil {
		if it.consumed {
			return nil, io.EOF
		}
		it.consumed = true
		it.exhausted = true
		if _, err := it.hasher.Write(it.preloaded); err != nil {
			return nil, wrapError(ErrIO, err, "digest content frame")
		}
		it.remaining = 0
		return it.preloaded, nil
	}

	if it.exhausted {
		return nil, io.EOF
	}

	buf := make([]byte, recommendedChunk)
	n, err := it.zr.Read(buf)
	if n > 0 {
		chunk := buf[:n]
		if _, herr := it.hasher.Write(chunk); herr != nil {
			return nil, wrapError(ErrIO, herr, "digest content frame")
		}
		it.collected = append(it.collected, chunk...)
		if uint64(n) <= it.remaining {
			it.remaining -= uint64(n)
		} else {
			it.remaining = 0
		}
	}
	if err == io.EOF {
		it.exhausted = true
		it.Close()
		if it.onExhausted != nil {
			it.onExhausted(it.collected)
		}
		if n > 0 {
			return buf[:n], nil
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, wrapError(ErrZstdCodec, err, "decompress content frame")
	}
	return buf[:n], nil
}

// UncompressedSize returns the frame's declared uncompressed length.
func (it *FrameIterator) UncompressedSize() uint64 { return it.uncompressed }

// BytesLeft returns an estimate of undecoded bytes remaining.
func (it *FrameIterator) BytesLeft() uint64 { return it.remaining }

// Digest returns the running digest. Only valid once the iterator is
// exhausted.
func (it *FrameIterator) Digest() (integrity.Digest, bool) {
	if !it.exhausted {
		return nil, false
	}
	return it.hasher.Sum(), true
}

// Verify reports whether the running digest matches the frame's expected
// digest. Only meaningful once the iterator is exhausted.
func (it *FrameIterator) Verify() bool {
	if !it.exhausted {
		return false
	}
	return it.hasher.Sum().Equal(it.expectedDigest)
}

// Close releases the iterator's codec and reader resources. Safe to call
// more than once; only the first call does any work.
func (it *FrameIterator) Close() error {
	if !it.closed.CAS(false, true) {
		return nil
	}
	if it.zr != nil {
		it.zr.Close()
		it.zr = nil
	}
	if it.r != nil {
		err := it.r.Close()
		it.r = nil
		return err
	}
	return nil
}

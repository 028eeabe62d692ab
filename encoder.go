package zarc

import (
	"io"
	"time"

	"github.com/google/btree"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/zarc-format/zarc/directory"
	"github.com/zarc-format/zarc/framing"
	"github.com/zarc-format/zarc/integrity"
	"github.com/zarc-format/zarc/trailer"
)

// editionNumber is fixed at 1 in this implementation; the element model
// and decoder both tolerate other values on read, but nothing here ever
// writes a second edition.
const editionNumber = 1

// fileIndexEntry is the btree-ordered by-name index entry: Name sorts the
// tree, Indices lists every File at that path in insertion order (an
// archive may legally hold more than one File at the same path across
// appends, though this encoder only ever appends within one edition).
type fileIndexEntry struct {
	Name    string
	Indices []int
}

func fileIndexLess(a, b *fileIndexEntry) bool { return a.Name < b.Name }

// Encoder accumulates content frames, file records, and frame records, and
// emits them as a finished Zarc archive on Finalize. It implements the
// Open -> Finalised state machine: once Finalize is called, the encoder
// must not be reused.
type Encoder struct {
	w      io.Writer
	o      encoderOptions
	logger *zap.Logger

	zenc *zstd.Encoder

	offset int64

	framesByDigest map[string]*directory.Frame
	frameOrder     []string // digests, insertion order

	files    []*directory.File
	byName   *btree.BTreeG[*fileIndexEntry]
	byDigest map[string][]int

	finalised bool
	closed    atomic.Bool
}

// NewEncoder writes the 12-byte file header and returns an Encoder ready
// to accept content and file records.
func NewEncoder(w io.Writer, opts ...EOption) (*Encoder, error) {
	e := &Encoder{
		w:              w,
		framesByDigest: make(map[string]*directory.Frame),
		byName:         btree.NewG(8, fileIndexLess),
		byDigest:       make(map[string][]int),
		offset:         headerLength,
	}

	e.o.setDefault()
	for _, opt := range opts {
		if err := opt(&e.o); err != nil {
			return nil, err
		}
	}
	e.logger = e.o.logger

	zenc, err := zstd.NewWriter(nil, e.o.zstdEOpts...)
	if err != nil {
		return nil, wrapError(ErrZstdInit, err, "create zstd encoder")
	}
	e.zenc = zenc

	if err := writeHeader(w); err != nil {
		return nil, err
	}

	return e, nil
}

// SetZstdEncoderOptions reconfigures the underlying zstd encoder; it takes
// effect on the next content frame.
func (e *Encoder) SetZstdEncoderOptions(opts ...zstd.EOption) error {
	zenc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return wrapError(ErrZstdCodec, err, "reconfigure zstd encoder")
	}
	e.zenc.Close()
	e.zenc = zenc
	return nil
}

// EnableCompression toggles whether subsequent content frames are
// compressed or written as raw Zstd blocks (see framing.WriteUncompressedFrame).
func (e *Encoder) EnableCompression(enabled bool) {
	e.o.compress = enabled
}

// AddContentFrame computes the digest of data and, if it's new, writes it
// to the archive as a content frame, returning the digest either way. Two
// calls with identical content always return the same digest and only the
// first one writes bytes.
func (e *Encoder) AddContentFrame(data []byte) (integrity.Digest, error) {
	if e.finalised {
		return nil, newError(ErrReadOrderViolation, "encoder is already finalised")
	}

	sum := integrity.NewHasher(e.o.digestType)
	if sum == nil {
		return nil, newError(ErrParse, "unknown digest type %d", e.o.digestType)
	}
	if _, err := sum.Write(data); err != nil {
		return nil, wrapError(ErrIO, err, "digest content")
	}
	digest := sum.Sum()
	key := string(digest)

	if _, ok := e.framesByDigest[key]; ok {
		return digest, nil
	}

	offset := e.offset
	var written int64
	var err error

	if e.o.compress {
		e.zenc.Reset(e.w)
		compressed := e.zenc.EncodeAll(data, nil)
		n, werr := e.w.Write(compressed)
		written = int64(n)
		err = werr
	} else {
		written, err = framing.WriteUncompressedFrame(e.w, data)
	}
	if err != nil {
		return nil, wrapError(ErrIO, err, "write content frame")
	}

	frame := &directory.Frame{
		Edition:      editionNumber,
		Offset:       uint64(offset),
		Digest:       digest,
		Length:       uint64(written),
		Uncompressed: uint64(len(data)),
	}
	e.framesByDigest[key] = frame
	e.frameOrder = append(e.frameOrder, key)
	e.offset += written

	e.logger.Debug("added content frame",
		zap.String("digest", digest.String()),
		zap.Int64("offset", offset),
		zap.Int64("written", written),
	)

	return digest, nil
}

// AddFile inserts a File record. If f.Digest is set, it must reference a
// Frame already added via AddContentFrame.
func (e *Encoder) AddFile(f directory.File) error {
	if e.finalised {
		return newError(ErrReadOrderViolation, "encoder is already finalised")
	}
	if len(f.Digest) > 0 {
		if _, ok := e.framesByDigest[string(f.Digest)]; !ok {
			return newError(ErrParse, "file %s references unknown content digest", f.Name)
		}
	}
	f.Edition = editionNumber

	idx := len(e.files)
	stored := f
	e.files = append(e.files, &stored)

	name := f.Name.String()
	entry, found := e.byName.Get(&fileIndexEntry{Name: name})
	if !found {
		entry = &fileIndexEntry{Name: name}
		e.byName.ReplaceOrInsert(entry)
	}
	entry.Indices = append(entry.Indices, idx)

	if len(f.Digest) > 0 {
		key := string(f.Digest)
		e.byDigest[key] = append(e.byDigest[key], idx)
	}

	return nil
}

// Finalize emits the directory and trailer, flushes the writer, and
// returns the directory's digest. The encoder must not be used again.
func (e *Encoder) Finalize() (integrity.Digest, error) {
	if e.finalised {
		return nil, newError(ErrReadOrderViolation, "encoder is already finalised")
	}
	e.finalised = true
	defer e.Close()

	hasher := integrity.NewHasher(e.o.digestType)
	directoryBuf := &writeCounter{hasher: hasher}

	edition := directory.Edition{
		Number:     editionNumber,
		WrittenAt:  time.Now().UTC(),
		DigestType: e.o.digestType,
	}
	if err := writeElement(directoryBuf, directory.ElementKindEdition, edition); err != nil {
		return nil, err
	}

	emittedFrames := make(map[string]bool)

	var walkErr error
	e.byName.Ascend(func(entry *fileIndexEntry) bool {
		for _, idx := range entry.Indices {
			f := e.files[idx]
			if len(f.Digest) > 0 {
				key := string(f.Digest)
				if !emittedFrames[key] {
					if err := writeElement(directoryBuf, directory.ElementKindFrame, *e.framesByDigest[key]); err != nil {
						walkErr = err
						return false
					}
					emittedFrames[key] = true
				}
			}
			if err := writeElement(directoryBuf, directory.ElementKindFile, *f); err != nil {
				walkErr = err
				return false
			}
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	for _, key := range e.frameOrder {
		if !emittedFrames[key] {
			if err := writeElement(directoryBuf, directory.ElementKindFrame, *e.framesByDigest[key]); err != nil {
				return nil, err
			}
			emittedFrames[key] = true
		}
	}

	uncompressed := directoryBuf.buf
	directoryDigest := hasher.Sum()

	e.zenc.Reset(e.w)
	compressed := e.zenc.EncodeAll(uncompressed, nil)
	n, err := e.w.Write(compressed)
	if err != nil {
		return nil, wrapError(ErrIO, err, "write directory frame")
	}
	e.offset += int64(n)

	trailerLen := trailer.Len(e.o.digestType)
	t := &trailer.Trailer{
		DigestType:                e.o.digestType,
		Digest:                    directoryDigest,
		DirectoryOffset:           trailer.ComputeDirectoryOffset(n, trailerLen),
		DirectoryUncompressedSize: uint64(len(uncompressed)),
		Version:                  ZarcVersion,
	}

	tbytes, err := t.Bytes()
	if err != nil {
		return nil, wrapError(ErrParse, err, "assemble trailer")
	}
	frame := framing.NewSkippableFrame(trailer.Nibble, tbytes)
	if _, err := frame.WriteTo(e.w); err != nil {
		return nil, wrapError(ErrIO, err, "write trailer")
	}

	if flusher, ok := e.w.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return nil, wrapError(ErrIO, err, "flush writer")
		}
	}

	return directoryDigest, nil
}

// Close releases the encoder's zstd context. It is safe to call multiple
// times and is called automatically by Finalize; callers abandoning an
// encoder without finalising it should call this directly to avoid
// leaking the underlying codec. It does not close the underlying writer,
// which the caller owns.
func (e *Encoder) Close() error {
	var err error
	if e.closed.CAS(false, true) {
		err = multierr.Append(err, e.zenc.Close())
	}
	return err
}

// writeCounter accumulates written bytes while feeding them through a
// running hasher, mirroring how the encoder digests the directory as it
// writes it without buffering it twice.
type writeCounter struct {
	buf    []byte
	hasher integrity.Hasher
}

func (w *writeCounter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if w.hasher != nil {
		if _, err := w.hasher.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func writeElement(w io.Writer, kind directory.ElementKind, v interface{}) error {
	elem, err := directory.Marshal(kind, v)
	if err != nil {
		return wrapError(ErrParse, err, "marshal %s element", kind)
	}
	if _, err := elem.WriteTo(w); err != nil {
		return wrapError(ErrIO, err, "write %s element", kind)
	}
	return nil
}

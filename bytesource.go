package zarc

import (
	"io"
	"os"
)

// ByteSource is the on-demand byte source the Decoder reads from: a
// factory that produces independent reader+seeker handles. This lets the
// decoder read the directory in one session while streaming a content
// frame from another position concurrently, since each handle has its own
// cursor.
type ByteSource interface {
	// Open returns a new, independently-seekable reader over the same
	// underlying bytes. The caller is responsible for closing it.
	Open() (ReadSeekCloser, error)
}

// ReadSeekCloser is what a ByteSource's handles must support.
type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FileByteSource is the canonical ByteSource: it wraps a filesystem path
// and reopens the file on every call to Open.
type FileByteSource struct {
	Path string
}

// NewFileByteSource returns a ByteSource backed by the file at path.
func NewFileByteSource(path string) *FileByteSource {
	return &FileByteSource{Path: path}
}

func (s *FileByteSource) Open() (ReadSeekCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, wrapError(ErrIO, err, "open %s", s.Path)
	}
	return f, nil
}

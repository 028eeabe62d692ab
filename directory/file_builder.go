package directory

import (
	"time"

	"github.com/zarc-format/zarc/integrity"
)

// FileBuilder provides ergonomic, chainable construction of a File,
// adapted from the original archiver's FileBuilder (encode/add_file.rs):
// start from NewFileBuilder, chain setters, then Build. Each setter
// mutates and returns the same builder, so callers don't need to juggle
// an intermediate File value by hand.
type FileBuilder struct {
	f File
}

// NewFileBuilder starts building a File at the given archive path.
func NewFileBuilder(name Pathname) *FileBuilder {
	return &FileBuilder{f: File{Name: name}}
}

// Build returns the constructed File. Unless Directory was called, the
// caller is still responsible for setting a content digest (via Digest)
// from a frame already added to the Encoder before calling AddFile.
func (b *FileBuilder) Build() File { return b.f }

// Digest sets the content frame digest this file refers to.
func (b *FileBuilder) Digest(d integrity.Digest) *FileBuilder {
	b.f.Digest = d
	return b
}

// Directory marks this entry as a directory, clearing any digest that
// was previously set.
func (b *FileBuilder) Directory() *FileBuilder {
	b.f.Digest = nil
	kind := SpecialDirectory
	b.f.Special = &SpecialFile{Kind: &kind}
	return b
}

// Mode sets the POSIX permission mode.
func (b *FileBuilder) Mode(mode uint32) *FileBuilder {
	b.f.Mode = &mode
	return b
}

// UserName sets the owning user's name, preserving any id already set.
func (b *FileBuilder) UserName(name string) *FileBuilder {
	b.f.User.Name = name
	return b
}

// UserID sets the owning user's numeric id, preserving any name already set.
func (b *FileBuilder) UserID(id uint32) *FileBuilder {
	b.f.User.ID = &id
	return b
}

// GroupName sets the owning group's name, preserving any id already set.
func (b *FileBuilder) GroupName(name string) *FileBuilder {
	b.f.Group.Name = name
	return b
}

// GroupID sets the owning group's numeric id, preserving any name already set.
func (b *FileBuilder) GroupID(id uint32) *FileBuilder {
	b.f.Group.ID = &id
	return b
}

// TimeCreated sets the file's creation timestamp.
func (b *FileBuilder) TimeCreated(t time.Time) *FileBuilder {
	b.f.Times.Created = &t
	return b
}

// TimeModified sets the file's modification timestamp.
func (b *FileBuilder) TimeModified(t time.Time) *FileBuilder {
	b.f.Times.Modified = &t
	return b
}

// TimeAccessed sets the file's access timestamp.
func (b *FileBuilder) TimeAccessed(t time.Time) *FileBuilder {
	b.f.Times.Accessed = &t
	return b
}

// UserMetadata adds an entry to the file's free-form user metadata map.
func (b *FileBuilder) UserMetadata(key, value string) *FileBuilder {
	if b.f.UserMetadata == nil {
		b.f.UserMetadata = make(map[string]string)
	}
	b.f.UserMetadata[key] = value
	return b
}

// Attribute adds a namespaced file attribute, expanding well-known
// unprefixed aliases the same way SetAttribute does.
func (b *FileBuilder) Attribute(key string, value AttributeValue) *FileBuilder {
	b.f.SetAttribute(key, value)
	return b
}

// ExtendedAttribute adds a raw POSIX extended attribute.
func (b *FileBuilder) ExtendedAttribute(key string, value []byte) *FileBuilder {
	if b.f.ExtendedAttributes == nil {
		b.f.ExtendedAttributes = make(map[string][]byte)
	}
	b.f.ExtendedAttributes[key] = value
	return b
}

package zarc

import (
	"github.com/zarc-format/zarc/directory"
	"github.com/zarc-format/zarc/integrity"
)

// DigestType and Digest are re-exported from the integrity package so
// callers of the root package don't need a second import for the common
// case.
type (
	DigestType = integrity.DigestType
	Digest     = integrity.Digest
)

// DigestTypeBlake3 is the BLAKE3-256 digest algorithm, the only one this
// implementation writes.
const DigestTypeBlake3 = integrity.DigestTypeBlake3

// File, Edition, Frame, Pathname and the supporting directory types are
// re-exported the same way, since they are the shapes callers build and
// receive through the Encoder/Decoder surface.
type (
	File            = directory.File
	Edition         = directory.Edition
	Frame           = directory.Frame
	Pathname        = directory.Pathname
	CborString      = directory.CborString
	PosixOwner      = directory.PosixOwner
	Timestamps      = directory.Timestamps
	SpecialFile     = directory.SpecialFile
	SpecialFileKind = directory.SpecialFileKind
	AttributeValue  = directory.AttributeValue
	FileBuilder     = directory.FileBuilder
)

// ParsePathname parses a "/"-delimited archive path into a Pathname,
// re-exported from the directory package for callers constructing Files
// against the root package's API.
func ParsePathname(s string) (Pathname, error) {
	return directory.ParsePathname(s)
}

// NewFileBuilder starts an ergonomic, chainable File construction,
// re-exported from the directory package.
func NewFileBuilder(name Pathname) *FileBuilder {
	return directory.NewFileBuilder(name)
}

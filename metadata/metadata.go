// Package metadata captures a File record's filesystem-derived fields from
// a real path: ownership, mode, modification time, special-file kind, and
// a read-only attribute derived from the permission bits. POSIX extended
// attributes are not captured. This is the "collaborator contract" the core
// delegates to rather than implementing itself: given a path and a
// follow-symlinks flag, produce a File minus its content digest, which the
// caller attaches after running the data through Encoder.AddContentFrame.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/zarc-format/zarc/directory"
	"github.com/zarc-format/zarc/internal/ownercache"
)

// Capture builds a directory.File for the file at path, using lstat
// semantics unless followSymlinks is set. The returned File's Name is
// filled from the path's normal components (no "." or ".." or empty
// segments); its Digest is left unset for the caller to fill in.
func Capture(cache *ownercache.Cache, path string, followSymlinks bool) (directory.File, error) {
	name, err := directory.ParsePathname(filepath.ToSlash(path))
	if err != nil {
		return directory.File{}, fmt.Errorf("metadata: %w", err)
	}

	symInfo, err := os.Lstat(path)
	if err != nil {
		return directory.File{}, fmt.Errorf("metadata: lstat %s: %w", path, err)
	}
	isSymlink := symInfo.Mode()&os.ModeSymlink != 0

	var linkTarget string
	if isSymlink {
		linkTarget, err = os.Readlink(path)
		if err != nil {
			return directory.File{}, fmt.Errorf("metadata: readlink %s: %w", path, err)
		}
	}

	info := symInfo
	if followSymlinks && isSymlink {
		info, err = os.Stat(path)
		if err != nil {
			return directory.File{}, fmt.Errorf("metadata: stat %s: %w", path, err)
		}
	}

	f := directory.File{Name: name}

	mode := uint32(info.Mode().Perm())
	f.Mode = &mode

	f.User, f.Group = owner(cache, info)
	f.Times = timestamps(info)

	switch {
	case info.IsDir():
		kind := directory.SpecialDirectory
		f.Special = &directory.SpecialFile{Kind: &kind}
	case isSymlink:
		kind := directory.SpecialSymlink
		f.Special = &directory.SpecialFile{
			Kind:       &kind,
			LinkTarget: &directory.LinkTarget{FullPath: linkTarget},
		}
	}

	if attrs := fileAttributes(info); len(attrs) > 0 {
		f.Attributes = attrs
	}

	return f, nil
}

func owner(cache *ownercache.Cache, info os.FileInfo) (directory.PosixOwner, directory.PosixOwner) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return directory.PosixOwner{}, directory.PosixOwner{}
	}

	uid := stat.Uid
	gid := stat.Gid

	user := directory.PosixOwner{ID: &uid}
	if name, ok := cache.UserFromUID(uid); ok {
		user.Name = name
	}

	group := directory.PosixOwner{ID: &gid}
	if name, ok := cache.GroupFromGID(gid); ok {
		group.Name = name
	}

	return user, group
}

func timestamps(info os.FileInfo) directory.Timestamps {
	mtime := info.ModTime().UTC()
	return directory.Timestamps{Modified: &mtime}
}

// fileAttributes maps host-specific mode bits to Zarc's namespaced
// attribute set. Platform-specific flags like immutable/append-only
// (lsattr/chflags/FILE_ATTRIBUTE_*) require OS-specific syscalls this
// collaborator does not perform, so this only derives read-only from
// the permission bits, written unprefixed exactly as the ground truth's
// file_attributes() does (it is never namespaced per-platform there,
// unlike append-only/compressed/immutable). ApplyCommonAttributeAliases
// still runs so that, if a future platform-specific collector populates
// linux.*/bsd.*/win32.* keys here, the common unprefixed alias is set
// the same way the ground truth derives it: present on any one
// platform, not a fixed namespace.
func fileAttributes(info os.FileInfo) map[string]directory.AttributeValue {
	attrs := make(map[string]directory.AttributeValue)
	if info.Mode().Perm()&0o222 == 0 {
		attrs["read-only"] = directory.BoolAttribute(true)
	}
	directory.ApplyCommonAttributeAliases(attrs)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

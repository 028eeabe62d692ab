package directory

import "fmt"

// SpecialFileKind distinguishes a File that doesn't carry its own content
// frame (a directory or a link) from a regular file. Values are grouped by
// family so callers can test with IsDir/IsLink/IsSymlink/IsHardlink without
// enumerating every variant.
type SpecialFileKind uint8

const (
	SpecialDirectory SpecialFileKind = 1

	// SpecialSymlink is a symlink of unspecified kind.
	SpecialSymlink                 SpecialFileKind = 10
	SpecialInternalSymlink         SpecialFileKind = 11
	SpecialExternalAbsoluteSymlink SpecialFileKind = 12
	SpecialExternalRelativeSymlink SpecialFileKind = 13

	// SpecialHardlink is a hardlink of unspecified kind.
	SpecialHardlink         SpecialFileKind = 20
	SpecialInternalHardlink SpecialFileKind = 21
	SpecialExternalHardlink SpecialFileKind = 22
)

func (k SpecialFileKind) String() string {
	switch k {
	case SpecialDirectory:
		return "directory"
	case SpecialSymlink:
		return "symlink"
	case SpecialInternalSymlink:
		return "internal-symlink"
	case SpecialExternalAbsoluteSymlink:
		return "external-absolute-symlink"
	case SpecialExternalRelativeSymlink:
		return "external-relative-symlink"
	case SpecialHardlink:
		return "hardlink"
	case SpecialInternalHardlink:
		return "internal-hardlink"
	case SpecialExternalHardlink:
		return "external-hardlink"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// IsDir reports whether k is the directory kind.
func (k SpecialFileKind) IsDir() bool { return k == SpecialDirectory }

// IsSymlink reports whether k is any symlink variant.
func (k SpecialFileKind) IsSymlink() bool {
	switch k {
	case SpecialSymlink, SpecialInternalSymlink, SpecialExternalAbsoluteSymlink, SpecialExternalRelativeSymlink:
		return true
	default:
		return false
	}
}

// IsHardlink reports whether k is any hardlink variant.
func (k SpecialFileKind) IsHardlink() bool {
	switch k {
	case SpecialHardlink, SpecialInternalHardlink, SpecialExternalHardlink:
		return true
	default:
		return false
	}
}

// IsLink reports whether k is any symlink or hardlink variant.
func (k SpecialFileKind) IsLink() bool { return k.IsSymlink() || k.IsHardlink() }

// LinkTarget is the target of a link: either a full pathname or a list of
// path components, mirroring how CBOR allows either a single text string
// or an array of strings here.
type LinkTarget struct {
	FullPath   string
	Components []string
}

func (t LinkTarget) isZero() bool {
	return t.FullPath == "" && len(t.Components) == 0
}

func (t LinkTarget) MarshalCBOR() ([]byte, error) {
	if len(t.Components) > 0 {
		return cborEncMode.Marshal(t.Components)
	}
	return cborEncMode.Marshal(t.FullPath)
}

func (t *LinkTarget) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cborDecMode.Unmarshal(data, &s); err == nil {
		*t = LinkTarget{FullPath: s}
		return nil
	}
	var parts []string
	if err := cborDecMode.Unmarshal(data, &parts); err != nil {
		return err
	}
	*t = LinkTarget{Components: parts}
	return nil
}

// SpecialFile carries a File's special-file metadata when it is not a
// regular file. Kind is nil when the record carries no kind; an
// unrecognized kind tag is kept as its numeric value (String renders it
// as "unknown(N)").
type SpecialFile struct {
	Kind       *SpecialFileKind `cbor:"0,keyasint,omitempty"`
	LinkTarget *LinkTarget      `cbor:"1,keyasint,omitempty"`
}

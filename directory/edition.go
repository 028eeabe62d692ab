package directory

import (
	"time"

	"github.com/zarc-format/zarc/integrity"
)

// Edition is the root of a directory snapshot: a monotonically increasing
// number, a timestamp, and the digest algorithm used throughout this
// edition's files and frames. An archive normally has exactly one edition;
// the format allows more so a future appender could record a second
// snapshot without rewriting the first.
type Edition struct {
	Number       uint64               `cbor:"0,keyasint"`
	WrittenAt    time.Time            `cbor:"1,keyasint"`
	DigestType   integrity.DigestType `cbor:"2,keyasint"`
	UserMetadata map[string]string    `cbor:"10,keyasint,omitempty"`
}

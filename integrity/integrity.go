// Package integrity implements the digest and signature primitives used to
// protect a Zarc archive's directory and content frames.
//
// Currently one digest algorithm is defined (BLAKE3-256) and one signature
// scheme (Ed25519). Signatures are a standalone verification surface:
// the trailer package reads and writes only the unsigned trailer, and
// nothing in the encode/decode path produces or checks a signature.
package integrity

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"

	"github.com/zeebo/blake3"
)

// DigestType tags the algorithm used to produce a Digest.
type DigestType uint8

const (
	// DigestTypeBlake3 is the BLAKE3-256 hash function.
	DigestTypeBlake3 DigestType = 1
)

// Len returns the fixed byte length of a digest produced by this algorithm,
// or 0 if the algorithm is unknown.
func (t DigestType) Len() int {
	switch t {
	case DigestTypeBlake3:
		return 32
	default:
		return 0
	}
}

func (t DigestType) String() string {
	switch t {
	case DigestTypeBlake3:
		return "blake3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Digest is an opaque byte vector produced by a DigestType. Equality is
// constant-time, since archive verification is a security boundary.
type Digest []byte

// Equal reports whether two digests are equal, in constant time with
// respect to their contents (the lengths are compared first, in variable
// time, which leaks no secret).
func (d Digest) Equal(other Digest) bool {
	if len(d) != len(other) {
		return false
	}
	return subtle.ConstantTimeCompare(d, other) == 1
}

// String renders the digest as lowercase hex, for logging and errors.
func (d Digest) String() string {
	return fmt.Sprintf("%x", []byte(d))
}

// VerifyDigest reports whether data hashes, under the given algorithm, to
// the expected digest. Comparison is constant-time.
func VerifyDigest(t DigestType, expected Digest, data []byte) bool {
	switch t {
	case DigestTypeBlake3:
		sum := blake3.Sum256(data)
		return expected.Equal(Digest(sum[:]))
	default:
		return false
	}
}

// Hasher is a running hash that the encoder/decoder feed incrementally while
// writing or reading the directory, so the whole directory never needs to be
// buffered twice.
type Hasher interface {
	Write(p []byte) (int, error)
	Sum() Digest
}

// NewHasher returns a running Hasher for the given digest algorithm. Returns
// nil if the algorithm is unknown.
func NewHasher(t DigestType) Hasher {
	switch t {
	case DigestTypeBlake3:
		return &blake3Hasher{h: blake3.New()}
	default:
		return nil
	}
}

type blake3Hasher struct {
	h *blake3.Hasher
}

func (b *blake3Hasher) Write(p []byte) (int, error) {
	return b.h.Write(p)
}

func (b *blake3Hasher) Sum() Digest {
	sum := b.h.Sum256()
	return Digest(sum[:])
}

// SignatureType tags the scheme used to produce a Signature. No trailer or
// frame type in this module carries one.
type SignatureType uint8

const (
	// SignatureTypeEd25519 is the Ed25519 signature scheme.
	SignatureTypeEd25519 SignatureType = 1
)

// PublicKeyLen returns the fixed byte length of a public key under this
// scheme, or 0 if unknown.
func (t SignatureType) PublicKeyLen() int {
	switch t {
	case SignatureTypeEd25519:
		return ed25519.PublicKeySize
	default:
		return 0
	}
}

// SignatureLen returns the fixed byte length of a signature under this
// scheme, or 0 if unknown.
func (t SignatureType) SignatureLen() int {
	switch t {
	case SignatureTypeEd25519:
		return ed25519.SignatureSize
	default:
		return 0
	}
}

// PublicKey and Signature are opaque byte vectors, analogous to Digest.
type PublicKey []byte
type Signature []byte

// VerifySignature reports whether signature is a valid signature by
// publicKey over data, under the given scheme.
func VerifySignature(t SignatureType, publicKey PublicKey, signature Signature, data []byte) bool {
	switch t {
	case SignatureTypeEd25519:
		if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), data, signature)
	default:
		return false
	}
}

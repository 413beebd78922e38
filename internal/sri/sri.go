// Package sri implements Subresource Integrity string parsing plus the
// hash algorithms moldau verifies tarballs against.
package sri

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA224 Algorithm = "sha224"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// Digest is a parsed integrity string: an algorithm plus the raw digest
// bytes it encodes.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// Parse parses a registry-native SRI string such as
// "sha512-z2O9Z3...==" into a Digest. The value portion is base64.
func Parse(s string) (Digest, error) {
	algo, rest, ok := strings.Cut(s, "-")
	if !ok {
		return Digest{}, fmt.Errorf("sri: malformed integrity string %q", s)
	}
	a := Algorithm(algo)
	if !a.valid() {
		return Digest{}, fmt.Errorf("sri: unsupported algorithm %q", algo)
	}
	sum, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return Digest{}, fmt.Errorf("sri: invalid base64 in %q: %w", s, err)
	}
	return Digest{Algorithm: a, Sum: sum}, nil
}

// String renders the Digest back into SRI form.
func (d Digest) String() string {
	return string(d.Algorithm) + "-" + base64.StdEncoding.EncodeToString(d.Sum)
}

// Verify hashes data with d's algorithm and compares it to d.Sum.
func (d Digest) Verify(data []byte) bool {
	h := newHash(d.Algorithm)
	h.Write(data)
	return hmacEqual(h.Sum(nil), d.Sum)
}

func (a Algorithm) valid() bool {
	switch a {
	case SHA1, SHA224, SHA256, SHA384, SHA512:
		return true
	default:
		return false
	}
}

func newHash(a Algorithm) hash.Hash {
	switch a {
	case SHA1:
		return NewCollisionSHA1()
	case SHA224:
		return sha256.New224()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		panic(fmt.Sprintf("sri: unreachable algorithm %q", a))
	}
}

// HashBytes computes the raw digest of data under algo. Used to render a
// mismatch error's "actual" side in the same encoding as the digest that
// failed to verify.
func HashBytes(algo Algorithm, data []byte) []byte {
	h := newHash(algo)
	h.Write(data)
	return h.Sum(nil)
}

// HexString renders the digest using lowercase hex instead of base64,
// the format used by registry `shasum` fields and by descriptor-embedded
// integrity pins for every algorithm, sha512 included.
func (d Digest) HexString() string {
	return hex.EncodeToString(d.Sum)
}

func hmacEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// Package verify implements the layered tarball integrity checks: registry
// shasum/SRI integrity, descriptor-pinned integrity, and ECDSA registry
// signatures.
package verify

import (
	"encoding/hex"
	"fmt"

	"github.com/ryanccn-fork/moldau/internal/keys"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
	"github.com/ryanccn-fork/moldau/internal/sri"
)

// ShasumMismatchError is returned when a tarball's SHA-1 doesn't match
// dist.shasum.
type ShasumMismatchError struct {
	Expected, Actual string
}

func (e *ShasumMismatchError) Error() string {
	return fmt.Sprintf("verify: shasum mismatch (expected %s, got %s)", e.Expected, e.Actual)
}

// IntegrityMismatchError is returned when a tarball's digest doesn't match
// dist.integrity.
type IntegrityMismatchError struct {
	Expected, Actual string
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("verify: integrity mismatch (expected %s, got %s)", e.Expected, e.Actual)
}

// IntegrityPinMismatchError is returned when a tarball (or, for Yarn, its
// extracted bin file) doesn't match the descriptor's embedded integrity
// pin.
type IntegrityPinMismatchError struct {
	Expected, Actual string
}

func (e *IntegrityPinMismatchError) Error() string {
	return fmt.Sprintf("verify: integrity pin mismatch (expected %s, got %s)", e.Expected, e.Actual)
}

// SignatureInvalidError is returned when a non-empty signature list has no
// signature that verifies under a known key, whether a known keyid's
// signature failed or every keyid is unknown. KeyID is the first
// signature's keyid.
type SignatureInvalidError struct {
	KeyID string
}

func (e *SignatureInvalidError) Error() string {
	return fmt.Sprintf("verify: ECDSA signature invalid (keyid %s)", e.KeyID)
}

// CollisionDetectedError is returned when a tarball's SHA-1 matches
// dist.shasum but the bytes carry a known chosen-prefix collision block
// (SHAttered/Shambles). A matching digest is not sufficient proof of
// integrity for such an input, so this is a hard verification failure
// independent of whether the shasum itself matched.
type CollisionDetectedError struct {
	Shasum string
}

func (e *CollisionDetectedError) Error() string {
	return fmt.Sprintf("verify: tarball contains a known SHA-1 collision block (shasum %s)", e.Shasum)
}

// Shasum verifies tarball bytes against dist.shasum using collision-aware
// SHA-1. A digest match alone is not enough: if the bytes carry a known
// collision block, verification fails even though the hex digest matches.
func Shasum(bytes []byte, dist registryclient.Dist) error {
	h := sri.NewCollisionSHA1()
	h.Write(bytes)
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != dist.Shasum {
		return &ShasumMismatchError{Expected: dist.Shasum, Actual: actual}
	}
	if cd, ok := h.(sri.CollisionDetector); ok && cd.Collision() {
		return &CollisionDetectedError{Shasum: actual}
	}
	return nil
}

// Integrity verifies tarball bytes against dist.integrity (SRI), when the
// registry supplied one. A missing dist.integrity is not an error here
// (older registry documents predate the field); the caller still gets
// shasum coverage from Shasum.
func Integrity(bytes []byte, dist registryclient.Dist) error {
	if dist.Integrity == "" {
		return nil
	}
	d, err := sri.Parse(dist.Integrity)
	if err != nil {
		return fmt.Errorf("verify: parsing dist.integrity: %w", err)
	}
	if !d.Verify(bytes) {
		actual := sri.Digest{Algorithm: d.Algorithm, Sum: sri.HashBytes(d.Algorithm, bytes)}
		return &IntegrityMismatchError{Expected: d.String(), Actual: actual.String()}
	}
	return nil
}

// Chain runs the full verification chain from spec §4.F in order: shasum,
// then SRI integrity, then registry signatures. Any failure aborts and the
// downloaded bytes must be discarded by the caller, not cached.
func Chain(store *keys.Store, isDefaultRegistry bool, name, version string, dist registryclient.Dist, bytes []byte) error {
	if err := Shasum(bytes, dist); err != nil {
		return err
	}
	if err := Integrity(bytes, dist); err != nil {
		return err
	}
	return Signatures(store, isDefaultRegistry, name, version, dist)
}

// IntegrityPin verifies bytes against a descriptor-embedded integrity pin.
// For Yarn descriptors, bytes should be the extracted `bin.yarn` file's
// contents rather than the tarball itself, per the special-casing inherited
// from Corepack (Corepack originally downloaded Yarn as a bare file, not a
// package, and computed its pin over that file; moldau preserves the same
// pin target for compatibility even though it always downloads the npm
// package).
func IntegrityPin(kind pkgmgr.Kind, pin sri.Pin, bytes []byte) error {
	if pin.Verify(bytes) {
		return nil
	}
	actual := sri.Pin{Digest: sri.Digest{Algorithm: pin.Digest.Algorithm, Sum: sri.HashBytes(pin.Digest.Algorithm, bytes)}}
	return &IntegrityPinMismatchError{Expected: pin.String(), Actual: actual.String()}
}

// Signatures requires at least one of dist.Signatures to verify under a
// known key. A keyid absent from the store is ignored (it allows key
// rotation) but does not count toward the required success; an empty
// signatures list is tolerated outright. Verification is skipped entirely
// when the registry isn't registry.npmjs.org, since only that host's
// signatures are meaningful against the compiled key set.
func Signatures(store *keys.Store, isDefaultRegistry bool, name, version string, dist registryclient.Dist) error {
	if !isDefaultRegistry || len(dist.Signatures) == 0 {
		return nil
	}

	message := keys.CanonicalMessage(name, version, dist.Integrity)
	successes := 0
	for _, sig := range dist.Signatures {
		pub := store.Lookup(sig.KeyID)
		if pub == nil {
			continue
		}
		ok, err := keys.VerifyASN1(pub, message, sig.Sig)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if ok {
			successes++
		}
	}

	if successes == 0 {
		return &SignatureInvalidError{KeyID: dist.Signatures[0].KeyID}
	}
	return nil
}

// Package keys holds the npm registry's published signing keys and verifies
// ECDSA signatures against them.
package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// PublicKey is one entry in the npm registry's published signing key set.
type PublicKey struct {
	KeyID string
	DER   string // base64-encoded PKIX/SPKI DER
}

// Compiled is the key set moldau ships, mirroring
// https://registry.npmjs.org/-/npm/v1/keys at the time of writing.
var Compiled = []PublicKey{
	{
		KeyID: "SHA256:jl3bwswu80PjjokCgh0o2w5c2U4LhQAE57gj9cz1kzA",
		DER:   "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE1Olb3zMAFFxXKHiIkQO5cJ3Yhl5i6UPp+IhuteBJbuHcA5UogKo0EWtlWwW6KSaKoTNEYL7JlCQiVnkhBktUgg==",
	},
	{
		KeyID: "SHA256:DhQ8wR5APBvFHLF/+Tc+AYvPOdTpcIDqOhxsBHRwC7U",
		DER:   "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAEY6Ya7W++7aUPzvMTrezH6Ycx3c+HOKYCcNGybJZSCJq/fd7Qa8uuAKtdIkUQtQiEKERhAmE5lMMJhP8OkDOa2g==",
	},
}

// Store looks up compiled registry public keys by keyid.
type Store struct {
	keys map[string]*ecdsa.PublicKey
}

// NewStore parses the compiled key set into a Store.
func NewStore() (*Store, error) {
	s := &Store{keys: make(map[string]*ecdsa.PublicKey, len(Compiled))}
	for _, pk := range Compiled {
		der, err := base64.StdEncoding.DecodeString(pk.DER)
		if err != nil {
			return nil, fmt.Errorf("keys: decoding %s: %w", pk.KeyID, err)
		}
		pub, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return nil, fmt.Errorf("keys: parsing %s: %w", pk.KeyID, err)
		}
		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("keys: %s is not an ECDSA key", pk.KeyID)
		}
		s.keys[pk.KeyID] = ecPub
	}
	return s, nil
}

// Lookup returns the public key for keyid, or nil if it isn't a key moldau
// recognizes. An unrecognized keyid is not an error: the caller should skip
// verifying that signature rather than failing, matching the reference
// implementation's behavior of tolerating signatures under keys it doesn't
// have compiled in.
func (s *Store) Lookup(keyid string) *ecdsa.PublicKey {
	return s.keys[keyid]
}

// CanonicalMessage builds the exact byte sequence the registry signs:
// "<name>@<version>:<integrity>" with no extra separators.
func CanonicalMessage(name, version, integrity string) []byte {
	msg := make([]byte, 0, len(name)+len(version)+len(integrity)+2)
	msg = append(msg, name...)
	msg = append(msg, '@')
	msg = append(msg, version...)
	msg = append(msg, ':')
	msg = append(msg, integrity...)
	return msg
}

// VerifyASN1 verifies an ASN.1 DER-encoded ECDSA signature (base64-encoded,
// as delivered in dist.signatures[].sig) over message using pub.
func VerifyASN1(pub *ecdsa.PublicKey, message []byte, sigB64 string) (bool, error) {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("keys: invalid signature encoding: %w", err)
	}
	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(pub, digest[:], sig), nil
}

type keysResponse struct {
	Keys []struct {
		KeyID string `json:"keyid"`
	} `json:"keys"`
}

// ErrKeyDrift is returned by CheckDrift when the live registry publishes a
// keyid absent from Compiled.
var ErrKeyDrift = errors.New("keys: registry published keys moldau doesn't recognize")

// CheckDrift fetches the registry's live key set and reports any keyid not
// present in Compiled. It never modifies Compiled; it exists purely so a
// maintainer (or a scheduled audit job) can notice the registry rotated its
// signing keys before relied-upon signatures silently stop verifying.
func CheckDrift(ctx context.Context, client *http.Client, keysURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keysURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("keys: fetching %s: HTTP %d: %s", keysURL, resp.StatusCode, body)
	}

	var parsed keysResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("keys: decoding keys response: %w", err)
	}

	known := make(map[string]bool, len(Compiled))
	for _, pk := range Compiled {
		known[pk.KeyID] = true
	}

	var drifted []string
	for _, k := range parsed.Keys {
		if !known[k.KeyID] {
			drifted = append(drifted, k.KeyID)
		}
	}
	if len(drifted) > 0 {
		return drifted, ErrKeyDrift
	}
	return nil, nil
}

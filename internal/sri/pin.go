package sri

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Pin is the integrity constraint embedded in a descriptor's exact version
// as semver build metadata, e.g. the "sha512.<hex>" in
// "9.1.0+sha512.1f3d...". Every algorithm, including sha512, encodes its
// digest as hex rather than the registry's own base64 SRI encoding: semver
// 2.0.0 build-metadata identifiers are restricted to [0-9A-Za-z-], and
// standard base64's "+", "/", and "=" are illegal there, which would break
// Masterminds/semver/v3's parsing of the whole packageManager string for
// any real (non-trivial) digest.
type Pin struct {
	Digest Digest
}

// ParsePin parses the raw build-metadata string (without the leading "+")
// of a descriptor's exact version into a Pin. An empty string yields the
// zero Pin and ok=false.
func ParsePin(raw string) (Pin, bool, error) {
	if raw == "" {
		return Pin{}, false, nil
	}
	algo, rest, ok := strings.Cut(raw, ".")
	if !ok {
		return Pin{}, false, fmt.Errorf("sri: malformed integrity pin %q", raw)
	}
	a := Algorithm(algo)
	if !a.valid() {
		return Pin{}, false, fmt.Errorf("sri: unsupported pin algorithm %q", algo)
	}

	sum, err := hex.DecodeString(rest)
	if err != nil {
		return Pin{}, false, fmt.Errorf("sri: invalid encoding in pin %q: %w", raw, err)
	}

	return Pin{Digest: Digest{Algorithm: a, Sum: sum}}, true, nil
}

// String renders the pin back into its "<algo>.<hex>" form.
func (p Pin) String() string {
	return string(p.Digest.Algorithm) + "." + hex.EncodeToString(p.Digest.Sum)
}

// Verify hashes data and compares it against the pin.
func (p Pin) Verify(data []byte) bool {
	return p.Digest.Verify(data)
}

package cutset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/quarkfold/cutflow/internal/track"
)

// DomainConfig is the domain prefix for config fingerprints. The
// version suffix allows an algorithm migration without colliding with
// old identities.
const DomainConfig = "cutflow/config/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data). The null
// separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalBody returns the canonical JSON form of the config, the
// exact bytes stored and fingerprinted.
func (c *Config) CanonicalBody() ([]byte, error) {
	body, err := MarshalCanonical(c.normalized())
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Name, err)
	}
	return body, nil
}

// Fingerprint returns the content-addressed identity of the config:
// hex SHA-256 over the domain-separated canonical body. Stable across
// processes, re-encodings and field reorderings.
func (c *Config) Fingerprint() (string, error) {
	body, err := c.CanonicalBody()
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainConfig, body), nil
}

// MustFingerprint is Fingerprint for inputs known to be valid. Use in
// tests.
func MustFingerprint(c *Config) string {
	fp, err := c.Fingerprint()
	if err != nil {
		panic(err)
	}
	return fp
}

// CanonicalRecord renders a track record into canonical JSON. The store
// persists candidate observables in this form so replay reads back
// byte-identical input.
func CanonicalRecord(r *track.Record) ([]byte, error) {
	return MarshalCanonical(r)
}

// Package attest seals report bytes in a signed or explicitly unsigned
// envelope so downstream consumers can verify what a run actually recorded.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gowebpki/jcs"
)

// CheckName is the reserved record name the sealing stage reports under.
const CheckName = "attestation"

const PayloadType = "application/vnd.devguard.report+json"

type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// Envelope wraps the RFC 8785 canonical form of the report as its payload.
// Unsigned envelopes are tagged in their own metadata (Signed=false, no
// signatures) so nobody mistakes them for a trust assertion.
type Envelope struct {
	PayloadType   string      `json:"payload_type"`
	Payload       string      `json:"payload"`
	PayloadDigest string      `json:"payload_digest"`
	Signed        bool        `json:"signed"`
	Signatures    []Signature `json:"signatures,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Seal canonicalizes reportBytes and wraps them. A nil key produces the
// unsigned variant; callers decide whether that is a SKIP (no key
// configured) or never reached (key configured but unloadable is a hard
// error upstream).
func Seal(reportBytes []byte, key ed25519.PrivateKey, now time.Time) (*Envelope, error) {
	canonical, err := jcs.Transform(reportBytes)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	digest := sha256.Sum256(canonical)

	env := &Envelope{
		PayloadType:   PayloadType,
		Payload:       base64.StdEncoding.EncodeToString(canonical),
		PayloadDigest: hex.EncodeToString(digest[:]),
		CreatedAt:     now.UTC(),
	}

	if key == nil {
		return env, nil
	}

	sig := ed25519.Sign(key, canonical)
	pub := key.Public().(ed25519.PublicKey)
	env.Signed = true
	env.Signatures = []Signature{{
		KeyID: KeyID(pub),
		Sig:   base64.StdEncoding.EncodeToString(sig),
	}}
	return env, nil
}

// Verify checks the payload digest and, for signed envelopes, the signature
// against pub. Unsigned envelopes verify their digest only and return
// ErrUnsigned so callers cannot silently treat them as trusted.
func Verify(env *Envelope, pub ed25519.PublicKey) error {
	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	digest := sha256.Sum256(payload)
	if hex.EncodeToString(digest[:]) != env.PayloadDigest {
		return fmt.Errorf("payload digest mismatch")
	}

	if !env.Signed {
		return ErrUnsigned
	}
	if len(env.Signatures) == 0 {
		return fmt.Errorf("envelope marked signed but carries no signatures")
	}
	for _, s := range env.Signatures {
		sig, err := base64.StdEncoding.DecodeString(s.Sig)
		if err != nil {
			return fmt.Errorf("decode signature: %w", err)
		}
		if !ed25519.Verify(pub, payload, sig) {
			return fmt.Errorf("signature %s does not verify", s.KeyID)
		}
	}
	return nil
}

var ErrUnsigned = fmt.Errorf("envelope is unsigned")

// KeyID is the hex SHA-256 of the public key bytes.
func KeyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}

// Persist writes the envelope next to the report it wraps.
func (e *Envelope) Persist(dir, reportFilename string) (string, error) {
	raw, err := marshalEnvelope(e)
	if err != nil {
		return "", err
	}
	name := reportFilename[:len(reportFilename)-len(filepath.Ext(reportFilename))] + ".att.json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write envelope: %w", err)
	}
	return path, nil
}

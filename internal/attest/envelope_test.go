package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sealTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestSeal_SignedRoundTrip(t *testing.T) {
	pub, priv := testKey(t)
	env, err := Seal([]byte(`{"b": 2, "a": 1}`), priv, sealTime)
	require.NoError(t, err)

	assert.Equal(t, PayloadType, env.PayloadType)
	assert.True(t, env.Signed)
	require.Len(t, env.Signatures, 1)
	assert.Equal(t, KeyID(pub), env.Signatures[0].KeyID)
	assert.Equal(t, sealTime, env.CreatedAt)

	assert.NoError(t, Verify(env, pub))
}

func TestSeal_CanonicalizesPayload(t *testing.T) {
	_, priv := testKey(t)

	// Key order and whitespace must not matter: both forms seal to the
	// same canonical payload and digest.
	a, err := Seal([]byte(`{"b": 2, "a": 1}`), priv, sealTime)
	require.NoError(t, err)
	b, err := Seal([]byte("{\"a\":1,\n  \"b\":2}"), priv, sealTime)
	require.NoError(t, err)

	assert.Equal(t, a.Payload, b.Payload)
	assert.Equal(t, a.PayloadDigest, b.PayloadDigest)

	payload, err := base64.StdEncoding.DecodeString(a.Payload)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(payload))
}

func TestSeal_RejectsInvalidJSON(t *testing.T) {
	_, err := Seal([]byte("not json"), nil, sealTime)
	assert.Error(t, err)
}

func TestSeal_UnsignedVariant(t *testing.T) {
	env, err := Seal([]byte(`{"a":1}`), nil, sealTime)
	require.NoError(t, err)

	assert.False(t, env.Signed)
	assert.Empty(t, env.Signatures)
	assert.NotEmpty(t, env.PayloadDigest)

	// Digest still verifies, but callers are told there is no signature.
	assert.ErrorIs(t, Verify(env, nil), ErrUnsigned)
}

func TestVerify_TamperedPayload(t *testing.T) {
	pub, priv := testKey(t)
	env, err := Seal([]byte(`{"passed":true}`), priv, sealTime)
	require.NoError(t, err)

	env.Payload = base64.StdEncoding.EncodeToString([]byte(`{"passed":false}`))
	err = Verify(env, pub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestVerify_WrongKey(t *testing.T) {
	_, priv := testKey(t)
	otherPub, _ := testKey(t)

	env, err := Seal([]byte(`{"a":1}`), priv, sealTime)
	require.NoError(t, err)

	assert.Error(t, Verify(env, otherPub))
}

func TestVerify_SignedButNoSignatures(t *testing.T) {
	pub, priv := testKey(t)
	env, err := Seal([]byte(`{"a":1}`), priv, sealTime)
	require.NoError(t, err)

	env.Signatures = nil
	assert.Error(t, Verify(env, pub))
}

func TestGenerateKeyPair_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	privPath, pubPath, err := GenerateKeyPair(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devguard.key"), privPath)
	assert.Equal(t, filepath.Join(dir, "devguard.pub"), pubPath)

	info, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	priv, err := LoadPrivateKey(privPath)
	require.NoError(t, err)
	pub, err := LoadPublicKey(pubPath)
	require.NoError(t, err)

	env, err := Seal([]byte(`{"a":1}`), priv, sealTime)
	require.NoError(t, err)
	assert.NoError(t, Verify(env, pub))
}

func TestLoadPrivateKey_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrivateKey(filepath.Join(dir, "absent.key"))
		assert.Error(t, err)
	})

	t.Run("not PEM", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.key")
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
		_, err := LoadPrivateKey(path)
		assert.Error(t, err)
	})

	t.Run("public key in private slot", func(t *testing.T) {
		_, pubPath, err := GenerateKeyPair(t.TempDir())
		require.NoError(t, err)
		_, err = LoadPrivateKey(pubPath)
		assert.Error(t, err)
	})
}

func TestEnvelope_Persist(t *testing.T) {
	_, priv := testKey(t)
	env, err := Seal([]byte(`{"a":1}`), priv, sealTime)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := env.Persist(dir, "devguard-report-20260314-092653-0123456789ab.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devguard-report-20260314-092653-0123456789ab.att.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Envelope
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, env.PayloadDigest, got.PayloadDigest)
	assert.True(t, got.Signed)
}

package crypto_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/crypto"
)

func TestKey_EncodeParse(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)

	got, err := crypto.ParseKey(crypto.EncodeKey(k) + "\n")
	require.NoError(t, err)
	require.Equal(t, k, got)
}

func TestParseKey_Rejects(t *testing.T) {
	_, err := crypto.ParseKey("zz")
	require.Error(t, err)

	_, err = crypto.ParseKey(strings.Repeat("ab", 31))
	require.ErrorIs(t, err, crypto.ErrKeySize)
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, crypto.SaltBytes)

	a, err := crypto.DeriveKey("correct horse", salt)
	require.NoError(t, err)
	b, err := crypto.DeriveKey("correct horse", salt)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := crypto.DeriveKey("battery staple", salt)
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	_, err = crypto.DeriveKey("", salt)
	require.Error(t, err)
	_, err = crypto.DeriveKey("x", salt[:3])
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a, err := crypto.GenerateKey()
	require.NoError(t, err)
	b, err := crypto.GenerateKey()
	require.NoError(t, err)

	fp := crypto.Fingerprint(a)
	require.Len(t, fp, 20)
	require.Equal(t, fp, crypto.Fingerprint(a))
	require.NotEqual(t, fp, crypto.Fingerprint(b))
	require.NotContains(t, crypto.EncodeKey(a), fp)
}

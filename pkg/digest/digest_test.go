package digest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/digest"
)

func TestHashSHA256KnownVector(t *testing.T) {
	// SHA-256("abc") is a well known test vector.
	got, err := digest.Hash(digest.SHA256, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0", got)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := digest.Sum(digest.Alg("sha-1"), []byte("x"))
	require.ErrorIs(t, err, digest.ErrUnsupportedDigest)
}

func TestBase64URLRoundTrip(t *testing.T) {
	data := []byte{0x00, 0xFF, 0x10, 0x20, 0x30}
	enc := digest.Base64URLEncode(data)
	require.NotContains(t, enc, "=")
	dec, err := digest.Base64URLDecode(enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestDefaultProviderMatchesSum(t *testing.T) {
	var p digest.Provider = digest.DefaultProvider{}
	got, err := p.Sum(digest.SHA256, []byte("abc"))
	require.NoError(t, err)
	want, _ := digest.Sum(digest.SHA256, []byte("abc"))
	require.Equal(t, want, got)
}

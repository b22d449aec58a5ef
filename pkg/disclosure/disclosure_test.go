package disclosure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/disclosure"
)

// fixedRng yields the same byte sequence every Read, for deterministic
// salt generation in tests.
type fixedRng struct {
	b []byte
}

func (r fixedRng) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = r.b[i%len(r.b)]
	}
	return len(b), nil
}

func TestDisclosureHashMatchesHashOfCanonicalString(t *testing.T) {
	// Literal scenario: a disclosure whose compact form is given
	// verbatim; its digest must equal base64url(SHA256(utf8(compact))).
	const compact = "WyJfMjZiYzRMVC1hYzZxMktJNmNCVzVlcyIsICJmYW1pbHlfbmFtZSIsICJNw7ZiaXVzIl0"

	d, err := disclosure.Parse(compact, digest.SHA256)
	require.NoError(t, err)

	want, err := digest.Hash(digest.SHA256, []byte(compact))
	require.NoError(t, err)
	require.Equal(t, want, d.Digest())

	name, ok := nameOf(d)
	require.True(t, ok)
	require.Equal(t, "family_name", name)
}

func nameOf(d disclosure.Disclosure) (string, bool) {
	if d.Name == nil {
		return "", false
	}
	return *d.Name, true
}

func TestNewIsDeterministicGivenSameRngAndInputs(t *testing.T) {
	rng := fixedRng{b: []byte{0x01, 0x02, 0x03, 0x04}}
	name := "given_name"

	d1, err := disclosure.New(&name, "Alice", digest.SHA256, rng, 128)
	require.NoError(t, err)
	d2, err := disclosure.New(&name, "Alice", digest.SHA256, rng, 128)
	require.NoError(t, err)

	require.Equal(t, d1.Compact(), d2.Compact())
	require.Equal(t, d1.Digest(), d2.Digest())
}

func TestNewArrayElementHasNoName(t *testing.T) {
	rng := disclosure.CryptoRand{}
	d, err := disclosure.New(nil, "US", digest.SHA256, rng, 128)
	require.NoError(t, err)
	require.True(t, d.IsArrayElement())
}

func TestParseRejectsMalformedSegment(t *testing.T) {
	_, err := disclosure.Parse("not-valid-base64url!!", digest.SHA256)
	require.ErrorIs(t, err, disclosure.ErrMalformedDisclosure)

	_, err = disclosure.Parse("", digest.SHA256)
	require.ErrorIs(t, err, disclosure.ErrMalformedDisclosure)
}

func TestParseRoundTripsCompactAndDigest(t *testing.T) {
	rng := disclosure.CryptoRand{}
	name := "family_name"
	d, err := disclosure.New(&name, "Möbius", digest.SHA256, rng, 128)
	require.NoError(t, err)

	parsed, err := disclosure.Parse(d.Compact(), digest.SHA256)
	require.NoError(t, err)
	require.Equal(t, d.Digest(), parsed.Digest())
	require.Equal(t, d.Compact(), parsed.Compact())
}

func TestSaltSizeMustBeMultipleOf8(t *testing.T) {
	name := "x"
	_, err := disclosure.New(&name, 1, digest.SHA256, disclosure.CryptoRand{}, 5)
	require.Error(t, err)
}

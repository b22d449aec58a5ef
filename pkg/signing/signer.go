// Package signing abstracts the signing and verification capabilities
// an issuer or holder needs to produce and check compact JWS
// structures, so credential logic never depends on where a private key
// actually lives (in memory, in an HSM, or behind a cloud KMS).
package signing

import "context"

// Signer produces raw signatures over pre-hashed-or-not payloads for a
// single key. Implementations back it with software keys, a PKCS#11
// module, or any other key custodian.
type Signer interface {
	// Sign returns the signature over data using this key's algorithm.
	Sign(ctx context.Context, data []byte) ([]byte, error)

	// Algorithm returns the JOSE algorithm identifier (e.g. "ES256").
	Algorithm() string

	// KeyID is placed in the JWS "kid" header.
	KeyID() string

	// PublicKey returns the key's public half, typically *ecdsa.PublicKey
	// or *rsa.PublicKey, for JWK export or local verification.
	PublicKey() any
}

// Verifier checks a signature produced by the counterpart of some
// Signer, without needing to hold or construct that Signer itself.
type Verifier interface {
	// Verify reports whether sig is a valid signature over data for
	// the given JOSE algorithm.
	Verify(alg string, data, sig []byte) error
}

package signing

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// PublicJWK converts a Signer's public key into a JWK map suitable for
// embedding in a credential's `cnf.jwk` confirmation claim or an
// issuer's published key set.
func PublicJWK(s Signer) (map[string]any, error) {
	key, err := jwk.Import(s.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("signing: importing public key as JWK: %w", err)
	}
	if s.KeyID() != "" {
		if err := key.Set(jwk.KeyIDKey, s.KeyID()); err != nil {
			return nil, fmt.Errorf("signing: setting JWK kid: %w", err)
		}
	}
	if err := key.Set(jwk.AlgorithmKey, s.Algorithm()); err != nil {
		return nil, fmt.Errorf("signing: setting JWK alg: %w", err)
	}

	raw, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("signing: marshaling JWK: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("signing: decoding JWK as map: %w", err)
	}
	return m, nil
}

// PublicKeyFromJWK converts a `cnf.jwk`-shaped map back into a Go
// public key (*ecdsa.PublicKey or *rsa.PublicKey) for local signature
// verification.
func PublicKeyFromJWK(m map[string]any) (any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("signing: encoding JWK map: %w", err)
	}
	key, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("signing: parsing JWK: %w", err)
	}

	var ecKey ecdsa.PublicKey
	if err := jwk.Export(key, &ecKey); err == nil {
		return &ecKey, nil
	}
	var rsaKey rsa.PublicKey
	if err := jwk.Export(key, &rsaKey); err == nil {
		return &rsaKey, nil
	}
	return nil, fmt.Errorf("signing: JWK is neither an EC nor RSA public key")
}

// jwtVerifier adapts a raw public key and JOSE algorithm name into
// this package's Verifier capability, backed by golang-jwt's
// per-algorithm verification rather than re-implementing ECDSA/RSA
// signature checks.
type jwtVerifier struct {
	key any
}

// NewJWTVerifier returns a Verifier checking signatures against key
// (an *ecdsa.PublicKey or *rsa.PublicKey).
func NewJWTVerifier(key any) Verifier {
	return jwtVerifier{key: key}
}

// Verify implements Verifier.
func (v jwtVerifier) Verify(alg string, data, sig []byte) error {
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return fmt.Errorf("signing: unknown JOSE algorithm %q", alg)
	}
	return method.Verify(string(data), sig, v.key)
}

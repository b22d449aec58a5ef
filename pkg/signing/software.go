package signing

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// SoftwareSigner signs with an in-memory private key. It is the
// default used by the demonstration CLI and by tests that do not need
// HSM-backed keys.
type SoftwareSigner struct {
	privateKey crypto.Signer
	publicKey  any
	algorithm  string
	keyID      string
}

// NewSoftwareSigner wraps privateKey (an *ecdsa.PrivateKey or
// *rsa.PrivateKey) as a Signer identified by keyID. The JOSE algorithm
// is derived from the key's curve or modulus size.
func NewSoftwareSigner(privateKey any, keyID string) (*SoftwareSigner, error) {
	s := &SoftwareSigner{keyID: keyID}

	switch key := privateKey.(type) {
	case *rsa.PrivateKey:
		s.privateKey = key
		s.publicKey = &key.PublicKey
		s.algorithm = rsaAlgorithm(key)
	case *ecdsa.PrivateKey:
		s.privateKey = key
		s.publicKey = &key.PublicKey
		s.algorithm = ecdsaAlgorithm(key)
	default:
		return nil, fmt.Errorf("signing: unsupported private key type %T", privateKey)
	}
	return s, nil
}

// Sign implements Signer.
func (s *SoftwareSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	switch key := s.privateKey.(type) {
	case *rsa.PrivateKey:
		return signRSA(s.algorithm, key, data)
	case *ecdsa.PrivateKey:
		return signECDSA(s.algorithm, key, data)
	default:
		return nil, fmt.Errorf("signing: unsupported private key type %T", s.privateKey)
	}
}

// Algorithm implements Signer.
func (s *SoftwareSigner) Algorithm() string { return s.algorithm }

// KeyID implements Signer.
func (s *SoftwareSigner) KeyID() string { return s.keyID }

// PublicKey implements Signer.
func (s *SoftwareSigner) PublicKey() any { return s.publicKey }

func signRSA(alg string, key *rsa.PrivateKey, data []byte) ([]byte, error) {
	h := rsaHash(alg).New()
	h.Write(data)
	return rsa.SignPKCS1v15(rand.Reader, key, rsaHash(alg), h.Sum(nil))
}

func signECDSA(alg string, key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	h := ecdsaHash(alg).New()
	h.Write(data)
	r, s, err := ecdsa.Sign(rand.Reader, key, h.Sum(nil))
	if err != nil {
		return nil, err
	}

	// JOSE wants a fixed-width big-endian R||S pair, not the ASN.1 DER
	// sequence crypto/ecdsa's Sign return values would imply.
	size := (key.Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*size)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[size-len(rBytes):size], rBytes)
	copy(sig[2*size-len(sBytes):], sBytes)
	return sig, nil
}

func rsaAlgorithm(key *rsa.PrivateKey) string {
	switch {
	case key.N.BitLen() >= 4096:
		return "RS512"
	case key.N.BitLen() >= 3072:
		return "RS384"
	default:
		return "RS256"
	}
}

func ecdsaAlgorithm(key *ecdsa.PrivateKey) string {
	switch key.Curve.Params().BitSize {
	case 384:
		return "ES384"
	case 521:
		return "ES512"
	default:
		return "ES256"
	}
}

func rsaHash(alg string) crypto.Hash {
	switch alg {
	case "RS384":
		return crypto.SHA384
	case "RS512":
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

func ecdsaHash(alg string) crypto.Hash {
	switch alg {
	case "ES384":
		return crypto.SHA384
	case "ES512":
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

package sdjwt

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/signing"
)

// PresentInput gathers the parameters Present needs.
type PresentInput struct {
	SdJwt        SdJwt
	KbSigner     signing.Signer
	Nonce        string
	Audience     string
	CreationTime time.Time
}

// Present appends a key-binding JWT to a (typically filtered) SdJwt,
// proving possession of the private key matching the body's cnf.jwk.
// The holder's compact SD-JWT is concatenated directly with the
// KB-JWT: the trailing tilde of the SD-JWT is kept, not stripped.
func Present(ctx context.Context, in PresentInput) (SdJwtKb, error) {
	if in.KbSigner == nil {
		return SdJwtKb{}, fmt.Errorf("sdjwt: Present requires a KbSigner")
	}

	cnf, _ := in.SdJwt.Body["cnf"].(map[string]any)
	jwkClaim, _ := cnf["jwk"].(map[string]any)
	if jwkClaim == nil {
		return SdJwtKb{}, fmt.Errorf("%w: SD-JWT body has no cnf.jwk", ErrKeyMismatch)
	}
	boundKey, err := signing.PublicKeyFromJWK(jwkClaim)
	if err != nil {
		return SdJwtKb{}, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
	}
	if !publicKeysEqual(boundKey, in.KbSigner.PublicKey()) {
		return SdJwtKb{}, ErrKeyMismatch
	}

	sdHash, err := digest.Hash(in.SdJwt.DigestAlg, []byte(in.SdJwt.Compact))
	if err != nil {
		return SdJwtKb{}, err
	}

	kbBody := map[string]any{
		"nonce":   in.Nonce,
		"aud":     in.Audience,
		"iat":     in.CreationTime.Unix(),
		"sd_hash": sdHash,
	}
	kbHeader := map[string]any{
		"typ": "kb+jwt",
		"alg": in.KbSigner.Algorithm(),
		"x5c": nil,
	}

	kbJwt, sigBytes, err := signCompactJwt(ctx, in.KbSigner, kbHeader, kbBody)
	if err != nil {
		return SdJwtKb{}, err
	}

	return SdJwtKb{
		SdJwt:            in.SdJwt,
		KBHeader:         kbHeader,
		KBBody:           kbBody,
		KBSignatureBytes: sigBytes,
		Compact:          in.SdJwt.Compact + kbJwt,
	}, nil
}

// publicKeysEqual compares two public keys (*ecdsa.PublicKey or
// *rsa.PublicKey, both of which implement crypto.PublicKey's informal
// Equal method in the standard library) for the cnf.jwk key-match
// check Present and issuers of key-bound credentials both need.
func publicKeysEqual(a, b any) bool {
	ae, ok := a.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return false
	}
	bk, ok := b.(crypto.PublicKey)
	if !ok {
		return false
	}
	return ae.Equal(bk)
}

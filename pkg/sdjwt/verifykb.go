package sdjwt

import (
	"fmt"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/signing"
)

// VerifyKbInput gathers the parameters VerifyKb needs. The three
// predicates are caller-supplied rather than built in, so the engine
// never embeds a Clock or a fixed notion of "the right audience" — see
// the deliberate split between Verify (no time checks) and VerifyKb
// (time/nonce/audience are the caller's policy).
type VerifyKbInput struct {
	Compact           string
	IssuerVerifier    signing.Verifier
	CheckNonce        func(nonce string) bool
	CheckAudience     func(aud string) bool
	CheckCreationTime func(iat int64) bool
}

// VerifyKb parses and fully verifies an SD-JWT+KB compact form: the
// key-binding signature, the sd_hash binding to the presented SD-JWT,
// the caller's nonce/audience/creation-time predicates, and finally
// the issuer signature over the SD-JWT itself. On success it returns
// the fully resolved claim object.
func VerifyKb(in VerifyKbInput) (map[string]any, error) {
	kb, err := ParseKb(in.Compact)
	if err != nil {
		return nil, err
	}

	cnf, _ := kb.SdJwt.Body["cnf"].(map[string]any)
	jwkClaim, _ := cnf["jwk"].(map[string]any)
	if jwkClaim == nil {
		return nil, fmt.Errorf("%w: SD-JWT body has no cnf.jwk", ErrSignatureVerification)
	}
	boundKey, err := signing.PublicKeyFromJWK(jwkClaim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	kbVerifier := signing.NewJWTVerifier(boundKey)
	if err := verifyCompactJwt(kbVerifier, kb.KBHeader, kb.KBBody, kb.KBSignatureBytes); err != nil {
		return nil, err
	}

	expectedHash, err := digest.Hash(kb.SdJwt.DigestAlg, []byte(kb.SdJwt.Compact))
	if err != nil {
		return nil, err
	}
	gotHash, _ := kb.KBBody["sd_hash"].(string)
	if gotHash == "" || gotHash != expectedHash {
		return nil, ErrSdHashMismatch
	}

	if in.CheckNonce != nil {
		nonce, _ := kb.KBBody["nonce"].(string)
		if !in.CheckNonce(nonce) {
			return nil, ErrNonceRejected
		}
	}
	if in.CheckAudience != nil {
		aud, _ := kb.KBBody["aud"].(string)
		if !in.CheckAudience(aud) {
			return nil, ErrAudienceRejected
		}
	}
	if in.CheckCreationTime != nil {
		iat := asInt64(kb.KBBody["iat"])
		if !in.CheckCreationTime(iat) {
			return nil, ErrCreationTimeRejected
		}
	}

	return Verify(kb.SdJwt, in.IssuerVerifier)
}

// asInt64 accepts both json.Number-free float64 (the encoding/json
// default for numeric literals) and int64, since KBBody values already
// round-tripped through interface{} by the time VerifyKb reads them.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

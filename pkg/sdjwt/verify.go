package sdjwt

import "github.com/nordicid/credcore/pkg/signing"

// Verify checks the issuer signature over s and resolves its claims,
// splicing every disclosure reachable from the body's `_sd`/`...`
// references. It does not enforce exp/nbf/iat: callers that need time
// checks apply them to the returned claims themselves, or use VerifyKb
// for the key-binding flow where time predicates are first-class.
func Verify(s SdJwt, verifier signing.Verifier) (map[string]any, error) {
	if err := verifyCompactJwt(verifier, s.Header, s.Body, s.SignatureBytes); err != nil {
		return nil, err
	}
	return resolve(s.Body, s.Disclosures, s.DigestAlg, nil)
}

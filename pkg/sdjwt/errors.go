package sdjwt

import "errors"

// Sentinel errors named after the error taxonomy this engine implements.
// Use errors.Is to classify a failure; wrapped errors carry additional
// context via fmt.Errorf("...: %w", ...).
var (
	// Parse errors.
	ErrMalformedJwt         = errors.New("sdjwt: malformed JWT")
	ErrMalformedCompactSd   = errors.New("sdjwt: malformed compact SD-JWT")
	ErrMissingTrailingTilde = errors.New("sdjwt: compact form is missing its trailing tilde")

	// Crypto errors.
	ErrSignatureVerification = errors.New("sdjwt: signature verification failed")
	ErrUnsupportedAlg        = errors.New("sdjwt: unsupported signing algorithm")

	// Semantic errors.
	ErrForbiddenSdClaim           = errors.New("sdjwt: claim name is forbidden in the selectively disclosable set")
	ErrDuplicateClaim             = errors.New("sdjwt: disclosure would duplicate an existing claim")
	ErrIllegalDisclosureClaimName = errors.New("sdjwt: disclosure claim name is reserved")
	ErrKeyMismatch                = errors.New("sdjwt: key-binding signer does not match cnf.jwk")
	ErrSdHashMismatch             = errors.New("sdjwt: sd_hash does not match the presented SD-JWT")

	// Verifier-policy errors.
	ErrNonceRejected        = errors.New("sdjwt: nonce rejected")
	ErrAudienceRejected     = errors.New("sdjwt: audience rejected")
	ErrCreationTimeRejected = errors.New("sdjwt: creation time rejected")
)

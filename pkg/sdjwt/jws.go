package sdjwt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nordicid/credcore/pkg/signing"
)

func b64JSON(v map[string]any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sdjwt: marshaling JSON: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// mustB64JSON is used only where v is known to be marshalable: it was
// either built by this package or decoded from JSON by b64JSONDecode,
// and both kinds of map always re-marshal.
func mustB64JSON(v map[string]any) string {
	s, err := b64JSON(v)
	if err != nil {
		panic(err)
	}
	return s
}

func b64JSONDecode(s string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJwt, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJwt, err)
	}
	return m, nil
}

// signCompactJwt builds and signs "base64url(header).base64url(body)",
// returning the full three-part compact JWS and the raw signature.
func signCompactJwt(ctx context.Context, signer signing.Signer, header, body map[string]any) (compact string, sig []byte, err error) {
	signingInput := jwtCompact(header, body)
	sig, err = signer.Sign(ctx, []byte(signingInput))
	if err != nil {
		return "", nil, fmt.Errorf("sdjwt: signing JWT: %w", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), sig, nil
}

// splitCompactJwt parses a three-part dot-delimited compact JWS into
// its header, body, and raw signature.
func splitCompactJwt(compact string) (header, body map[string]any, sig []byte, err error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, nil, nil, fmt.Errorf("%w: expected 3 dot-delimited parts, got %d", ErrMalformedJwt, len(parts))
	}
	header, err = b64JSONDecode(parts[0])
	if err != nil {
		return nil, nil, nil, err
	}
	body, err = b64JSONDecode(parts[1])
	if err != nil {
		return nil, nil, nil, err
	}
	sig, err = base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: signature: %v", ErrMalformedJwt, err)
	}
	return header, body, sig, nil
}

// verifyCompactJwt checks a split JWT's signature with verifier,
// using the alg named in header.
func verifyCompactJwt(verifier signing.Verifier, header, body map[string]any, sig []byte) error {
	alg, _ := header["alg"].(string)
	if alg == "" {
		return fmt.Errorf("%w: missing alg header", ErrMalformedJwt)
	}
	signingInput := jwtCompact(header, body)
	if err := verifier.Verify(alg, []byte(signingInput), sig); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	return nil
}

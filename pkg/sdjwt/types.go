package sdjwt

import "github.com/nordicid/credcore/pkg/digest"

// SdJwt is an issuer-signed SD-JWT together with the disclosures that
// travel alongside it. It is produced by Issue, Filter, or Parse, and
// is immutable afterwards.
type SdJwt struct {
	// Compact is the full `jwt~d1~d2~...~` wire form, trailing tilde
	// included.
	Compact string

	Header map[string]any
	Body   map[string]any

	// SignatureBytes is the raw (non-base64url) issuer signature over
	// "header.body".
	SignatureBytes []byte

	DigestAlg digest.Alg

	// Disclosures maps a disclosure's digest to its canonical
	// (base64url) compact string. The map itself is unordered; use
	// DisclosuresInOrder for emission order.
	Disclosures     map[string]string
	disclosureOrder []string
}

// DisclosuresInOrder returns the disclosure canonical strings in
// issuance/traversal order, matching the order they appear in Compact.
func (s SdJwt) DisclosuresInOrder() []string {
	out := make([]string, 0, len(s.disclosureOrder))
	for _, h := range s.disclosureOrder {
		out = append(out, s.Disclosures[h])
	}
	return out
}

// SignedBytes returns the exact bytes the issuer signature was
// computed over: "base64url(header).base64url(body)".
func (s SdJwt) SignedBytes() []byte {
	return []byte(jwtCompact(s.Header, s.Body))
}

// SdJwtKb is an SdJwt presented together with a key-binding JWT proving
// possession of the cnf.jwk private key.
type SdJwtKb struct {
	SdJwt

	KBHeader         map[string]any
	KBBody           map[string]any
	KBSignatureBytes []byte

	// Compact is the full SD-JWT+KB wire form: the SD-JWT's compact
	// form (trailing tilde intact) with the KB-JWT appended directly,
	// no tilde stripped.
	Compact string
}

// jwtCompact joins header and body as the unsigned
// "base64url(header).base64url(body)" signing input.
func jwtCompact(header, body map[string]any) string {
	h := mustB64JSON(header)
	b := mustB64JSON(body)
	return h + "." + b
}

package sdjwt

import (
	"fmt"
	"strings"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/disclosure"
)

// Parse decodes a compact SD-JWT. The trailing tilde is mandatory;
// its absence is reported as ErrMissingTrailingTilde rather than the
// more general ErrMalformedCompactSd, since it is the single most
// common producer bug.
func Parse(compact string) (SdJwt, error) {
	if !strings.HasSuffix(compact, "~") {
		return SdJwt{}, ErrMissingTrailingTilde
	}
	segments := strings.Split(compact, "~")
	// A trailing "~" always yields a final empty segment from Split.
	segments = segments[:len(segments)-1]
	if len(segments) == 0 {
		return SdJwt{}, fmt.Errorf("%w: no JWT segment", ErrMalformedCompactSd)
	}

	header, body, sig, err := splitCompactJwt(segments[0])
	if err != nil {
		return SdJwt{}, err
	}

	alg := digest.SHA256
	if raw, ok := body["_sd_alg"].(string); ok && raw != "" {
		alg = digest.Alg(raw)
	}

	table := map[string]string{}
	order := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if seg == "" {
			return SdJwt{}, fmt.Errorf("%w: empty disclosure segment", ErrMalformedCompactSd)
		}
		d, err := disclosure.Parse(seg, alg)
		if err != nil {
			return SdJwt{}, fmt.Errorf("%w: %v", ErrMalformedCompactSd, err)
		}
		table[d.Digest()] = d.Compact()
		order = append(order, d.Digest())
	}

	return SdJwt{
		Compact:         compact,
		Header:          header,
		Body:            body,
		SignatureBytes:  sig,
		DigestAlg:       alg,
		Disclosures:     table,
		disclosureOrder: order,
	}, nil
}

// ParseKb decodes a compact SD-JWT+KB: an SD-JWT (trailing tilde
// intact) with a KB-JWT concatenated directly after it, no tilde
// stripped.
func ParseKb(compact string) (SdJwtKb, error) {
	if strings.HasSuffix(compact, "~") {
		return SdJwtKb{}, fmt.Errorf("%w: compact form ends with '~', which is an SD-JWT, not SD-JWT+KB", ErrMalformedCompactSd)
	}
	idx := strings.LastIndex(compact, "~")
	if idx < 0 {
		return SdJwtKb{}, fmt.Errorf("%w: no '~' separating SD-JWT from KB-JWT", ErrMalformedCompactSd)
	}

	sdPart := compact[:idx+1] // include the tilde
	kbPart := compact[idx+1:]

	sd, err := Parse(sdPart)
	if err != nil {
		return SdJwtKb{}, err
	}
	kbHeader, kbBody, kbSig, err := splitCompactJwt(kbPart)
	if err != nil {
		return SdJwtKb{}, err
	}

	return SdJwtKb{
		SdJwt:            sd,
		KBHeader:         kbHeader,
		KBBody:           kbBody,
		KBSignatureBytes: kbSig,
		Compact:          compact,
	}, nil
}

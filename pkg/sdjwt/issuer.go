package sdjwt

import (
	"context"
	"fmt"
	"sort"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/disclosure"
	"github.com/nordicid/credcore/pkg/signing"
)

// forbiddenSdClaims is the closed set of claim names that may never be
// hidden behind a disclosure, at any level of the claim tree.
var forbiddenSdClaims = map[string]bool{
	"iss": true,
	"exp": true,
	"nbf": true,
	"cnf": true,
	"aud": true,
}

// IssueInput gathers the parameters Issue needs. Grouped into a struct
// because the operation takes more collaborators than read comfortably
// as positional arguments.
type IssueInput struct {
	Signer      signing.Signer
	Claims      map[string]any // selectively disclosable
	NonSdClaims map[string]any // always present; MUST include "iss"
	CnfJwk      map[string]any // holder key-binding public key, or nil
	X5c         []string       // base64 DER certificates, or nil
	Rng         disclosure.Rng
	Options     Options
}

// issuerState accumulates disclosures emitted while walking a claim
// tree, in the depth-first order insertClaim visits them.
type issuerState struct {
	alg   digest.Alg
	rng   disclosure.Rng
	salt  int
	order []string          // disclosure hashes, emission order
	table map[string]string // hash -> canonical compact string
}

// insertClaim implements the recursive claim-insertion algorithm: a
// primitive becomes a leaf disclosure; an object's sub-claims are
// hidden behind their own disclosures and replaced with an `_sd` list;
// an array's elements are each hidden behind a nameless disclosure and
// replaced with `{"...": hash}`. It returns the hash of the disclosure
// it creates for (name, value) itself.
func (st *issuerState) insertClaim(name *string, value any) (string, error) {
	switch v := value.(type) {
	case map[string]any:
		sdHashes, err := st.insertObjectMembers(v)
		if err != nil {
			return "", err
		}
		mapped := map[string]any{}
		if len(sdHashes) > 0 {
			mapped["_sd"] = sdHashes
		}
		return st.emit(name, mapped)
	case []any:
		mapped := make([]any, len(v))
		for i, elem := range v {
			h, err := st.insertClaim(nil, elem)
			if err != nil {
				return "", err
			}
			mapped[i] = map[string]any{"...": h}
		}
		return st.emit(name, mapped)
	default:
		return st.emit(name, value)
	}
}

// insertObjectMembers hides every member of obj behind its own
// disclosure and returns their hashes in sorted-key traversal order.
func (st *issuerState) insertObjectMembers(obj map[string]any) ([]any, error) {
	names := sortedKeys(obj)
	hashes := make([]any, 0, len(names))
	for _, name := range names {
		if forbiddenSdClaims[name] {
			return nil, fmt.Errorf("%w: %q", ErrForbiddenSdClaim, name)
		}
		n := name
		h, err := st.insertClaim(&n, obj[name])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func (st *issuerState) emit(name *string, value any) (string, error) {
	d, err := disclosure.New(name, value, st.alg, st.rng, st.salt)
	if err != nil {
		return "", err
	}
	st.order = append(st.order, d.Digest())
	st.table[d.Digest()] = d.Compact()
	return d.Digest(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Issue walks in.Claims, emitting a Disclosure for each selectively
// disclosable claim and its descendants, and returns the resulting
// issuer-signed SdJwt.
func Issue(ctx context.Context, in IssueInput) (SdJwt, error) {
	if err := in.Options.Validate(); err != nil {
		return SdJwt{}, err
	}
	if in.Signer == nil {
		return SdJwt{}, fmt.Errorf("sdjwt: Issue requires a Signer")
	}
	if _, ok := in.NonSdClaims["iss"]; !ok {
		return SdJwt{}, fmt.Errorf("sdjwt: non-selectively-disclosed claims must include \"iss\"")
	}
	rng := in.Rng
	if rng == nil {
		rng = disclosure.CryptoRand{}
	}

	st := &issuerState{
		alg:   in.Options.DigestAlg,
		rng:   rng,
		salt:  in.Options.SaltSizeBits,
		table: map[string]string{},
	}

	topHashes, err := st.insertObjectMembers(in.Claims)
	if err != nil {
		return SdJwt{}, err
	}

	body := map[string]any{}
	for k, v := range in.NonSdClaims {
		body[k] = v
	}
	if len(topHashes) > 0 {
		body["_sd"] = topHashes
	}
	body["_sd_alg"] = string(in.Options.DigestAlg)
	if in.CnfJwk != nil {
		body["cnf"] = map[string]any{"jwk": in.CnfJwk}
	}

	header := map[string]any{
		"typ": "dc+sd-jwt",
		"alg": in.Signer.Algorithm(),
	}
	if in.Signer.KeyID() != "" {
		header["kid"] = in.Signer.KeyID()
	}
	if in.Options.IncludeX5c && len(in.X5c) > 0 {
		x5c := make([]any, len(in.X5c))
		for i, c := range in.X5c {
			x5c[i] = c
		}
		header["x5c"] = x5c
	}

	jwtPart, sigBytes, err := signCompactJwt(ctx, in.Signer, header, body)
	if err != nil {
		return SdJwt{}, err
	}

	compact := jwtPart
	for _, h := range st.order {
		compact += "~" + st.table[h]
	}
	compact += "~"

	return SdJwt{
		Compact:         compact,
		Header:          header,
		Body:            body,
		SignatureBytes:  sigBytes,
		DigestAlg:       in.Options.DigestAlg,
		Disclosures:     st.table,
		disclosureOrder: st.order,
	}, nil
}

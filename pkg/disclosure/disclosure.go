// Package disclosure implements SD-JWT disclosures: the salted
// `[salt, name?, value]` triples that a holder reveals selectively, and
// the digest that anchors each one into an issuer-signed claim set.
package disclosure

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nordicid/credcore/pkg/digest"
)

// ErrMalformedDisclosure is returned when a compact disclosure segment
// does not decode to a well-formed [salt, name?, value] or [salt,
// value] JSON array.
var ErrMalformedDisclosure = errors.New("disclosure: malformed disclosure")

// Rng supplies the random salt bytes for new disclosures. Passed as a
// capability rather than read from a package-level source, so tests can
// substitute a deterministic sequence.
type Rng interface {
	// Read fills b with random bytes and never returns a short read.
	Read(b []byte) (int, error)
}

// CryptoRand is the Rng backed by crypto/rand.Reader.
type CryptoRand struct{}

// Read implements Rng.
func (CryptoRand) Read(b []byte) (int, error) {
	return rand.Read(b)
}

// Disclosure is one revealed claim or array element, together with its
// cached canonical string and digest so repeated use (issuance,
// filtering, presentation) never re-serializes or re-hashes it.
type Disclosure struct {
	Salt  string
	Name  *string // nil for an array-element disclosure
	Value any

	canonical string
	hash      string
	alg       digest.Alg
}

// New builds a fresh disclosure with a random salt. name is nil for an
// array-element disclosure (the compact JSON array then has two
// elements instead of three). saltSizeBits must be a positive multiple
// of 8; 128 is the SD-JWT-recommended minimum.
func New(name *string, value any, alg digest.Alg, rng Rng, saltSizeBits int) (Disclosure, error) {
	if saltSizeBits <= 0 || saltSizeBits%8 != 0 {
		return Disclosure{}, fmt.Errorf("disclosure: saltSizeBits must be a positive multiple of 8, got %d", saltSizeBits)
	}
	raw := make([]byte, saltSizeBits/8)
	if _, err := rng.Read(raw); err != nil {
		return Disclosure{}, fmt.Errorf("disclosure: generating salt: %w", err)
	}
	salt := digest.Base64URLEncode(raw)
	return build(salt, name, value, alg)
}

func build(salt string, name *string, value any, alg digest.Alg) (Disclosure, error) {
	var arr []any
	if name != nil {
		arr = []any{salt, *name, value}
	} else {
		arr = []any{salt, value}
	}
	raw, err := json.Marshal(arr)
	if err != nil {
		return Disclosure{}, fmt.Errorf("disclosure: marshaling: %w", err)
	}
	canonical := digest.Base64URLEncode(raw)
	h, err := digest.Hash(alg, []byte(canonical))
	if err != nil {
		return Disclosure{}, err
	}
	return Disclosure{Salt: salt, Name: name, Value: value, canonical: canonical, hash: h, alg: alg}, nil
}

// Compact returns the base64url-encoded canonical JSON string that
// appears verbatim as one `~`-delimited segment of a compact SD-JWT.
func (d Disclosure) Compact() string {
	return d.canonical
}

// Digest returns base64url(hash(Compact())) under the algorithm the
// disclosure was built or parsed with — the value placed in `_sd`
// arrays or `{"...": digest}` array entries.
func (d Disclosure) Digest() string {
	return d.hash
}

// Alg returns the hash algorithm used to produce Digest.
func (d Disclosure) Alg() digest.Alg {
	return d.alg
}

// Parse decodes a single compact disclosure segment (the base64url
// string between two `~` characters) and computes its digest under
// alg.
func Parse(s string, alg digest.Alg) (Disclosure, error) {
	if s == "" {
		return Disclosure{}, fmt.Errorf("%w: empty segment", ErrMalformedDisclosure)
	}
	raw, err := digest.Base64URLDecode(s)
	if err != nil {
		return Disclosure{}, fmt.Errorf("%w: %v", ErrMalformedDisclosure, err)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return Disclosure{}, fmt.Errorf("%w: %v", ErrMalformedDisclosure, err)
	}
	if len(arr) != 2 && len(arr) != 3 {
		return Disclosure{}, fmt.Errorf("%w: expected 2 or 3 elements, got %d", ErrMalformedDisclosure, len(arr))
	}

	var salt string
	if err := json.Unmarshal(arr[0], &salt); err != nil {
		return Disclosure{}, fmt.Errorf("%w: salt: %v", ErrMalformedDisclosure, err)
	}

	var name *string
	var valueRaw json.RawMessage
	if len(arr) == 3 {
		var n string
		if err := json.Unmarshal(arr[1], &n); err != nil {
			return Disclosure{}, fmt.Errorf("%w: claim name: %v", ErrMalformedDisclosure, err)
		}
		name = &n
		valueRaw = arr[2]
	} else {
		valueRaw = arr[1]
	}

	var value any
	if err := json.Unmarshal(valueRaw, &value); err != nil {
		return Disclosure{}, fmt.Errorf("%w: value: %v", ErrMalformedDisclosure, err)
	}

	d, err := build(salt, name, value, alg)
	if err != nil {
		return Disclosure{}, err
	}
	// Preserve the caller's exact on-wire bytes for re-serialization:
	// json.Marshal of the round-tripped value may reorder object keys
	// or reformat numbers, which would change Compact()/Digest() from
	// what the producer actually sent.
	d.canonical = s
	h, err := digest.Hash(alg, []byte(s))
	if err != nil {
		return Disclosure{}, err
	}
	d.hash = h
	return d, nil
}

// IsArrayElement reports whether this disclosure hides a bare array
// element (no claim name) rather than an object member.
func (d Disclosure) IsArrayElement() bool {
	return d.Name == nil
}

// String implements fmt.Stringer for debug output; it never prints the
// value, only the shape, since disclosed values may be sensitive.
func (d Disclosure) String() string {
	var sb strings.Builder
	sb.WriteString("Disclosure{salt=")
	sb.WriteString(d.Salt)
	if d.Name != nil {
		sb.WriteString(", name=")
		sb.WriteString(*d.Name)
	}
	sb.WriteString("}")
	return sb.String()
}

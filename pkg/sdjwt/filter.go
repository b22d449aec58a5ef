package sdjwt

import (
	"strings"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/disclosure"
)

// Selector chooses which disclosures a Filter call keeps. Exactly one
// of Paths or Predicate should be set; Predicate takes precedence if
// both are non-nil.
type Selector struct {
	// Paths are JSON-pointer-like claim paths (e.g. {"address",
	// "street"}); a disclosure is kept if its own resolved path starts
	// with one of these, compared on the dotted-joined form.
	Paths [][]string
	// Predicate, if set, is called with each disclosure's resolved
	// path and value; a true result keeps it.
	Predicate func(path []string, value any) bool
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}

// Filter selects a subset of s's disclosures per sel, then restores
// the referential closure required by the SD-JWT spec: any retained
// disclosure whose hash is only reachable through another disclosure's
// `_sd`/`...` reference pulls that outer disclosure back in. The
// issuer signature is unchanged; only the set of attached disclosures
// shrinks.
func Filter(s SdJwt, sel Selector) (SdJwt, error) {
	pathOf := map[string][]string{}
	valueOf := map[string]any{}
	visit := func(path []string, value any, hash string) {
		pathOf[hash] = append([]string{}, path...)
		valueOf[hash] = value
	}
	if _, err := resolve(s.Body, s.Disclosures, s.DigestAlg, visit); err != nil {
		return SdJwt{}, err
	}

	innerToOuter, err := innerToOuterMap(s.Disclosures, s.DigestAlg)
	if err != nil {
		return SdJwt{}, err
	}

	included := map[string]bool{}
	for hash := range s.Disclosures {
		path := pathOf[hash]
		value := valueOf[hash]
		if sel.Predicate != nil {
			if sel.Predicate(path, value) {
				included[hash] = true
			}
			continue
		}
		joined := joinPath(path)
		for _, want := range sel.Paths {
			if strings.HasPrefix(joined, joinPath(want)) {
				included[hash] = true
				break
			}
		}
	}

	// Referential closure: repeat until no new outer disclosure is
	// added, so every included hash is reachable from the signed body.
	for {
		added := false
		for hash := range included {
			outer, ok := innerToOuter[hash]
			if ok && !included[outer] {
				included[outer] = true
				added = true
			}
		}
		if !added {
			break
		}
	}

	kept := make([]string, 0, len(included))
	for _, h := range s.disclosureOrder {
		if included[h] {
			kept = append(kept, h)
		}
	}

	headerBody, err := splitJwtPart(s)
	if err != nil {
		return SdJwt{}, err
	}
	compact := headerBody
	keptTable := map[string]string{}
	for _, h := range kept {
		compact += "~" + s.Disclosures[h]
		keptTable[h] = s.Disclosures[h]
	}
	compact += "~"

	return SdJwt{
		Compact:         compact,
		Header:          s.Header,
		Body:            s.Body,
		SignatureBytes:  s.SignatureBytes,
		DigestAlg:       s.DigestAlg,
		Disclosures:     keptTable,
		disclosureOrder: kept,
	}, nil
}

// splitJwtPart returns the "header.body.signature" prefix of s's
// compact form, ahead of the first '~'.
func splitJwtPart(s SdJwt) (string, error) {
	idx := strings.IndexByte(s.Compact, '~')
	if idx < 0 {
		return "", ErrMalformedCompactSd
	}
	return s.Compact[:idx], nil
}

// innerToOuterMap scans every disclosure's decoded value for `_sd`
// references (object disclosures) or `{"...": hash}` markers (array
// disclosures) and records, for each referenced inner hash, the outer
// disclosure's own hash — the anchor relationship Filter's closure
// step walks.
func innerToOuterMap(table map[string]string, alg digest.Alg) (map[string]string, error) {
	result := map[string]string{}
	for hash, canonical := range table {
		d, err := disclosure.Parse(canonical, alg)
		if err != nil {
			return nil, err
		}
		switch v := d.Value.(type) {
		case map[string]any:
			if sdList, ok := v["_sd"].([]any); ok {
				for _, entry := range sdList {
					if inner, ok := entry.(string); ok {
						result[inner] = hash
					}
				}
			}
		case []any:
			for _, elem := range v {
				if m, ok := elem.(map[string]any); ok && len(m) == 1 {
					if inner, ok := m["..."].(string); ok {
						result[inner] = hash
					}
				}
			}
		}
	}
	return result, nil
}

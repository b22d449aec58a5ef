package sdjwt

import (
	"fmt"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/disclosure"
)

// visitFunc is invoked for every claim spliced in from a disclosure,
// so Filter can learn which disclosure anchors which resolved path.
// path is the claim path as a list of member names (without array
// indices) the spliced value lives at.
type visitFunc func(path []string, value any, discHash string)

// resolve walks body, splicing in every disclosure reachable from an
// `_sd` array or an array `{"...": hash}` marker, and returns the
// fully resolved claim object. Unreachable digests (no matching
// disclosure) are silently dropped, per the boundary case where an
// `_sd` array names a disclosure the holder chose not to reveal.
func resolve(body map[string]any, table map[string]string, alg digest.Alg, visit visitFunc) (map[string]any, error) {
	if visit == nil {
		visit = func([]string, any, string) {}
	}
	return resolveObject(body, nil, table, alg, visit)
}

func resolveObject(obj map[string]any, path []string, table map[string]string, alg digest.Alg, visit visitFunc) (map[string]any, error) {
	result := map[string]any{}
	for key, val := range obj {
		if key == "_sd" || key == "_sd_alg" {
			continue
		}
		childPath := append(append([]string{}, path...), key)
		processed, err := resolveValue(val, childPath, table, alg, visit)
		if err != nil {
			return nil, err
		}
		result[key] = processed
	}

	sdList, _ := obj["_sd"].([]any)
	for _, entry := range sdList {
		hash, ok := entry.(string)
		if !ok {
			continue
		}
		canonical, found := table[hash]
		if !found {
			continue
		}
		d, err := disclosure.Parse(canonical, alg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCompactSd, err)
		}
		if d.Name == nil {
			return nil, fmt.Errorf("%w: object disclosure is missing a claim name", ErrIllegalDisclosureClaimName)
		}
		name := *d.Name
		if name == "_sd" || name == "..." {
			return nil, fmt.Errorf("%w: %q", ErrIllegalDisclosureClaimName, name)
		}
		if _, exists := result[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateClaim, name)
		}
		childPath := append(append([]string{}, path...), name)
		processed, err := resolveValue(d.Value, childPath, table, alg, visit)
		if err != nil {
			return nil, err
		}
		result[name] = processed
		visit(childPath, processed, hash)
	}

	return result, nil
}

func resolveValue(val any, path []string, table map[string]string, alg digest.Alg, visit visitFunc) (any, error) {
	switch v := val.(type) {
	case map[string]any:
		return resolveObject(v, path, table, alg, visit)
	case []any:
		out := make([]any, 0, len(v))
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok && len(m) == 1 {
				if hash, ok := m["..."].(string); ok {
					canonical, found := table[hash]
					if !found {
						continue // unreachable element digest: drop silently
					}
					d, err := disclosure.Parse(canonical, alg)
					if err != nil {
						return nil, fmt.Errorf("%w: %v", ErrMalformedCompactSd, err)
					}
					processed, err := resolveValue(d.Value, path, table, alg, visit)
					if err != nil {
						return nil, err
					}
					visit(path, processed, hash)
					out = append(out, processed)
					continue
				}
			}
			processed, err := resolveValue(elem, path, table, alg, visit)
			if err != nil {
				return nil, err
			}
			out = append(out, processed)
		}
		return out, nil
	default:
		return v, nil
	}
}

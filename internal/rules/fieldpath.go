// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Field paths over rule property documents.
 *
 * A path addresses a value inside the (possibly nested) property map of a
 * rule: "brand", "meta.tags[0]", "variants[*].color". An optional "$."
 * prefix is accepted. Keys are letters, digits, '_' and '-'. "[*]" and a
 * bare "*" segment are wildcards: Resolve returns the first branch that
 * resolves, ResolveAll every branch. Object wildcards iterate keys in sorted
 * order so resolution is deterministic.
 *
 * Depth and wildcard count are bounded (MaxPathDepth, MaxNestedWildcards)
 * both when a path is parsed and when it is resolved.
 */

// ResolveResult contains the resolved value and the concrete path taken.
type ResolveResult struct {
	Value        any                 // resolved value (nil if not found)
	ResolvedPath []types.PathSegment // path with wildcards replaced by actual keys/indices
	Found        bool
}

// ParsePath parses a dotted path with [n] and [*] segments.
func ParsePath(s string) ([]types.PathSegment, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$.")
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrInvalidFilter)
	}

	var path []types.PathSegment
	for _, part := range strings.Split(s, ".") {
		key, rest, _ := strings.Cut(part, "[")
		if rest != "" {
			rest = "[" + rest
		}
		switch {
		case key == "*":
			path = append(path, types.PathSegment{Wildcard: true})
		case key != "":
			if !validKey(key) {
				return nil, fmt.Errorf("%w: invalid key %q in path %q", types.ErrInvalidFilter, key, s)
			}
			path = append(path, types.PathSegment{Key: key})
		case rest == "":
			return nil, fmt.Errorf("%w: empty segment in path %q", types.ErrInvalidFilter, s)
		}

		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, fmt.Errorf("%w: malformed index in path %q", types.ErrInvalidFilter, s)
			}
			idx := rest[1:end]
			rest = rest[end+1:]
			if idx == "*" {
				path = append(path, types.PathSegment{Wildcard: true})
				continue
			}
			n, err := strconv.Atoi(idx)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid index %q in path %q", types.ErrInvalidFilter, idx, s)
			}
			path = append(path, types.PathSegment{Index: n, IsIndex: true})
		}
	}

	if err := checkPathBounds(path); err != nil {
		return nil, err
	}
	return path, nil
}

// validKey reports whether key is made of letters, digits, '_' and '-'.
func validKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// FormatPath renders path in the syntax accepted by ParsePath.
func FormatPath(path []types.PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		switch {
		case seg.IsIndex:
			b.WriteString("[" + strconv.Itoa(seg.Index) + "]")
		case seg.Wildcard:
			b.WriteString("[*]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		}
	}
	return b.String()
}

func checkPathBounds(path []types.PathSegment) error {
	if len(path) > types.MaxPathDepth {
		return types.ErrPathTooDeep
	}
	wildcards := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcards++
		}
	}
	if wildcards > types.MaxNestedWildcards {
		return types.ErrTooManyWildcards
	}
	return nil
}

// Resolve traverses data following path.
// Returns ErrPathTooDeep / ErrTooManyWildcards for out-of-bounds paths and
// ErrFieldNotFound when the path does not exist in data.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if err := checkPathBounds(path); err != nil {
		return ResolveResult{}, err
	}
	return resolveRecursive(path, data, nil)
}

func resolveRecursive(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{Value: current, ResolvedPath: resolvedSoFar, Found: true}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Key: key})
				if result, err := resolveRecursive(remaining, v[key], resolved); err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if seg.IsIndex {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		val, ok := v[seg.Key]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, val, appendSegment(resolvedSoFar, seg))

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Index: i, IsIndex: true})
				if result, err := resolveRecursive(remaining, elem, resolved); err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index], appendSegment(resolvedSoFar, seg))

	default:
		// nil or a scalar with path remaining
		return ResolveResult{}, types.ErrFieldNotFound
	}
}

// ResolveAll returns every value path reaches in data, expanding each
// wildcard over all of its elements in order. Returns ErrPathTooDeep /
// ErrTooManyWildcards for out-of-bounds paths; a path that reaches nothing
// yields an empty result.
func ResolveAll(path []types.PathSegment, data any) ([]ResolveResult, error) {
	if err := checkPathBounds(path); err != nil {
		return nil, err
	}
	var out []ResolveResult
	collectAll(path, data, nil, &out)
	return out, nil
}

func collectAll(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment, out *[]ResolveResult) {
	if len(path) == 0 {
		*out = append(*out, ResolveResult{Value: current, ResolvedPath: resolvedSoFar, Found: true})
		return
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				collectAll(remaining, v[key], appendSegment(resolvedSoFar, types.PathSegment{Key: key}), out)
			}
			return
		}
		if val, ok := v[seg.Key]; ok && !seg.IsIndex {
			collectAll(remaining, val, appendSegment(resolvedSoFar, seg), out)
		}

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				collectAll(remaining, elem, appendSegment(resolvedSoFar, types.PathSegment{Index: i, IsIndex: true}), out)
			}
			return
		}
		if seg.IsIndex && seg.Index >= 0 && seg.Index < len(v) {
			collectAll(remaining, v[seg.Index], appendSegment(resolvedSoFar, seg), out)
		}
	}
}

// appendSegment copies before appending; wildcard branches share a prefix.
func appendSegment(path []types.PathSegment, seg types.PathSegment) []types.PathSegment {
	out := make([]types.PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

package rules

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/rewritekeeper/internal/types"
)

func decodeDoc(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, want nil", err)
	}
	return v
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want []types.PathSegment
	}{
		{"brand", []types.PathSegment{{Key: "brand"}}},
		{"$.brand", []types.PathSegment{{Key: "brand"}}},
		{"meta.tags[0]", []types.PathSegment{{Key: "meta"}, {Key: "tags"}, {Index: 0, IsIndex: true}}},
		{"variants[*].color", []types.PathSegment{{Key: "variants"}, {Wildcard: true}, {Key: "color"}}},
		{"*.value", []types.PathSegment{{Wildcard: true}, {Key: "value"}}},
		{"grid[1][2]", []types.PathSegment{{Key: "grid"}, {Index: 1, IsIndex: true}, {Index: 2, IsIndex: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if err != nil {
				t.Fatalf("ParsePath() error = %v, want nil", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePath() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"", types.ErrInvalidFilter},
		{"a.", types.ErrInvalidFilter},
		{"a[1", types.ErrInvalidFilter},
		{"a[-1]", types.ErrInvalidFilter},
		{"a.b.c.d.e.f.g.h.i.j.k.l.m.n.o.p.q", types.ErrPathTooDeep},
		{"*.*.*", types.ErrTooManyWildcards},
		{"brand name", types.ErrInvalidFilter},
		{`"brand"`, types.ErrInvalidFilter},
		{"a=b", types.ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParsePath(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParsePath(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	for _, s := range []string{"brand", "meta.tags[0]", "variants[*].color", "grid[1][2]"} {
		path, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q) error = %v, want nil", s, err)
		}
		if got := FormatPath(path); got != s {
			t.Errorf("FormatPath(ParsePath(%q)) = %q", s, got)
		}
	}
}

func TestResolve_Normal(t *testing.T) {
	tests := []struct {
		name     string
		path     []types.PathSegment
		data     string
		expected any
	}{
		{
			name:     "nested object traversal",
			path:     []types.PathSegment{{Key: "meta"}, {Key: "brand"}},
			data:     `{"meta": {"brand": "apple"}}`,
			expected: "apple",
		},
		{
			name:     "array index access",
			path:     []types.PathSegment{{Key: "tags"}, {Index: 1, IsIndex: true}},
			data:     `{"tags": ["new", "sale"]}`,
			expected: "sale",
		},
		{
			name:     "single wildcard first match",
			path:     []types.PathSegment{{Key: "variants"}, {Wildcard: true}, {Key: "price"}},
			data:     `{"variants": [{"color": "red"}, {"price": 20}]}`,
			expected: float64(20),
		},
		{
			name:     "wildcard on object sorted keys",
			path:     []types.PathSegment{{Wildcard: true}, {Key: "value"}},
			data:     `{"z": {"value": 1}, "a": {"value": 2}, "m": {"value": 3}}`,
			expected: float64(2),
		},
		{
			name:     "nested wildcards",
			path:     []types.PathSegment{{Key: "groups"}, {Wildcard: true}, {Key: "rules"}, {Wildcard: true}, {Key: "ord"}},
			data:     `{"groups": [{"rules": [{"ord": 100}, {"ord": 200}]}, {"rules": [{"ord": 300}]}]}`,
			expected: float64(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(tt.path, decodeDoc(t, tt.data))
			if err != nil {
				t.Fatalf("Resolve() error = %v, want nil", err)
			}
			if !result.Found {
				t.Fatalf("Resolve() Found = false, want true")
			}
			if result.Value != tt.expected {
				t.Errorf("Resolve() Value = %v, expected %v", result.Value, tt.expected)
			}
		})
	}
}

func TestResolve_ResolvedPath(t *testing.T) {
	path := []types.PathSegment{{Key: "variants"}, {Wildcard: true}, {Key: "price"}}

	result, err := Resolve(path, decodeDoc(t, `{"variants": [{"color": "red"}, {"price": 20}]}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []types.PathSegment{{Key: "variants"}, {Index: 1, IsIndex: true}, {Key: "price"}}
	if diff := cmp.Diff(want, result.ResolvedPath); diff != "" {
		t.Errorf("ResolvedPath mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAll_ExpandsEveryBranch(t *testing.T) {
	path, err := ParsePath("variants[*].color")
	if err != nil {
		t.Fatalf("ParsePath() error = %v, want nil", err)
	}

	doc := decodeDoc(t, `{"variants": [{"color": "red"}, {"size": 4}, {"color": "blue"}]}`)
	results, err := ResolveAll(path, doc)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v, want nil", err)
	}

	var got []any
	for _, r := range results {
		got = append(got, r.Value)
	}
	if diff := cmp.Diff([]any{"red", "blue"}, got); diff != "" {
		t.Errorf("ResolveAll() values mismatch (-want +got):\n%s", diff)
	}

	want := []types.PathSegment{{Key: "variants"}, {Index: 2, IsIndex: true}, {Key: "color"}}
	if diff := cmp.Diff(want, results[1].ResolvedPath); diff != "" {
		t.Errorf("ResolvedPath mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAll_NoMatch(t *testing.T) {
	path := []types.PathSegment{{Key: "tags"}, {Wildcard: true}}
	results, err := ResolveAll(path, decodeDoc(t, `{"tags": []}`))
	if err != nil {
		t.Fatalf("ResolveAll() error = %v, want nil", err)
	}
	if len(results) != 0 {
		t.Errorf("ResolveAll() = %v, want no results", results)
	}
}

func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name string
		path []types.PathSegment
		data string
	}{
		{"empty object", []types.PathSegment{{Key: "missing"}}, `{}`},
		{"empty array", []types.PathSegment{{Index: 0, IsIndex: true}}, `[]`},
		{"empty array with wildcard", []types.PathSegment{{Wildcard: true}, {Key: "price"}}, `[]`},
		{"null at intermediate level", []types.PathSegment{{Key: "meta"}, {Key: "brand"}}, `{"meta": null}`},
		{"scalar but path continues", []types.PathSegment{{Key: "brand"}, {Key: "name"}}, `{"brand": "apple"}`},
		{"index out of bounds", []types.PathSegment{{Index: 5, IsIndex: true}}, `[1, 2, 3]`},
		{"string key on array", []types.PathSegment{{Key: "key"}}, `[1, 2, 3]`},
		{"integer index on object", []types.PathSegment{{Index: 0, IsIndex: true}}, `{"0": "value"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.path, decodeDoc(t, tt.data))
			if !errors.Is(err, types.ErrFieldNotFound) {
				t.Errorf("Resolve() error = %v, want %v", err, types.ErrFieldNotFound)
			}
		})
	}
}

func TestResolve_Bounds(t *testing.T) {
	deep := make([]types.PathSegment, types.MaxPathDepth+1)
	for i := range deep {
		deep[i] = types.PathSegment{Key: "k"}
	}
	if _, err := Resolve(deep, map[string]any{}); !errors.Is(err, types.ErrPathTooDeep) {
		t.Errorf("Resolve(deep) error = %v, want %v", err, types.ErrPathTooDeep)
	}

	wild := []types.PathSegment{{Wildcard: true}, {Wildcard: true}, {Wildcard: true}}
	if _, err := Resolve(wild, []any{}); !errors.Is(err, types.ErrTooManyWildcards) {
		t.Errorf("Resolve(wild) error = %v, want %v", err, types.ErrTooManyWildcards)
	}
}

// Property-based test: resolution never crashes
func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	doc := decodeDoc(t, `{"key": [{"key": "value"}, null, 3]}`)

	properties.Property("resolution never crashes regardless of input", prop.ForAll(
		func(depth int, wildcards int, useArray bool) (ok bool) {
			path := make([]types.PathSegment, depth)
			wildcardCount := 0
			for i := 0; i < depth; i++ {
				switch {
				case wildcardCount < wildcards && i%2 == 0:
					path[i] = types.PathSegment{Wildcard: true}
					wildcardCount++
				case useArray && i%3 == 0:
					path[i] = types.PathSegment{Index: i, IsIndex: true}
				default:
					path[i] = types.PathSegment{Key: "key"}
				}
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve() panicked: %v", r)
					ok = false
				}
			}()

			_, _ = Resolve(path, doc)
			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 5),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: wildcard determinism
func TestResolve_PropertyWildcardDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("wildcard resolution is deterministic", prop.ForAll(
		func(keys []string) bool {
			doc := make(map[string]any, len(keys))
			for i, k := range keys {
				doc[k] = map[string]any{"value": float64(i)}
			}
			path := []types.PathSegment{{Wildcard: true}, {Key: "value"}}

			r1, err1 := Resolve(path, doc)
			r2, err2 := Resolve(path, doc)
			if !errors.Is(err1, err2) && err1 != err2 {
				return false
			}
			return r1.Value == r2.Value && cmp.Equal(r1.ResolvedPath, r2.ResolvedPath)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

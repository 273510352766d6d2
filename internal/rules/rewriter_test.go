package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

func mustRewriter(t *testing.T, defs ...types.RuleDefinition) *Rewriter {
	t.Helper()
	r, err := NewRewriter(mustRuleSet(t, defs...))
	if err != nil {
		t.Fatalf("NewRewriter() error = %v, want nil", err)
	}
	return r
}

func rewrite(t *testing.T, r *Rewriter, text string, req Request) *RewriterOutput {
	t.Helper()
	out, err := r.Rewrite(query.Parse(text), req)
	if err != nil {
		t.Fatalf("Rewrite() error = %v, want nil", err)
	}
	return out
}

var details = &RewriteLoggingConfig{Active: true, Details: true}

func TestRewrite_SynonymScenario(t *testing.T) {
	r := mustRewriter(t, rule("iphone", nil, ins("synonym", "apple")))

	out := rewrite(t, r, "iphone", Request{Logging: details})

	if got := out.Query.String(); got != "(iphone | apple)" {
		t.Errorf("Query = %q, want %q", got, "(iphone | apple)")
	}
	if len(out.Logging.Actions) != 1 {
		t.Fatalf("len(Actions) = %d, want 1", len(out.Logging.Actions))
	}
	action := out.Logging.Actions[0]
	if action.Match.Term != "iphone" || action.Match.Type != "EXACT" {
		t.Errorf("Match = %+v, want {iphone EXACT}", action.Match)
	}
	if action.Message != nil {
		t.Errorf("Message = %q, want absent", *action.Message)
	}
	if len(action.Instructions) != 1 || action.Instructions[0].Type != "synonym" {
		t.Fatalf("Instructions = %+v, want one synonym", action.Instructions)
	}
	if v := action.Instructions[0].Value; v == nil || *v != "apple" {
		t.Errorf("Instructions[0].Value = %v, want apple", v)
	}
}

func TestRewrite_TwoRulesSameInputBothFire(t *testing.T) {
	r := mustRewriter(t,
		rule("a", nil, ins("synonym", "b")),
		rule("a", nil, ins("synonym", "d")),
	)

	out := rewrite(t, r, "a", Request{Logging: &RewriteLoggingConfig{Active: true}})

	if len(out.Logging.Actions) != 2 {
		t.Fatalf("len(Actions) = %d, want 2", len(out.Logging.Actions))
	}
	if got := out.Query.String(); got != "(a | b | d)" {
		t.Errorf("Query = %q, want %q", got, "(a | b | d)")
	}
	for i, a := range out.Logging.Actions {
		if a.Instructions != nil {
			t.Errorf("Actions[%d].Instructions = %+v without details, want none", i, a.Instructions)
		}
	}
}

func TestRewrite_LimitOneKeepsHigherRanked(t *testing.T) {
	r := mustRewriter(t,
		rule("a", map[string]any{"ord": 2, "_log": "loser"}, ins("synonym", "b")),
		rule("a", map[string]any{"ord": 1, "_log": "winner"}, ins("synonym", "d")),
	)

	out := rewrite(t, r, "a", Request{
		Criteria: StaticCriteria{Limit: 1},
		Logging:  details,
	})

	if got := out.Query.String(); got != "(a | d)" {
		t.Errorf("Query = %q, want %q", got, "(a | d)")
	}
	if len(out.Logging.Actions) != 1 {
		t.Fatalf("len(Actions) = %d, want 1", len(out.Logging.Actions))
	}
	if m := out.Logging.Actions[0].Message; m == nil || *m != "winner" {
		t.Errorf("Message = %v, want winner", m)
	}
}

func TestRewrite_SortingAndFilterCriteria(t *testing.T) {
	r := mustRewriter(t,
		rule("a", map[string]any{"score": 1, "lang": "en"}, ins("synonym", "low")),
		rule("a", map[string]any{"score": 9, "lang": "de"}, ins("synonym", "german")),
		rule("a", map[string]any{"score": 5, "lang": "en"}, ins("synonym", "high")),
	)

	out := rewrite(t, r, "a", Request{
		Criteria: StaticCriteria(NewCriteria(
			NewSorting("score", Descending), 0,
			[]FilterCriterion{MustParseFilterCriterion("lang:en")},
		)),
	})

	if got := out.Query.String(); got != "(a | high | low)" {
		t.Errorf("Query = %q, want %q", got, "(a | high | low)")
	}
}

func TestRewrite_LoggingStates(t *testing.T) {
	r := mustRewriter(t, rule("iphone", nil, ins("synonym", "apple")))

	t.Run("never requested", func(t *testing.T) {
		out := rewrite(t, r, "iphone", Request{})
		if out.Logging != nil {
			t.Errorf("Logging = %+v, want nil", out.Logging)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		out := rewrite(t, r, "iphone", Request{Logging: &RewriteLoggingConfig{}})
		if out.Logging == nil {
			t.Fatal("Logging = nil, want present")
		}
		if out.Logging.Actions == nil || len(out.Logging.Actions) != 0 {
			t.Errorf("Actions = %v, want empty non-nil", out.Logging.Actions)
		}
	})

	t.Run("active without match", func(t *testing.T) {
		out := rewrite(t, r, "ipad", Request{Logging: details})
		if out.Logging == nil || len(out.Logging.Actions) != 0 {
			t.Errorf("Logging = %+v, want present and empty", out.Logging)
		}
	})
}

func TestRewrite_InstructionLoggingPerInstruction(t *testing.T) {
	r := mustRewriter(t, rule("iphone", map[string]any{"_log": "Phones & more"},
		ins("synonym", "apple"),
		insParam("up", "brand:apple", 1),
		insParam("down", "refurbished", 0.5),
		ins("filter", "*category:phones"),
		ins("decorate", "banner"),
	))

	out := rewrite(t, r, "iphone", Request{Logging: details})

	want := "(iphone | apple) filter(category:phones) up(1)(brand:apple) down(0.5)(refurbished) decorate(banner)"
	if got := out.Query.String(); got != want {
		t.Errorf("Query = %q, want %q", got, want)
	}

	action := out.Logging.Actions[0]
	if action.Message == nil || *action.Message != "Phones & more" {
		t.Errorf("Message = %v, want verbatim log property", action.Message)
	}
	if len(action.Instructions) != 5 {
		t.Fatalf("len(Instructions) = %d, want 5", len(action.Instructions))
	}

	wantTypes := []string{"synonym", "up", "down", "filter", "decorate"}
	wantParams := []string{"", "1.0", "0.5", "", ""}
	for i, il := range action.Instructions {
		if il.Type != wantTypes[i] {
			t.Errorf("Instructions[%d].Type = %q, want %q", i, il.Type, wantTypes[i])
		}
		got := ""
		if il.Param != nil {
			got = *il.Param
		}
		if got != wantParams[i] {
			t.Errorf("Instructions[%d].Param = %q, want %q", i, got, wantParams[i])
		}
		if il.Skipped {
			t.Errorf("Instructions[%d].Skipped = true, want false", i)
		}
	}
}

func TestRewrite_SynonymWeightAndMultiTerm(t *testing.T) {
	r := mustRewriter(t,
		rule("iphone", nil, insParam("synonym", "apple", 0.5)),
		rule("mobile phone", nil, ins("synonym", "smartphone")),
		rule("tv", nil, ins("synonym", "television set")),
	)

	tests := []struct {
		query string
		want  string
	}{
		{"iphone", "(iphone | apple^0.5)"},
		{"mobile phone", "(mobile | (+smartphone)) (phone | (+smartphone))"},
		{"tv", "(tv | (+television +set))"},
	}
	for _, tt := range tests {
		out := rewrite(t, r, tt.query, Request{})
		if got := out.Query.String(); got != tt.want {
			t.Errorf("Rewrite(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestRewrite_DeleteThenSynonymSkipped(t *testing.T) {
	r := mustRewriter(t,
		rule("a", map[string]any{"ord": 1}, ins("delete", "")),
		rule("a", map[string]any{"ord": 2}, ins("synonym", "x")),
	)

	out := rewrite(t, r, "a b", Request{Logging: details})

	if got := out.Query.String(); got != "b" {
		t.Errorf("Query = %q, want %q", got, "b")
	}
	if len(out.Logging.Actions) != 2 {
		t.Fatalf("len(Actions) = %d, want 2", len(out.Logging.Actions))
	}
	if out.Logging.Actions[0].Instructions[0].Skipped {
		t.Error("delete logged as skipped")
	}
	if !out.Logging.Actions[1].Instructions[0].Skipped {
		t.Error("synonym on deleted term not logged as skipped")
	}
}

func TestRewrite_DeleteSubset(t *testing.T) {
	r := mustRewriter(t, rule("cheap iphone", nil, ins("delete", "cheap")))

	out := rewrite(t, r, "Cheap iPhone", Request{})

	if got := out.Query.String(); got != "iPhone" {
		t.Errorf("Query = %q, want %q", got, "iPhone")
	}
}

func TestRewrite_DeleteKeepsPositionWithSynonyms(t *testing.T) {
	r := mustRewriter(t,
		rule("a", map[string]any{"ord": 1}, ins("synonym", "x")),
		rule("a", map[string]any{"ord": 2}, ins("delete", "")),
	)

	out := rewrite(t, r, "a b", Request{})

	if got := out.Query.String(); got != "x b" {
		t.Errorf("Query = %q, want %q", got, "x b")
	}
}

func TestRewrite_PrefixMatch(t *testing.T) {
	r := mustRewriter(t, rule("lapt*", nil, ins("synonym", "notebook$1"), ins("decorate", "prefix:$1")))

	out := rewrite(t, r, "laptops", Request{Logging: details})

	want := "(laptops | notebookops) decorate(prefix:ops)"
	if got := out.Query.String(); got != want {
		t.Errorf("Query = %q, want %q", got, want)
	}
	action := out.Logging.Actions[0]
	if action.Match.Type != "PREFIX" || action.Match.Term != "laptops" {
		t.Errorf("Match = %+v, want {laptops PREFIX}", action.Match)
	}
	if v := action.Instructions[0].Value; v == nil || *v != "notebook$1" {
		t.Errorf("logged value = %v, want the declared template", v)
	}
}

func TestRewrite_NoMatchOnOwnOutput(t *testing.T) {
	r := mustRewriter(t,
		rule("a", nil, ins("synonym", "b")),
		rule("b", nil, ins("synonym", "c")),
	)

	out := rewrite(t, r, "a", Request{})

	if got := out.Query.String(); got != "(a | b)" {
		t.Errorf("Query = %q, want %q", got, "(a | b)")
	}
}

func TestRewrite_FilterErrorLeavesQueryUntouched(t *testing.T) {
	boom := errors.New("boom")
	r := mustRewriter(t,
		rule("a", nil, ins("synonym", "x")),
		rule("b", nil, ins("synonym", "y")),
	)

	q := query.Parse("a b")
	_, err := r.Rewrite(q, Request{Criteria: CriteriaByInput{
		ByInput: map[string]Criteria{"b": {Filters: []FilterCriterion{
			FilterFunc(func(*Properties) (bool, error) { return false, boom }),
		}}},
	}})

	if !errors.Is(err, types.ErrFilterEvaluation) || !errors.Is(err, boom) {
		t.Fatalf("Rewrite() error = %v, want %v wrapping boom", err, types.ErrFilterEvaluation)
	}
	if got := q.String(); got != "a b" {
		t.Errorf("query mutated to %q after failed rewrite", got)
	}
}

func TestRewrite_TypeMismatchFails(t *testing.T) {
	r := mustRewriter(t,
		rule("a", map[string]any{"score": 1}, ins("synonym", "x")),
		rule("a", map[string]any{"score": "high"}, ins("synonym", "y")),
	)

	_, err := r.Rewrite(query.Parse("a"), Request{Criteria: StaticCriteria{Sorting: NewSorting("score", Ascending)}})
	if !errors.Is(err, types.ErrPropertyTypeMismatch) {
		t.Errorf("Rewrite() error = %v, want %v", err, types.ErrPropertyTypeMismatch)
	}
}

func TestRewrite_Errors(t *testing.T) {
	if _, err := NewRewriter(nil); !errors.Is(err, types.ErrRuleSetRequired) {
		t.Errorf("NewRewriter(nil) error = %v, want %v", err, types.ErrRuleSetRequired)
	}

	r := mustRewriter(t, rule("a", nil, ins("synonym", "b")))
	if _, err := r.Rewrite(nil, Request{}); !errors.Is(err, types.ErrQueryRequired) {
		t.Errorf("Rewrite(nil) error = %v, want %v", err, types.ErrQueryRequired)
	}

	long := strings.Repeat("a ", types.MaxQueryTerms+1)
	if _, err := r.Rewrite(query.Parse(long), Request{}); !errors.Is(err, types.ErrTooManyQueryTerms) {
		t.Errorf("Rewrite(long) error = %v, want %v", err, types.ErrTooManyQueryTerms)
	}
}

func TestRewrite_ConcurrentCallsShareRuleSet(t *testing.T) {
	r := mustRewriter(t,
		rule("a", nil, ins("synonym", "b")),
		rule("c d", nil, ins("delete", "")),
	)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := r.Rewrite(query.Parse("a c d"), Request{Logging: details})
			if err != nil {
				errs <- err
				return
			}
			if got := out.Query.String(); got != "(a | b)" {
				errs <- fmt.Errorf("call %d: query = %q", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

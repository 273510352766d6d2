package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/rewritekeeper/internal/core/config"
	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/rules"
	"github.com/solatis/rewritekeeper/internal/types"
)

// Rewrite rewrites one query.
//
// Request fields:
//
//	query     string, required
//	logging   {active: bool, details: bool}, defaults to the configured logging
//	criteria  {sort: "prop:asc|desc", limit: number, filters: [string]},
//	          defaults to the configured criteria
//
// Response fields: query (rendered), user_query, filters, boost_up,
// boost_down, decorations and logging when logging was requested.
func (s *RewriteService) Rewrite(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	text, req, err := s.decodeRewriteRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	rw := s.rewriter.Load()
	if rw == nil {
		return nil, status.Error(codes.Unavailable, "no rule set loaded")
	}

	out, err := rw.Rewrite(query.Parse(text), req)
	if err != nil {
		return nil, toStatus(err)
	}

	if s.audit != nil {
		entry := AuditEntry{Query: text, Rewritten: out.Query.String(), Logging: out.Logging}
		if err := s.audit.Record(entry); err != nil {
			s.logger.Warn("audit write failed", "error", err)
		}
	}

	resp, err := encodeRewriteResponse(out)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Reload rebuilds the rule set from the rule source. Responds with the
// number of loaded rules.
func (s *RewriteService) Reload(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.ReloadRules(ctx)
	if err != nil {
		s.logger.Error("rule reload failed", "error", err)
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"rules": float64(n)})
}

func (s *RewriteService) decodeRewriteRequest(in *structpb.Struct) (string, rules.Request, error) {
	fields := in.AsMap()

	raw, ok := fields["query"]
	if !ok || raw == nil {
		return "", rules.Request{}, types.ErrQueryRequired
	}
	text, ok := raw.(string)
	if !ok {
		return "", rules.Request{}, fmt.Errorf("%w: query must be a string", errInvalidRequest)
	}

	req := rules.Request{Criteria: s.criteria}
	if s.logging.Active {
		req.Logging = s.logging.RewriteLogging()
	}

	if raw, ok := fields["logging"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return "", rules.Request{}, fmt.Errorf("%w: logging must be an object", errInvalidRequest)
		}
		active, err := boolField(m, "active")
		if err != nil {
			return "", rules.Request{}, err
		}
		details, err := boolField(m, "details")
		if err != nil {
			return "", rules.Request{}, err
		}
		req.Logging = &rules.RewriteLoggingConfig{Active: active, Details: details}
	}

	if raw, ok := fields["criteria"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return "", rules.Request{}, fmt.Errorf("%w: criteria must be an object", errInvalidRequest)
		}
		cc, err := decodeCriteria(m)
		if err != nil {
			return "", rules.Request{}, err
		}
		provider, err := cc.Provider()
		if err != nil {
			return "", rules.Request{}, err
		}
		req.Criteria = provider
	}

	return text, req, nil
}

func decodeCriteria(m map[string]any) (config.CriteriaConfig, error) {
	var cc config.CriteriaConfig

	if raw, ok := m["sort"]; ok && raw != nil {
		sort, ok := raw.(string)
		if !ok {
			return cc, fmt.Errorf("%w: criteria.sort must be a string", errInvalidRequest)
		}
		cc.Sort = sort
	}

	if raw, ok := m["limit"]; ok && raw != nil {
		limit, ok := raw.(float64)
		if !ok || limit != math.Trunc(limit) || math.Abs(limit) > math.MaxInt32 {
			return cc, fmt.Errorf("%w: criteria.limit must be an integer", errInvalidRequest)
		}
		cc.Limit = int(limit)
	}

	if raw, ok := m["filters"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return cc, fmt.Errorf("%w: criteria.filters must be a list", errInvalidRequest)
		}
		for i, item := range list {
			expr, ok := item.(string)
			if !ok {
				return cc, fmt.Errorf("%w: criteria.filters[%d] must be a string", errInvalidRequest, i)
			}
			cc.Filters = append(cc.Filters, expr)
		}
	}

	return cc, nil
}

func boolField(m map[string]any, name string) (bool, error) {
	raw, ok := m[name]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: logging.%s must be a boolean", errInvalidRequest, name)
	}
	return b, nil
}

func encodeRewriteResponse(out *rules.RewriterOutput) (*structpb.Struct, error) {
	q := out.Query

	resp := map[string]any{
		"query":       q.String(),
		"user_query":  q.UserQuery.String(),
		"filters":     queryList(q.Filters),
		"boost_up":    boostList(q.BoostUp),
		"boost_down":  boostList(q.BoostDown),
		"decorations": stringList(q.Decorations),
	}

	if out.Logging != nil {
		// round trip through JSON so the payload carries the logging field names
		data, err := json.Marshal(out.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to encode logging: %w", err)
		}
		var logging map[string]any
		if err := json.Unmarshal(data, &logging); err != nil {
			return nil, fmt.Errorf("failed to encode logging: %w", err)
		}
		resp["logging"] = logging
	}

	return structpb.NewStruct(resp)
}

func queryList(qs []query.Query) []any {
	out := make([]any, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.String())
	}
	return out
}

func boostList(bs []query.BoostQuery) []any {
	out := make([]any, 0, len(bs))
	for _, b := range bs {
		out = append(out, map[string]any{"query": b.Query.String(), "boost": b.Boost})
	}
	return out
}

func stringList(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

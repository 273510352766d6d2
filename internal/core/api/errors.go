package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/rewritekeeper/internal/types"
)

// Request validation errors map to INVALID_ARGUMENT.
// Errors raised while selecting rules for a valid request (filter
// evaluation, property types) map to FAILED_PRECONDITION, as do rule sets
// that fail to build on reload.
// Rule source errors map to UNAVAILABLE.
// Context timeouts map to DEADLINE_EXCEEDED.

var invalidArgument = []error{
	types.ErrQueryRequired,
	types.ErrTooManyQueryTerms,
	types.ErrInvalidSorting,
	types.ErrInvalidFilter,
	types.ErrTooManyConditions,
	types.ErrPathTooDeep,
	types.ErrTooManyWildcards,
	types.ErrCoercionFailed,
	errInvalidRequest,
}

var errInvalidRequest = errors.New("invalid request")

// toStatus converts err into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrRuleSource):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, types.ErrFilterEvaluation), errors.Is(err, types.ErrPropertyTypeMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.FailedPrecondition, err.Error())
}

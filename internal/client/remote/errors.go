package remote

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/goalkeeper/internal/errs"
)

// fromStatus maps a gRPC error back to the shared sentinels.
// Anything that says nothing about the request itself is ErrRemoteUnavailable.
func fromStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w: %v", op, errs.ErrRemoteUnavailable, err)
	}
	msg := st.Message()

	var target error
	switch st.Code() {
	case codes.InvalidArgument:
		target = errs.ErrInvalidArgument
		if strings.Contains(msg, errs.ErrEmptyInput.Error()) {
			target = errs.ErrEmptyInput
		}
	case codes.AlreadyExists:
		target = errs.ErrAlreadyExists
		if strings.Contains(msg, errs.ErrDuplicateGoal.Error()) {
			target = errs.ErrDuplicateGoal
		}
	case codes.NotFound:
		target = errs.ErrNotFound
	case codes.Unauthenticated:
		target = errs.ErrUnauthenticated
	case codes.PermissionDenied:
		target = errs.ErrPermissionDenied
	case codes.ResourceExhausted:
		target = errs.ErrRateLimited
	case codes.Canceled:
		target = context.Canceled
	default:
		// Unavailable, DeadlineExceeded, Internal, Unknown and the rest
		target = errs.ErrRemoteUnavailable
	}
	return fmt.Errorf("%s: %w: %s", op, target, msg)
}

package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote call failures, one per [ErrorKind]
	ErrAuthExpired       = fmt.Errorf("access token expired")
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrNotFound          = fmt.Errorf("not found")
	ErrTransientNetwork  = fmt.Errorf("network unavailable")
	ErrUnknown           = fmt.Errorf("unexpected failure")
	ErrPremiumRequired   = fmt.Errorf("premium account required")
	ErrNoActiveDevice    = fmt.Errorf("no active device")
	ErrUnsupportedEntity = fmt.Errorf("unsupported entity")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind is the failure class of a remote call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthExpired
	KindRateLimited
	KindNotFound
	KindTransientNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthExpired:
		return "AuthExpired"
	case KindRateLimited:
		return "RateLimited"
	case KindNotFound:
		return "NotFound"
	case KindTransientNetwork:
		return "TransientNetwork"
	default:
		return "Unknown"
	}
}

// Describe returns the user-visible text for a failure of this kind.
func (k ErrorKind) Describe() string {
	switch k {
	case KindAuthExpired:
		return "session expired, refreshing credentials"
	case KindRateLimited:
		return "too many requests, slow down and try again"
	case KindNotFound:
		return "the requested item no longer exists"
	case KindTransientNetwork:
		return "network problem, try again"
	default:
		return "something went wrong"
	}
}

// Retryable reports whether re-issuing the same call could succeed without user action.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransientNetwork
}

// Classify maps err onto the remote failure taxonomy.
//
// A nil error classifies as [KindUnknown]; callers check for nil first.
func Classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrNotAuthenticated):
		return KindAuthExpired
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransientNetwork), errors.Is(err, context.DeadlineExceeded):
		return KindTransientNetwork
	case errors.As(err, &netErr):
		return KindTransientNetwork
	default:
		return KindUnknown
	}
}

// Describe builds a one-line user-visible message for a failed operation.
func Describe(op string, err error) string {
	kind := Classify(err)
	switch {
	case errors.Is(err, ErrPremiumRequired):
		return fmt.Sprintf("%s: %s", op, ErrPremiumRequired)
	case errors.Is(err, ErrNoActiveDevice):
		return fmt.Sprintf("%s: %s, pick one from the device list", op, ErrNoActiveDevice)
	}
	return fmt.Sprintf("%s: %s", op, kind.Describe())
}

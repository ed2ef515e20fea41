package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"google.golang.org/api/googleapi"
)

// ErrInvalidPlatform marks a programming error (unknown platform key). Unlike
// the ErrorKind taxonomy below it propagates as a hard failure.
var ErrInvalidPlatform = errors.New("invalid platform")

// ErrorKind is the classified failure taxonomy surfaced to callers. Raw
// provider error shapes never cross this boundary.
type ErrorKind string

const (
	KindSchedulingUnsupported ErrorKind = "scheduling_unsupported"
	KindInvalidTimestamp      ErrorKind = "invalid_timestamp"
	KindNoSlotAvailable       ErrorKind = "no_slot_available"
	KindTokenExpired          ErrorKind = "token_expired"
	KindNetworkError          ErrorKind = "network_error"
	KindPlatformRejected      ErrorKind = "platform_rejected"
	KindAlreadyPublished      ErrorKind = "already_published"
)

// Retryable reports whether a retry without operator intervention can succeed.
// TokenExpired needs re-authentication, PlatformRejected needs a content
// change, so neither counts.
func (k ErrorKind) Retryable() bool {
	return k == KindNetworkError
}

// PublishError carries a classified kind plus a human-readable detail.
type PublishError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

func (e *PublishError) Unwrap() error { return e.Err }

func NewPublishError(kind ErrorKind, detail string) *PublishError {
	return &PublishError{Kind: kind, Detail: detail}
}

// Classify maps an arbitrary adapter failure into the taxonomy. Already
// classified errors pass through untouched; transport-level failures become
// NetworkError, credential failures TokenExpired, everything the remote API
// explicitly refused PlatformRejected.
func Classify(err error) *PublishError {
	if err == nil {
		return nil
	}

	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &PublishError{Kind: KindNetworkError, Detail: "request timed out", Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return classifyStatus(gerr.Code, gerr.Message, err)
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &PublishError{Kind: KindNetworkError, Detail: uerr.Error(), Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return &PublishError{Kind: KindNetworkError, Detail: nerr.Error(), Err: err}
	}

	return &PublishError{Kind: KindNetworkError, Detail: err.Error(), Err: err}
}

// ClassifyHTTPStatus maps a REST adapter response the same way Classify maps
// wrapped client errors.
func ClassifyHTTPStatus(status int, body string) *PublishError {
	return classifyStatus(status, body, nil)
}

func classifyStatus(status int, detail string, cause error) *PublishError {
	switch {
	case status == 401 || status == 403:
		return &PublishError{Kind: KindTokenExpired, Detail: detail, Err: cause}
	case status == 429 || status >= 500:
		return &PublishError{Kind: KindNetworkError, Detail: detail, Err: cause}
	case status >= 400:
		return &PublishError{Kind: KindPlatformRejected, Detail: detail, Err: cause}
	default:
		return &PublishError{Kind: KindNetworkError, Detail: detail, Err: cause}
	}
}

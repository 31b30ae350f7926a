// internal/channel/channel.go
package channel

import (
	"context"
	"errors"
	"fmt"
)

// Channel is the outbound transport that actually delivers a message. The
// dispatcher only depends on this contract; SMS and email gateways implement
// it.
type Channel interface {
	// Send delivers body to destination and returns the channel-assigned
	// message id.
	Send(ctx context.Context, destination, body string) (string, error)
}

type ErrorKind string

const (
	KindUnauthorizedDestination ErrorKind = "unauthorized-destination"
	KindInvalidDestination      ErrorKind = "invalid-destination-format"
	KindRateLimited             ErrorKind = "rate-limited-by-provider"
	KindQueueOverflow           ErrorKind = "provider-queue-overflow"
	KindAuthFailure             ErrorKind = "authentication-failure"
	KindUnknown                 ErrorKind = "unknown"
)

// Error is a classified send failure. None of these abort a campaign; each
// maps to a failed status on the one recipient involved.
type Error struct {
	Kind    ErrorKind
	Code    int // provider error code, 0 when unknown
	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Provider error codes, Twilio numbering.
var codeKinds = map[int]ErrorKind{
	20003: KindAuthFailure,
	20429: KindRateLimited,
	21211: KindInvalidDestination,
	21408: KindUnauthorizedDestination,
	21608: KindUnauthorizedDestination,
	21610: KindUnauthorizedDestination,
	21611: KindQueueOverflow,
	30001: KindQueueOverflow,
}

// NewError builds a classified Error from a provider code.
func NewError(code int, message string) *Error {
	kind, ok := codeKinds[code]
	if !ok {
		kind = KindUnknown
	}
	return &Error{Kind: kind, Code: code, Message: message}
}

// Classify extracts the error kind from any error returned by a Channel.
func Classify(err error) ErrorKind {
	var chErr *Error
	if errors.As(err, &chErr) {
		return chErr.Kind
	}
	return KindUnknown
}

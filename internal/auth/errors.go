package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
)

// ErrorCode maps a handshake error to the code a caller reports to its peer.
func ErrorCode(err error) protocol.ErrorCode {
	var codecErr *protocol.CodecError
	switch {
	case errors.Is(err, srp.ErrIllegalParameter):
		return protocol.ErrCodeIllegalParameter
	case errors.Is(err, srp.ErrBadRecordMac):
		return protocol.ErrCodeBadRecordMac
	case errors.Is(err, ErrKeyNotFound):
		return protocol.ErrCodeKeyNotFound
	case errors.Is(err, ErrExpired):
		return protocol.ErrCodeExpired
	case errors.Is(err, ErrUserNotFound):
		return protocol.ErrCodeUserNotFound
	case errors.Is(err, ErrClientLocked):
		return protocol.ErrCodeRateLimited
	case errors.As(err, &codecErr) && codecErr.Op == "encode":
		return protocol.ErrCodeEncodeError
	case errors.Is(err, protocol.ErrCodec), errors.Is(err, ErrInvalidRecord):
		return protocol.ErrCodeDecodeError
	default:
		return protocol.ErrCodeInternalError
	}
}

// ErrorResponse converts err into a peer-facing ErrorResponse.
// Authentication failures share one message; codec failures carry their detail.
func ErrorResponse(err error) *protocol.ErrorResponse {
	code := ErrorCode(err)

	var lockErr *LockedError
	switch {
	case errors.As(err, &lockErr):
		return protocol.NewRateLimitedError(FormatRetryAfter(lockErr.RetryAfter))
	case code == protocol.ErrCodeDecodeError:
		return protocol.NewDecodeError(err)
	default:
		return protocol.NewError(code, protocol.MessageFor(code))
	}
}

// LockedError reports a rate-limited connection and when it may retry.
type LockedError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", ErrClientLocked, e.RetryAfter)
}

// Unwrap lets errors.Is match ErrClientLocked.
func (e *LockedError) Unwrap() error {
	return ErrClientLocked
}

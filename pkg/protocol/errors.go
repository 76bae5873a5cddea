package protocol

import "fmt"

// ErrorCode represents a standardized failure category for an SRP handshake.
// Callers report it over their own transport; the core never sends it.
type ErrorCode string

// Handshake error codes.
const (
	// ErrCodeIllegalParameter indicates the peer's public ephemeral was zero modulo N.
	ErrCodeIllegalParameter ErrorCode = "ILLEGAL_PARAMETER"
	// ErrCodeBadRecordMac indicates a proof mismatch (wrong password or tampering).
	ErrCodeBadRecordMac ErrorCode = "BAD_RECORD_MAC"
	// ErrCodeKeyNotFound indicates the handshake key is unknown or already consumed.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"
	// ErrCodeExpired indicates the pending handshake outlived its TTL.
	ErrCodeExpired ErrorCode = "EXPIRED"
	// ErrCodeUserNotFound indicates no verifier is registered for the username.
	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	// ErrCodeRateLimited indicates the connection is locked out after repeated failures.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeDecodeError indicates a malformed message.
	ErrCodeDecodeError ErrorCode = "DECODE_ERROR"
	// ErrCodeEncodeError indicates a message could not be encoded.
	ErrCodeEncodeError ErrorCode = "ENCODE_ERROR"

	// ErrCodeInternalError indicates an unexpected server-side failure.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse represents a handshake failure as reported to a peer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
	Details string    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new ErrorResponse.
func NewError(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new ErrorResponse with details.
func NewErrorWithDetails(code ErrorCode, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewDecodeError wraps a codec failure for reporting.
func NewDecodeError(err error) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeDecodeError, "Malformed message", err.Error())
}

// NewRateLimitedError creates a rate limited error.
func NewRateLimitedError(retryAfter int) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeRateLimited, "Too many failed attempts", fmt.Sprintf("Retry after %d seconds", retryAfter))
}

// messages holds the peer-facing text for each code.
// Authentication failures share one message so peers cannot tell them apart by text.
var messages = map[ErrorCode]string{
	ErrCodeIllegalParameter: "Authentication failed",
	ErrCodeBadRecordMac:     "Authentication failed",
	ErrCodeUserNotFound:     "Authentication failed",
	ErrCodeKeyNotFound:      "Handshake not found, restart at pre-auth",
	ErrCodeExpired:          "Handshake expired, restart at pre-auth",
	ErrCodeRateLimited:      "Too many failed attempts",
	ErrCodeDecodeError:      "Malformed message",
	ErrCodeEncodeError:      "Internal error",
	ErrCodeInternalError:    "Internal error",
}

// MessageFor returns the peer-facing message for code.
func MessageFor(code ErrorCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[ErrCodeInternalError]
}

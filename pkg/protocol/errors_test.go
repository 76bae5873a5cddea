package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *protocol.ErrorResponse
		expected string
	}{
		{
			name:     "without details",
			err:      protocol.NewError(protocol.ErrCodeExpired, "Handshake expired"),
			expected: "EXPIRED: Handshake expired",
		},
		{
			name:     "with details",
			err:      protocol.NewErrorWithDetails(protocol.ErrCodeDecodeError, "Malformed message", "truncated input"),
			expected: "DECODE_ERROR: Malformed message (truncated input)",
		},
		{
			name:     "rate limited",
			err:      protocol.NewRateLimitedError(60),
			expected: "RATE_LIMITED: Too many failed attempts (Retry after 60 seconds)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	data, err := json.Marshal(protocol.NewError(protocol.ErrCodeKeyNotFound, "Handshake not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"KEY_NOT_FOUND","message":"Handshake not found"}`, string(data))
}

func TestNewDecodeError(t *testing.T) {
	var req protocol.AuthRequest
	decodeErr := protocol.Unmarshal([]byte{1, 2, 3}, &req)
	require.Error(t, decodeErr)

	resp := protocol.NewDecodeError(decodeErr)
	assert.Equal(t, protocol.ErrCodeDecodeError, resp.Code)
	assert.Contains(t, resp.Details, "truncated input")
}

func TestMessageFor(t *testing.T) {
	// Authentication failures must not be distinguishable by message
	assert.Equal(t, protocol.MessageFor(protocol.ErrCodeBadRecordMac), protocol.MessageFor(protocol.ErrCodeUserNotFound))
	assert.Equal(t, protocol.MessageFor(protocol.ErrCodeBadRecordMac), protocol.MessageFor(protocol.ErrCodeIllegalParameter))

	assert.Equal(t, "Internal error", protocol.MessageFor(protocol.ErrorCode("SOMETHING_ELSE")))
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactor_RedactFields(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name     string
		input    map[string]any
		expected map[string]any
	}{
		{
			name:     "nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "srp secrets",
			input:    map[string]any{"a": "1", "B": "2", "Verifier": "3", "username": "alice"},
			expected: map[string]any{"a": redactedValue, "B": redactedValue, "Verifier": redactedValue, "username": "alice"},
		},
		{
			name: "nested",
			input: map[string]any{
				"record": map[string]any{"username": "alice", "salt": "00ff"},
			},
			expected: map[string]any{
				"record": map[string]any{"username": "alice", "salt": redactedValue},
			},
		},
		{
			name:     "substring keys are not redacted",
			input:    map[string]any{"key_count": 3, "passwords_checked": 1},
			expected: map[string]any{"key_count": 3, "passwords_checked": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.RedactFields(tt.input))
		})
	}
}

func TestRedactor_CustomKeys(t *testing.T) {
	r := NewRedactor()

	r.AddSensitiveKey("Connection")
	assert.Equal(t, redactedValue, r.RedactFields(map[string]any{"connection": "c1"})["connection"])

	r.RemoveSensitiveKey("salt")
	assert.Equal(t, "00ff", r.RedactFields(map[string]any{"salt": "00ff"})["salt"])
}

func TestRedactor_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{"password": "hunter2"}
	NewRedactor().RedactFields(input)
	assert.Equal(t, "hunter2", input["password"])
}

package logging

import (
	"fmt"
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor masks SRP secrets in log fields by key name.
// Keys are matched exactly and case-insensitively.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a Redactor that masks every value an SRP handshake
// must keep out of logs.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]bool{
			// Credentials
			"password": true,
			"x":        true, // Password-derived private key

			// Ephemerals and shared secret
			"a":          true,
			"b":          true,
			"key":        true,
			"shared_key": true,
			"premaster":  true,

			// Proofs and registration material
			"proof":         true,
			"m1":            true,
			"m2":            true,
			"verifier":      true,
			"salt":          true,
			"handshake_key": true,
			"payload":       true,
		},
	}
}

// AddSensitiveKey adds a custom key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RemoveSensitiveKey removes a key from the redaction list.
func (r *Redactor) RemoveSensitiveKey(key string) {
	delete(r.sensitiveKeys, strings.ToLower(key))
}

// RedactFields returns a copy of fields with sensitive values masked.
// Raw byte slices under any key are reduced to their length.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case r.sensitiveKeys[strings.ToLower(k)]:
			redacted[k] = redactedValue
		default:
			redacted[k] = r.redactValue(v)
		}
	}
	return redacted
}

func (r *Redactor) redactValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return r.RedactFields(v)
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(v))
	case error:
		return v.Error()
	default:
		return v
	}
}

package srp

import "errors"

var (
	// ErrIllegalParameter is returned when the peer's public ephemeral is zero modulo N.
	// It signals a broken or malicious peer; the handshake must be abandoned.
	ErrIllegalParameter = errors.New("illegal parameter")

	// ErrBadRecordMac is returned when a proof does not match (wrong password or tampering).
	ErrBadRecordMac = errors.New("bad record mac")
)

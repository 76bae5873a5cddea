// Package protocol defines the SRP wire messages, their fixed binary layout, and error codes.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Field widths of the fixed-layout messages.
const (
	// IntSize is the width of a 4096-bit group element (little-endian).
	IntSize = 512
	// SaltSize is the width of a registration salt.
	SaltSize = 32
	// ProofSize is the width of M1 and M2 (BLAKE2b-512).
	ProofSize = 64
	// HandshakeKeySize is the width of the handshake key (little-endian uint64).
	HandshakeKeySize = 8
	// MaxStringLen is the longest string the 2-byte length prefix can carry.
	MaxStringLen = 1<<16 - 1
)

// ErrProofSize is returned when a digest's output does not fill the proof field exactly.
var ErrProofSize = errors.New("digest size does not match wire proof size")

// CheckProofSize reports whether a digest producing size bytes can carry
// M1 and M2 in AuthRequest and AuthResponse.
func CheckProofSize(size int) error {
	if size != ProofSize {
		return fmt.Errorf("%w: digest produces %d bytes, wire carries %d", ErrProofSize, size, ProofSize)
	}
	return nil
}

// PreAuthRequest opens a login: the client's public ephemeral and claimed username.
type PreAuthRequest struct {
	A        [IntSize]byte
	Username string
}

// PreAuthResponse carries the user's salt, the server's public ephemeral, and
// the handshake key the client must echo in its AuthRequest.
type PreAuthResponse struct {
	Salt         [SaltSize]byte
	B            [IntSize]byte
	HandshakeKey [HandshakeKeySize]byte
}

// AuthRequest carries the client proof M1.
type AuthRequest struct {
	Proof        [ProofSize]byte
	HandshakeKey [HandshakeKeySize]byte
}

// AuthResponse carries the server proof M2.
type AuthResponse struct {
	Proof [ProofSize]byte
}

// RegisterRequest carries a new user's salt and verifier.
type RegisterRequest struct {
	Username string
	Salt     [SaltSize]byte
	Verifier [IntSize]byte
}

func (m *PreAuthRequest) fields(c *cursor) {
	c.bytes("a", m.A[:])
	c.string("username", &m.Username)
}

func (m *PreAuthResponse) fields(c *cursor) {
	c.bytes("salt", m.Salt[:])
	c.bytes("b", m.B[:])
	c.bytes("handshake_key", m.HandshakeKey[:])
}

func (m *AuthRequest) fields(c *cursor) {
	c.bytes("proof", m.Proof[:])
	c.bytes("handshake_key", m.HandshakeKey[:])
}

func (m *AuthResponse) fields(c *cursor) {
	c.bytes("proof", m.Proof[:])
}

func (m *RegisterRequest) fields(c *cursor) {
	c.string("username", &m.Username)
	c.bytes("salt", m.Salt[:])
	c.bytes("verifier", m.Verifier[:])
}

// EncodedLen returns the exact encoded size of m.
func (m *PreAuthRequest) EncodedLen() int { return IntSize + 2 + len(m.Username) }

// EncodedLen returns the exact encoded size of m.
func (m *PreAuthResponse) EncodedLen() int { return SaltSize + IntSize + HandshakeKeySize }

// EncodedLen returns the exact encoded size of m.
func (m *AuthRequest) EncodedLen() int { return ProofSize + HandshakeKeySize }

// EncodedLen returns the exact encoded size of m.
func (m *AuthResponse) EncodedLen() int { return ProofSize }

// EncodedLen returns the exact encoded size of m.
func (m *RegisterRequest) EncodedLen() int { return 2 + len(m.Username) + SaltSize + IntSize }

func (m *PreAuthRequest) name() string  { return "PreAuthRequest" }
func (m *PreAuthResponse) name() string { return "PreAuthResponse" }
func (m *AuthRequest) name() string     { return "AuthRequest" }
func (m *AuthResponse) name() string    { return "AuthResponse" }
func (m *RegisterRequest) name() string { return "RegisterRequest" }

// HandshakeKeyBytes encodes a handshake key in wire order.
func HandshakeKeyBytes(key uint64) [HandshakeKeySize]byte {
	var b [HandshakeKeySize]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return b
}

// HandshakeKeyValue decodes a handshake key from wire order.
func HandshakeKeyValue(b [HandshakeKeySize]byte) uint64 {
	return binary.LittleEndian.Uint64(b[:])
}

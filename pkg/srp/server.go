package srp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/cronokirby/saferith"
)

// Server holds the server's ephemeral private value b for a single handshake.
// It keeps no other mutable state; pending handshakes live in the caller's store.
type Server struct {
	suite Suite
	b     *saferith.Nat // Server ephemeral private value
}

// ServerVerifier is the server state after processing the client's public ephemeral.
type ServerVerifier struct {
	m1  []byte // Expected client proof
	m2  []byte // Server proof
	key *Int   // Premaster secret S
}

// NewServer creates a server with a fresh 4096-bit private ephemeral drawn from crypto/rand.
func NewServer(suite Suite) (*Server, error) {
	var b [Size]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("failed to generate random b: %w", err)
	}
	defer wipe(b[:])

	return NewServerWithEphemeral(suite, b), nil
}

// NewServerWithEphemeral creates a server from a caller-supplied big-endian private ephemeral.
// Use with caution: the value must never be reused across handshakes.
func NewServerWithEphemeral(suite Suite, b [Size]byte) *Server {
	return &Server{
		suite: suite,
		b:     new(saferith.Nat).SetBytes(b[:]),
	}
}

// ComputeBPublic computes B = k*v + g^b mod N.
func (s *Server) ComputeBPublic(k, v *Int) *Int {
	return newInt(modAdd(modMul(k.nat, v.nat), modExp(G.nat, s.b)))
}

// PublicEphemeral returns B for sending to the client.
func (s *Server) PublicEphemeral(v *Int) *Int {
	return s.ComputeBPublic(s.suite.Multiplier(), v)
}

// ProcessReply processes the client's public ephemeral A against the stored verifier v.
func (s *Server) ProcessReply(v, A *Int) (*ServerVerifier, error) {
	// Safeguard against malicious A
	if A.IsZeroModN() {
		return nil, ErrIllegalParameter
	}

	B := s.PublicEphemeral(v)
	u := s.suite.scrambler(A, B)

	key := s.premasterSecret(A, v, u)

	m1 := s.suite.clientProof(A, B, key)
	m2 := s.suite.serverProof(A, m1, key)

	return &ServerVerifier{
		m1:  m1,
		m2:  m2,
		key: key,
	}, nil
}

// premasterSecret computes S = (A * v^u)^b mod N.
func (s *Server) premasterSecret(A, v *Int, u *saferith.Nat) *Int {
	// Step 1: v^u mod N
	vu := modExp(v.nat, u)

	// Step 2: A * v^u mod N
	avu := modMul(A.nat, vu)

	// Step 3: (A * v^u)^b mod N
	return newInt(modExp(avu, s.b))
}

// VerifyClient checks the client's proof M1 in constant time.
func (v *ServerVerifier) VerifyClient(proof []byte) error {
	if subtle.ConstantTimeCompare(v.m1, proof) != 1 {
		return ErrBadRecordMac
	}
	return nil
}

// Key returns the shared premaster secret.
// Only trust it after VerifyClient succeeded.
func (v *ServerVerifier) Key() *Int {
	return v.key
}

// Proof returns M2 for sending to the client.
func (v *ServerVerifier) Proof() []byte {
	return append([]byte(nil), v.m2...)
}

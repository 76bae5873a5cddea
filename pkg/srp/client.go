package srp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/cronokirby/saferith"
)

// Client holds the client's ephemeral private value a for a single handshake.
type Client struct {
	suite Suite
	a     *saferith.Nat // Client ephemeral private value
}

// ClientVerifier is the client state after processing the server's reply.
// It is terminal: it can only report its proof and key and check M2.
type ClientVerifier struct {
	m1  []byte // Client proof
	m2  []byte // Expected server proof
	key *Int   // Premaster secret S
}

// NewClient creates a client with a fresh 4096-bit private ephemeral drawn from crypto/rand.
func NewClient(suite Suite) (*Client, error) {
	var a [Size]byte
	if _, err := rand.Read(a[:]); err != nil {
		return nil, fmt.Errorf("failed to generate random a: %w", err)
	}
	defer wipe(a[:])

	return NewClientWithEphemeral(suite, a), nil
}

// NewClientWithEphemeral creates a client from a caller-supplied big-endian private ephemeral.
// The value must come from a cryptographically secure source and must not be reused.
func NewClientWithEphemeral(suite Suite, a [Size]byte) *Client {
	return &Client{
		suite: suite,
		a:     new(saferith.Nat).SetBytes(a[:]),
	}
}

// PublicEphemeral computes A = g^a mod N.
func (c *Client) PublicEphemeral() *Int {
	return newInt(modExp(G.nat, c.a))
}

// ProcessReply processes the server's Pre-Auth reply.
// username and password are supplied by the user; salt and B come from the server.
func (c *Client) ProcessReply(username, password, salt []byte, B *Int) (*ClientVerifier, error) {
	// Safeguard against malicious B
	if B.IsZeroModN() {
		return nil, ErrIllegalParameter
	}

	A := c.PublicEphemeral()

	u := c.suite.scrambler(A, B)
	k := c.suite.Multiplier()
	x := c.suite.privateKey(username, password, salt)

	key := c.premasterSecret(B, k, x, u)

	m1 := c.suite.clientProof(A, B, key)
	m2 := c.suite.serverProof(A, m1, key)

	return &ClientVerifier{
		m1:  m1,
		m2:  m2,
		key: key,
	}, nil
}

// premasterSecret computes S = (B - k*g^x)^(a + u*x) mod N.
func (c *Client) premasterSecret(B, k *Int, x, u *saferith.Nat) *Int {
	// Step 1: k*g^x mod N
	kgx := modMul(k.nat, modExp(G.nat, x))

	// Step 2: B - k*g^x mod N, with B lifted into [0, N) first
	base := modSub(reduce(B.nat), kgx)

	// Step 3: a + u*x, computed at full width so nothing wraps
	uxBits := u.AnnouncedLen() + x.AnnouncedLen()
	ux := new(saferith.Nat).Mul(u, x, uxBits)
	exponent := new(saferith.Nat).Add(c.a, ux, max(c.a.AnnouncedLen(), uxBits)+1)

	// Step 4: (B - k*g^x)^(a + u*x) mod N
	return newInt(modExp(base, exponent))
}

// ComputeVerifier computes the registration verifier v = g^x mod N.
func ComputeVerifier(suite Suite, username, password, salt []byte) *Int {
	x := suite.privateKey(username, password, salt)
	return newInt(modExp(G.nat, x))
}

// Key returns the shared premaster secret.
// Do not use it before the server has been authenticated by VerifyServer or
// some other means.
func (v *ClientVerifier) Key() *Int {
	return v.key
}

// Proof returns M1 for sending to the server.
func (v *ClientVerifier) Proof() []byte {
	return append([]byte(nil), v.m1...)
}

// VerifyServer checks the server's proof M2 in constant time.
func (v *ClientVerifier) VerifyServer(reply []byte) error {
	if subtle.ConstantTimeCompare(v.m2, reply) != 1 {
		return ErrBadRecordMac
	}
	return nil
}

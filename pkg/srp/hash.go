package srp

import (
	"hash"

	"github.com/cronokirby/saferith"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// Digest is the fast hash used at every internal protocol point (u, k, M1, M2).
type Digest interface {
	New() hash.Hash
	Size() int
}

// PasswordHasher derives the private scalar x from the user's credentials.
// Implementations must be deterministic, one-way, and memory-hard.
type PasswordHasher interface {
	HashPassword(username, password, salt []byte) []byte
}

type blake2b512 struct{}

func (blake2b512) New() hash.Hash {
	// New512 only fails for keys longer than 64 bytes
	h, _ := blake2b.New512(nil)
	return h
}

func (blake2b512) Size() int { return blake2b.Size }

// Blake2b512 is the default protocol digest. Its 64-byte output is the proof width on the wire.
var Blake2b512 Digest = blake2b512{}

// Argon2 parameters (RFC 9106, Argon2id).
type Argon2 struct {
	Time      uint32 // Number of passes
	MemoryKiB uint32 // Memory cost in KiB
	Threads   uint8  // Degree of parallelism
	KeyLen    uint32 // Output length in bytes
}

// DefaultArgon2 returns the default cost parameters. They match the cost of the
// Argon2d deployments this protocol grew out of, but those verifiers are not
// interchangeable with these: x here is Argon2id with the username appended to the salt.
func DefaultArgon2() Argon2 {
	return Argon2{
		Time:      1,
		MemoryKiB: 4096,
		Threads:   1,
		KeyLen:    32,
	}
}

// HashPassword computes x = Argon2id(password, salt | username).
// The salt is fixed-width in every record, so appending the username keeps the
// encoding unambiguous while binding x to the identity.
func (p Argon2) HashPassword(username, password, salt []byte) []byte {
	context := make([]byte, 0, len(salt)+len(username))
	context = append(context, salt...)
	context = append(context, username...)

	return argon2.IDKey(password, context, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// Suite selects the two hash roles used by a handshake.
// Client and server must agree on the Digest; only the client uses Password.
type Suite struct {
	Password PasswordHasher
	Digest   Digest
}

// DefaultSuite returns Argon2id for password hashing and BLAKE2b-512 for protocol hashing.
func DefaultSuite() Suite {
	return Suite{
		Password: DefaultArgon2(),
		Digest:   Blake2b512,
	}
}

// ProofSize returns the length of M1 and M2 under this suite.
func (s Suite) ProofSize() int {
	return s.Digest.Size()
}

// sum hashes the concatenation of parts.
func (s Suite) sum(parts ...[]byte) []byte {
	h := s.Digest.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Multiplier computes the SRP-6a multiplier k = H(N | PAD(g)).
func (s Suite) Multiplier() *Int {
	n, g := N.Bytes(), G.Bytes()
	return intFromSlice(s.sum(n[:], g[:]))
}

// scrambler computes u = H(PAD(A) | PAD(B)).
// It is kept at digest width because it is only ever used as an exponent.
func (s Suite) scrambler(A, B *Int) *saferith.Nat {
	a, b := A.Bytes(), B.Bytes()
	return new(saferith.Nat).SetBytes(s.sum(a[:], b[:]))
}

// clientProof computes M1 = H(A | B | K).
// This intentionally differs from RFC 2945's M1 to stay compatible with deployed peers.
func (s Suite) clientProof(A, B, K *Int) []byte {
	a, b, k := A.Bytes(), B.Bytes(), K.Bytes()
	return s.sum(a[:], b[:], k[:])
}

// serverProof computes M2 = H(A | M1 | K).
func (s Suite) serverProof(A *Int, m1 []byte, K *Int) []byte {
	a, k := A.Bytes(), K.Bytes()
	return s.sum(a[:], m1, k[:])
}

// privateKey derives x from the credentials and wipes the intermediate digest.
func (s Suite) privateKey(username, password, salt []byte) *saferith.Nat {
	digest := s.Password.HashPassword(username, password, salt)
	defer wipe(digest)
	return new(saferith.Nat).SetBytes(digest)
}

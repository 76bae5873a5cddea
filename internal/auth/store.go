package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
)

var (
	// ErrKeyNotFound is returned when no pending handshake matches the
	// connection and handshake key, including one already consumed.
	ErrKeyNotFound = errors.New("handshake key not found")

	// ErrExpired is returned when the pending handshake outlived its deadline.
	ErrExpired = errors.New("handshake expired")
)

// handshakeID is the composite key of a pending handshake.
type handshakeID[K comparable] struct {
	conn K
	key  uint64
}

// pendingHandshake holds everything the Auth step needs from Pre-Auth.
type pendingHandshake[D any] struct {
	server   *srp.Server
	verifier *srp.Int
	a        *srp.Int
	data     D
	expires  time.Time
}

// Authenticated is the result of a successful Auth step.
type Authenticated[D any] struct {
	// Data is the opaque value stored by PreAuth.
	Data D

	key   *srp.Int
	proof [protocol.ProofSize]byte
}

// Key returns the shared key in wire order (little-endian).
func (a *Authenticated[D]) Key() [srp.Size]byte {
	return a.key.LEBytes()
}

// Response returns the AuthResponse carrying M2 for the client.
func (a *Authenticated[D]) Response() *protocol.AuthResponse {
	return &protocol.AuthResponse{Proof: a.proof}
}

// Store tracks in-flight SRP handshakes between Pre-Auth and Auth.
// K identifies the caller's connection; D is opaque data returned on success.
// It is safe for concurrent use; modular arithmetic runs outside the lock.
type Store[K comparable, D any] struct {
	suite   srp.Suite
	mu      sync.Mutex
	pending map[handshakeID[K]]*pendingHandshake[D]
}

// NewStore creates an empty handshake store.
// The suite's digest must produce proofs of exactly protocol.ProofSize bytes.
func NewStore[K comparable, D any](suite srp.Suite) (*Store[K, D], error) {
	if err := protocol.CheckProofSize(suite.ProofSize()); err != nil {
		return nil, err
	}

	return &Store[K, D]{
		suite:   suite,
		pending: make(map[handshakeID[K]]*pendingHandshake[D]),
	}, nil
}

// PreAuth starts a handshake for rec on connection conn.
// The pending handshake is consumed by Auth or removed by Sweep after expires.
func (s *Store[K, D]) PreAuth(req *protocol.PreAuthRequest, rec *UserRecord, conn K, data D, expires time.Time) (*protocol.PreAuthResponse, error) {
	A := srp.IntFromLEBytes(req.A)
	if A.IsZeroModN() {
		return nil, fmt.Errorf("client public ephemeral: %w", srp.ErrIllegalParameter)
	}

	server, err := srp.NewServer(s.suite)
	if err != nil {
		return nil, err
	}

	var keyBytes [protocol.HandshakeKeySize]byte
	if _, err := rand.Read(keyBytes[:]); err != nil {
		return nil, fmt.Errorf("failed to generate handshake key: %w", err)
	}

	v := srp.IntFromLEBytes(rec.Verifier)
	B := server.PublicEphemeral(v)

	id := handshakeID[K]{conn: conn, key: protocol.HandshakeKeyValue(keyBytes)}
	pending := &pendingHandshake[D]{
		server:   server,
		verifier: v,
		a:        A,
		data:     data,
		expires:  expires,
	}

	s.mu.Lock()
	s.pending[id] = pending
	s.mu.Unlock()

	return &protocol.PreAuthResponse{
		Salt:         rec.Salt,
		B:            B.LEBytes(),
		HandshakeKey: keyBytes,
	}, nil
}

// Auth completes the handshake named by req on connection conn.
// The pending handshake is removed before verification, so every key works at
// most once whatever the outcome.
func (s *Store[K, D]) Auth(req *protocol.AuthRequest, conn K, now time.Time) (*Authenticated[D], error) {
	id := handshakeID[K]{conn: conn, key: protocol.HandshakeKeyValue(req.HandshakeKey)}

	s.mu.Lock()
	pending, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		return nil, ErrKeyNotFound
	}
	if !now.Before(pending.expires) {
		return nil, ErrExpired
	}

	verifier, err := pending.server.ProcessReply(pending.verifier, pending.a)
	if err != nil {
		return nil, fmt.Errorf("client public ephemeral: %w", err)
	}
	if err := verifier.VerifyClient(req.Proof[:]); err != nil {
		return nil, fmt.Errorf("client proof: %w", err)
	}

	result := &Authenticated[D]{
		Data: pending.data,
		key:  verifier.Key(),
	}
	copy(result.proof[:], verifier.Proof())
	return result, nil
}

// Sweep removes every pending handshake whose deadline is at or before now
// and returns how many were removed.
func (s *Store[K, D]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, pending := range s.pending {
		if !pending.expires.After(now) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of pending handshakes.
func (s *Store[K, D]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
// onSweep, if non-nil, receives the number of handshakes removed by each pass.
func (s *Store[K, D]) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := s.Sweep(now)
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

// Package client drives the client side of an SRP login over encoded wire
// messages. The caller moves the bytes; this package never touches a transport.
package client

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
)

// ErrHandshakeAnswered is returned when Respond is called on a Handshake that
// already produced its AuthRequest.
var ErrHandshakeAnswered = errors.New("handshake already answered")

// Handshake is a login that has sent its PreAuthRequest.
type Handshake struct {
	suite    srp.Suite
	username string
	client   *srp.Client
}

// Pending is a login that has sent its AuthRequest and awaits the server proof.
type Pending struct {
	verifier *srp.ClientVerifier
}

// Begin starts a login for username and returns the encoded PreAuthRequest.
// The suite's digest must produce proofs of exactly protocol.ProofSize bytes.
func Begin(suite srp.Suite, username string) (*Handshake, []byte, error) {
	if err := protocol.CheckProofSize(suite.ProofSize()); err != nil {
		return nil, nil, err
	}

	client, err := srp.NewClient(suite)
	if err != nil {
		return nil, nil, err
	}

	payload, err := protocol.Marshal(&protocol.PreAuthRequest{
		A:        client.PublicEphemeral().LEBytes(),
		Username: username,
	})
	if err != nil {
		return nil, nil, err
	}

	return &Handshake{suite: suite, username: username, client: client}, payload, nil
}

// Respond processes the encoded PreAuthResponse and returns the encoded
// AuthRequest carrying M1. It succeeds at most once per Handshake.
func (h *Handshake) Respond(password []byte, payload []byte) (*Pending, []byte, error) {
	if h.client == nil {
		return nil, nil, ErrHandshakeAnswered
	}

	var resp protocol.PreAuthResponse
	if err := protocol.Unmarshal(payload, &resp); err != nil {
		return nil, nil, err
	}

	verifier, err := h.client.ProcessReply([]byte(h.username), password, resp.Salt[:], srp.IntFromLEBytes(resp.B))
	if err != nil {
		return nil, nil, fmt.Errorf("server public ephemeral: %w", err)
	}

	req := &protocol.AuthRequest{HandshakeKey: resp.HandshakeKey}
	copy(req.Proof[:], verifier.Proof())

	out, err := protocol.Marshal(req)
	if err != nil {
		return nil, nil, err
	}

	h.client = nil
	return &Pending{verifier: verifier}, out, nil
}

// Finish checks the encoded AuthResponse and returns the shared key
// (little-endian) once the server has proven it holds the verifier.
func (p *Pending) Finish(payload []byte) ([srp.Size]byte, error) {
	var resp protocol.AuthResponse
	if err := protocol.Unmarshal(payload, &resp); err != nil {
		return [srp.Size]byte{}, err
	}

	if err := p.verifier.VerifyServer(resp.Proof[:]); err != nil {
		return [srp.Size]byte{}, fmt.Errorf("server proof: %w", err)
	}
	return p.verifier.Key().LEBytes(), nil
}

// Register derives a verifier for username and password under a fresh
// 32-byte salt and returns the encoded RegisterRequest.
func Register(suite srp.Suite, username string, password []byte) ([]byte, error) {
	req := &protocol.RegisterRequest{Username: username}
	if _, err := rand.Read(req.Salt[:]); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	req.Verifier = srp.ComputeVerifier(suite, []byte(username), password, req.Salt[:]).LEBytes()
	return protocol.Marshal(req)
}

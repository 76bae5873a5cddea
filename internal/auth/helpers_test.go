package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"testing"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
	"github.com/stretchr/testify/require"
)

var testSuite = srp.DefaultSuite()

// stdDigest adapts a standard library hash constructor to srp.Digest.
type stdDigest struct {
	newHash func() hash.Hash
	size    int
}

func (d stdDigest) New() hash.Hash { return d.newHash() }
func (d stdDigest) Size() int      { return d.size }

var (
	sha256Digest = stdDigest{newHash: sha256.New, size: sha256.Size}
	sha512Digest = stdDigest{newHash: sha512.New, size: sha512.Size}
)

func newRecord(t *testing.T, username, password string) *UserRecord {
	t.Helper()

	rec := &UserRecord{Username: username}
	_, err := rand.Read(rec.Salt[:])
	require.NoError(t, err)

	rec.Verifier = srp.ComputeVerifier(testSuite, []byte(username), []byte(password), rec.Salt[:]).LEBytes()
	return rec
}

func newTestStore[K comparable, D any](t *testing.T) *Store[K, D] {
	t.Helper()

	store, err := NewStore[K, D](testSuite)
	require.NoError(t, err)
	return store
}

// startLogin builds a client and its PreAuthRequest.
func startLogin(t *testing.T, username string) (*srp.Client, *protocol.PreAuthRequest) {
	t.Helper()

	client, err := srp.NewClient(testSuite)
	require.NoError(t, err)

	return client, &protocol.PreAuthRequest{
		A:        client.PublicEphemeral().LEBytes(),
		Username: username,
	}
}

// answer processes the server's PreAuthResponse on the client side.
func answer(t *testing.T, client *srp.Client, username, password string, resp *protocol.PreAuthResponse) (*srp.ClientVerifier, *protocol.AuthRequest) {
	t.Helper()

	verifier, err := client.ProcessReply([]byte(username), []byte(password), resp.Salt[:], srp.IntFromLEBytes(resp.B))
	require.NoError(t, err)

	req := &protocol.AuthRequest{HandshakeKey: resp.HandshakeKey}
	copy(req.Proof[:], verifier.Proof())
	return verifier, req
}

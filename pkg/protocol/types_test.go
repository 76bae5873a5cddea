package protocol_test

import (
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, b []byte) {
	t.Helper()
	_, err := rand.Read(b)
	require.NoError(t, err)
}

func randomUsername(t *testing.T, n int) string {
	t.Helper()
	const alphabet = "abcdefghijklmnopqrstuvwxyzäöü€0123456789"
	runes := []rune(alphabet)
	raw := make([]byte, n)
	fill(t, raw)

	var sb strings.Builder
	for _, c := range raw {
		sb.WriteRune(runes[int(c)%len(runes)])
	}
	return sb.String()
}

func TestRoundTrip(t *testing.T) {
	for i := range 8 {
		username := randomUsername(t, i*7)

		preAuthReq := &protocol.PreAuthRequest{Username: username}
		fill(t, preAuthReq.A[:])

		preAuthResp := &protocol.PreAuthResponse{}
		fill(t, preAuthResp.Salt[:])
		fill(t, preAuthResp.B[:])
		fill(t, preAuthResp.HandshakeKey[:])

		authReq := &protocol.AuthRequest{}
		fill(t, authReq.Proof[:])
		fill(t, authReq.HandshakeKey[:])

		authResp := &protocol.AuthResponse{}
		fill(t, authResp.Proof[:])

		registerReq := &protocol.RegisterRequest{Username: username}
		fill(t, registerReq.Salt[:])
		fill(t, registerReq.Verifier[:])

		tests := []struct {
			name  string
			msg   protocol.Message
			empty protocol.Message
		}{
			{name: "PreAuthRequest", msg: preAuthReq, empty: &protocol.PreAuthRequest{}},
			{name: "PreAuthResponse", msg: preAuthResp, empty: &protocol.PreAuthResponse{}},
			{name: "AuthRequest", msg: authReq, empty: &protocol.AuthRequest{}},
			{name: "AuthResponse", msg: authResp, empty: &protocol.AuthResponse{}},
			{name: "RegisterRequest", msg: registerReq, empty: &protocol.RegisterRequest{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := protocol.Marshal(tt.msg)
				require.NoError(t, err)
				assert.Len(t, data, tt.msg.EncodedLen())

				require.NoError(t, protocol.Unmarshal(data, tt.empty))
				if diff := deep.Equal(tt.msg, tt.empty); diff != nil {
					t.Error(diff)
				}
			})
		}
	}
}

func TestEncodedLen(t *testing.T) {
	assert.Equal(t, 512+8+32, (&protocol.PreAuthResponse{}).EncodedLen())
	assert.Equal(t, 64+8, (&protocol.AuthRequest{}).EncodedLen())
	assert.Equal(t, 64, (&protocol.AuthResponse{}).EncodedLen())
	assert.Equal(t, 512+2+5, (&protocol.PreAuthRequest{Username: "alice"}).EncodedLen())
	assert.Equal(t, 2+5+32+512, (&protocol.RegisterRequest{Username: "alice"}).EncodedLen())
}

func TestEncode_Layout(t *testing.T) {
	req := &protocol.RegisterRequest{Username: "bob"}
	req.Salt[0] = 0xAA
	req.Verifier[0] = 0xBB

	data, err := protocol.Marshal(req)
	require.NoError(t, err)

	// 2-byte little-endian length, then raw bytes, then fixed fields in order
	assert.Equal(t, []byte{3, 0, 'b', 'o', 'b'}, data[:5])
	assert.Equal(t, byte(0xAA), data[5])
	assert.Equal(t, byte(0xBB), data[5+protocol.SaltSize])
}

func TestEncode_IntoLargerBuffer(t *testing.T) {
	msg := &protocol.AuthResponse{}
	msg.Proof[0] = 1

	buf := make([]byte, 1024)
	out, err := protocol.Encode(buf, msg)
	require.NoError(t, err)

	assert.Len(t, out, protocol.ProofSize)
	assert.Equal(t, &buf[0], &out[0], "Encode should write into the caller's buffer")
}

func TestEncode_BufferTooSmall(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.Message
		size int
	}{
		{name: "fixed field", msg: &protocol.PreAuthResponse{}, size: protocol.SaltSize + 10},
		{name: "length prefix", msg: &protocol.RegisterRequest{Username: "alice"}, size: 1},
		{name: "string body", msg: &protocol.RegisterRequest{Username: "alice"}, size: 4},
		{name: "empty buffer", msg: &protocol.AuthResponse{}, size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Encode(make([]byte, tt.size), tt.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, protocol.ErrCodec)
			assert.ErrorIs(t, err, protocol.ErrBufferTooSmall)
		})
	}
}

func TestEncode_StringTooLong(t *testing.T) {
	msg := &protocol.PreAuthRequest{Username: strings.Repeat("x", protocol.MaxStringLen+1)}

	_, err := protocol.Encode(make([]byte, 1<<17+protocol.IntSize), msg)
	assert.ErrorIs(t, err, protocol.ErrStringTooLong)

	var codecErr *protocol.CodecError
	require.True(t, errors.As(err, &codecErr))
	assert.Equal(t, "encode", codecErr.Op)
	assert.Equal(t, "PreAuthRequest", codecErr.Message)
	assert.Equal(t, "username", codecErr.Field)
}

func TestEncode_MaxLengthString(t *testing.T) {
	msg := &protocol.RegisterRequest{Username: strings.Repeat("y", protocol.MaxStringLen)}

	data, err := protocol.Marshal(msg)
	require.NoError(t, err)

	var out protocol.RegisterRequest
	require.NoError(t, protocol.Unmarshal(data, &out))
	assert.Equal(t, msg.Username, out.Username)
}

func TestEncode_InvalidUTF8(t *testing.T) {
	msg := &protocol.PreAuthRequest{Username: string([]byte{0xff, 0xfe})}

	_, err := protocol.Marshal(msg)
	assert.ErrorIs(t, err, protocol.ErrInvalidUTF8)
}

func TestDecode_Truncated(t *testing.T) {
	full, err := protocol.Marshal(&protocol.RegisterRequest{Username: "alice"})
	require.NoError(t, err)

	// Every strict prefix must fail, never decode to defaults
	for n := range len(full) {
		var out protocol.RegisterRequest
		err := protocol.Unmarshal(full[:n], &out)
		require.ErrorIs(t, err, protocol.ErrTruncated, "prefix length %d", n)
	}
}

func TestDecode_LengthPrefixBeyondInput(t *testing.T) {
	data := make([]byte, protocol.IntSize+2+3)
	data[protocol.IntSize] = 10 // claims 10 bytes, only 3 follow

	var out protocol.PreAuthRequest
	err := protocol.Unmarshal(data, &out)
	assert.ErrorIs(t, err, protocol.ErrTruncated)
}

func TestDecode_InvalidUTF8(t *testing.T) {
	data := []byte{2, 0, 0xC3, 0x28}
	data = append(data, make([]byte, protocol.SaltSize+protocol.IntSize)...)

	var out protocol.RegisterRequest
	err := protocol.Unmarshal(data, &out)
	assert.ErrorIs(t, err, protocol.ErrInvalidUTF8)
	assert.ErrorIs(t, err, protocol.ErrCodec)
}

func TestDecode_ReturnsRemainder(t *testing.T) {
	msg := &protocol.AuthResponse{}
	msg.Proof[3] = 7

	data, err := protocol.Marshal(msg)
	require.NoError(t, err)
	data = append(data, 0xDE, 0xAD)

	var out protocol.AuthResponse
	rest, err := protocol.Decode(data, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, rest)
	assert.Equal(t, *msg, out)

	err = protocol.Unmarshal(data, &out)
	assert.ErrorIs(t, err, protocol.ErrTrailingData)
}

func TestHandshakeKey(t *testing.T) {
	b := protocol.HandshakeKeyBytes(0x0102030405060708)

	assert.Equal(t, [8]byte{8, 7, 6, 5, 4, 3, 2, 1}, b)
	assert.Equal(t, uint64(0x0102030405060708), protocol.HandshakeKeyValue(b))
}

func TestCheckProofSize(t *testing.T) {
	assert.NoError(t, protocol.CheckProofSize(protocol.ProofSize))

	err := protocol.CheckProofSize(32)
	assert.ErrorIs(t, err, protocol.ErrProofSize)
	assert.ErrorContains(t, err, "digest produces 32 bytes, wire carries 64")
}

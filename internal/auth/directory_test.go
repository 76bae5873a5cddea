//nolint:gosec // G306: Test files use standard permissions
package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFile_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "record.yaml")
	file := NewRecordFile(path)
	rec := newRecord(t, "alice", "correct-password")

	require.NoError(t, file.Save(ctx, rec))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := file.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = file.Lookup(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// No temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordFile_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	file := NewRecordFile(filepath.Join(t.TempDir(), "record.yaml"))

	require.NoError(t, file.Save(ctx, newRecord(t, "alice", "pw")))
	require.NoError(t, file.Save(ctx, newRecord(t, "bob", "pw")))

	_, err := file.Lookup(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = file.Lookup(ctx, "bob")
	assert.NoError(t, err)
}

func TestRecordFile_Missing(t *testing.T) {
	file := NewRecordFile(filepath.Join(t.TempDir(), "record.yaml"))

	_, err := file.Lookup(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordFile_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "bad yaml", content: "username: [", errMsg: "failed to parse user record"},
		{name: "bad base64", content: "username: alice\nsalt: '***'\nverifier: ''\n", errMsg: "salt must be valid base64"},
		{name: "short salt", content: "username: alice\nsalt: AAAA\nverifier: ''\n", errMsg: "salt must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "record.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := NewRecordFile(path).Lookup(context.Background(), "alice")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRecordFile_SaveRejectsInvalid(t *testing.T) {
	file := NewRecordFile(filepath.Join(t.TempDir(), "record.yaml"))

	err := file.Save(context.Background(), &UserRecord{Username: "alice"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, statErr := os.Stat(file.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestDecodeRegistration(t *testing.T) {
	rec := newRecord(t, "alice", "correct-password")
	payload, err := protocol.Marshal(rec.RegisterRequest())
	require.NoError(t, err)

	got, err := DecodeRegistration(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRegistration_Errors(t *testing.T) {
	valid := newRecord(t, "alice", "pw")

	emptyName := *valid
	emptyName.Username = ""
	emptyNamePayload, err := protocol.Marshal(emptyName.RegisterRequest())
	require.NoError(t, err)

	zeroVerifier := *valid
	zeroVerifier.Verifier = srp.N.LEBytes()
	zeroVerifierPayload, err := protocol.Marshal(zeroVerifier.RegisterRequest())
	require.NoError(t, err)

	validPayload, err := protocol.Marshal(valid.RegisterRequest())
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload []byte
		target  error
	}{
		{name: "empty username", payload: emptyNamePayload, target: ErrInvalidRecord},
		{name: "verifier zero mod N", payload: zeroVerifierPayload, target: ErrInvalidRecord},
		{name: "truncated", payload: validPayload[:len(validPayload)-1], target: protocol.ErrTruncated},
		{name: "trailing", payload: append(validPayload, 0), target: protocol.ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRegistration(tt.payload)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	alice := newRecord(t, "alice", "pw")
	dir := NewMemoryDirectory(alice)

	got, err := dir.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	// Lookup returns a copy
	got.Salt[0] ^= 0xff
	again, err := dir.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.Salt, again.Salt)

	_, err = dir.Lookup(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, dir.Save(ctx, newRecord(t, "bob", "pw")))
	_, err = dir.Lookup(ctx, "bob")
	assert.NoError(t, err)
}

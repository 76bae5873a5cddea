package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUserNotFound is returned when no verifier is registered for a username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRecord is returned for registration data that cannot be used.
	ErrInvalidRecord = errors.New("invalid user record")
)

// UserRecord is the server's stored registration for one user.
// Salt and Verifier are kept in wire order; the verifier is little-endian.
type UserRecord struct {
	Username string
	Salt     [protocol.SaltSize]byte
	Verifier [protocol.IntSize]byte
}

// Directory resolves usernames to their stored registration.
type Directory interface {
	// Lookup returns the record for username or an error matching ErrUserNotFound.
	Lookup(ctx context.Context, username string) (*UserRecord, error)
}

// Registry is a Directory that also accepts new registrations.
type Registry interface {
	Directory
	Save(ctx context.Context, rec *UserRecord) error
}

// DecodeRegistration turns an encoded RegisterRequest into a UserRecord.
func DecodeRegistration(payload []byte) (*UserRecord, error) {
	var req protocol.RegisterRequest
	if err := protocol.Unmarshal(payload, &req); err != nil {
		return nil, err
	}

	rec := &UserRecord{
		Username: req.Username,
		Salt:     req.Salt,
		Verifier: req.Verifier,
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// RegisterRequest returns rec in its wire form.
func (r *UserRecord) RegisterRequest() *protocol.RegisterRequest {
	return &protocol.RegisterRequest{
		Username: r.Username,
		Salt:     r.Salt,
		Verifier: r.Verifier,
	}
}

func (r *UserRecord) validate() error {
	if r.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidRecord)
	}
	if srp.IntFromLEBytes(r.Verifier).IsZeroModN() {
		return fmt.Errorf("%w: verifier is zero modulo N", ErrInvalidRecord)
	}
	return nil
}

// recordFile is the on-disk YAML form of a UserRecord.
type recordFile struct {
	Username string `yaml:"username"`
	Salt     string `yaml:"salt"`     // Base64-encoded
	Verifier string `yaml:"verifier"` // Base64-encoded, little-endian
}

// RecordFile is a Registry backed by a single YAML record on disk.
// Saving replaces the previous registration.
type RecordFile struct {
	path string
	mu   sync.RWMutex
}

// NewRecordFile returns a RecordFile stored at path. The file need not exist yet.
func NewRecordFile(path string) *RecordFile {
	return &RecordFile{path: filepath.Clean(path)}
}

// Path returns the location of the record file.
func (f *RecordFile) Path() string {
	return f.path
}

// Lookup reads the record file and returns its record if it belongs to username.
func (f *RecordFile) Lookup(_ context.Context, username string) (*UserRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, err := f.load()
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Username != username {
		return nil, ErrUserNotFound
	}
	return rec, nil
}

// Save atomically replaces the record file with rec (mode 0600).
func (f *RecordFile) Save(_ context.Context, rec *UserRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(&recordFile{
		Username: rec.Username,
		Salt:     base64.StdEncoding.EncodeToString(rec.Salt[:]),
		Verifier: base64.StdEncoding.EncodeToString(rec.Verifier[:]),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	//nolint:gosec // G301: the record itself is written 0600
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	if err := writeFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user record: %w", err)
	}
	return nil
}

// load returns nil, nil when the file does not exist.
func (f *RecordFile) load() (*UserRecord, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user record: %w", err)
	}

	var raw recordFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse user record: %w", err)
	}

	rec := &UserRecord{Username: raw.Username}
	if err := decodeField("salt", raw.Salt, rec.Salt[:]); err != nil {
		return nil, err
	}
	if err := decodeField("verifier", raw.Verifier, rec.Verifier[:]); err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeField(name, encoded string, dst []byte) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %s must be valid base64: %v", ErrInvalidRecord, name, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidRecord, name, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Removing after a successful rename is a no-op.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// MemoryDirectory is an in-memory Registry, mostly for tests and embedding.
type MemoryDirectory struct {
	mu      sync.RWMutex
	records map[string]UserRecord
}

// NewMemoryDirectory returns a MemoryDirectory holding recs.
func NewMemoryDirectory(recs ...*UserRecord) *MemoryDirectory {
	d := &MemoryDirectory{records: make(map[string]UserRecord, len(recs))}
	for _, rec := range recs {
		d.records[rec.Username] = *rec
	}
	return d
}

// Lookup returns a copy of the record for username.
func (d *MemoryDirectory) Lookup(_ context.Context, username string) (*UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &rec, nil
}

// Save adds or replaces the record for rec.Username.
func (d *MemoryDirectory) Save(_ context.Context, rec *UserRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[rec.Username] = *rec
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fzdarsky/srpauth/internal/logging"
	"github.com/fzdarsky/srpauth/pkg/protocol"
	"github.com/fzdarsky/srpauth/pkg/srp"
)

// Session is the data a Service keeps with each pending handshake.
type Session struct {
	Username  string
	StartedAt time.Time
}

// Result is a completed login.
type Result struct {
	Username string
	// SharedKey is the premaster secret S, little-endian.
	SharedKey [srp.Size]byte
	// Response is the encoded AuthResponse to send back to the client.
	Response []byte
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Suite         srp.Suite
	TTL           time.Duration
	SweepInterval time.Duration
	MaxFailures   int
	Lockout       time.Duration
}

const (
	// DefaultHandshakeTTL is how long a client has between Pre-Auth and Auth.
	DefaultHandshakeTTL = 30 * time.Second

	// DefaultSweepInterval is how often expired handshakes are removed.
	DefaultSweepInterval = time.Minute
)

// Service runs the server side of SRP logins over encoded wire messages.
// conn identifies the caller's transport connection; handshakes started on
// one connection cannot be completed on another.
type Service struct {
	directory     Directory
	store         *Store[string, Session]
	limiter       *RateLimiter
	logger        *logging.Logger
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// NewService creates a Service resolving users through directory.
// It fails when the suite's digest does not match the wire proof width.
func NewService(directory Directory, logger *logging.Logger, opts Options) (*Service, error) {
	if opts.Suite.Digest == nil || opts.Suite.Password == nil {
		opts.Suite = srp.DefaultSuite()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultHandshakeTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	store, err := NewStore[string, Session](opts.Suite)
	if err != nil {
		return nil, err
	}

	return &Service{
		directory:     directory,
		store:         store,
		limiter:       NewRateLimiter(opts.MaxFailures, opts.Lockout),
		logger:        logger,
		ttl:           opts.TTL,
		sweepInterval: opts.SweepInterval,
		now:           time.Now,
	}, nil
}

// PreAuth handles an encoded PreAuthRequest and returns the encoded PreAuthResponse.
func (s *Service) PreAuth(ctx context.Context, conn string, payload []byte) ([]byte, error) {
	log := s.logger.With(map[string]any{"connection": conn})

	if err := s.checkLimit(log, "preauth", conn); err != nil {
		return nil, err
	}

	var req protocol.PreAuthRequest
	if err := protocol.Unmarshal(payload, &req); err != nil {
		log.Warn("preauth_invalid_request", map[string]any{"error": err})
		return nil, err
	}
	log = log.With(map[string]any{"username": req.Username})

	rec, err := s.directory.Lookup(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.fail(log, "preauth_unknown_user", conn, err)
			return nil, err
		}
		log.Error("preauth_directory_error", map[string]any{"error": err})
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := s.now()
	resp, err := s.store.PreAuth(&req, rec, conn, Session{Username: rec.Username, StartedAt: now}, now.Add(s.ttl))
	if err != nil {
		if errors.Is(err, srp.ErrIllegalParameter) {
			s.fail(log, "preauth_illegal_parameter", conn, err)
			return nil, err
		}
		log.Error("preauth_internal_error", map[string]any{"error": err})
		return nil, err
	}

	out, err := protocol.Marshal(resp)
	if err != nil {
		return nil, err
	}

	log.Info("preauth_success", map[string]any{"pending": s.store.Len()})
	return out, nil
}

// Auth handles an encoded AuthRequest. On success the returned Result carries
// the shared key and the encoded AuthResponse for the client.
func (s *Service) Auth(ctx context.Context, conn string, payload []byte) (*Result, error) {
	log := s.logger.With(map[string]any{"connection": conn})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkLimit(log, "auth", conn); err != nil {
		return nil, err
	}

	var req protocol.AuthRequest
	if err := protocol.Unmarshal(payload, &req); err != nil {
		log.Warn("auth_invalid_request", map[string]any{"error": err})
		return nil, err
	}

	authenticated, err := s.store.Auth(&req, conn, s.now())
	if err != nil {
		s.fail(log, "auth_failed", conn, err)
		return nil, err
	}

	out, err := protocol.Marshal(authenticated.Response())
	if err != nil {
		return nil, err
	}

	s.limiter.RecordSuccess(conn)
	log.Info("auth_success", map[string]any{
		"username": authenticated.Data.Username,
		"duration": s.now().Sub(authenticated.Data.StartedAt).String(),
	})

	return &Result{
		Username:  authenticated.Data.Username,
		SharedKey: authenticated.Key(),
		Response:  out,
	}, nil
}

// Register decodes an encoded RegisterRequest. When the directory is a
// Registry the record is also saved.
func (s *Service) Register(ctx context.Context, payload []byte) (*UserRecord, error) {
	rec, err := DecodeRegistration(payload)
	if err != nil {
		s.logger.Warn("register_invalid_request", map[string]any{"error": err})
		return nil, err
	}

	if registry, ok := s.directory.(Registry); ok {
		if err := registry.Save(ctx, rec); err != nil {
			s.logger.Error("register_save_failed", map[string]any{"username": rec.Username, "error": err})
			return nil, fmt.Errorf("failed to save registration: %w", err)
		}
	}

	s.logger.Info("register_success", map[string]any{"username": rec.Username})
	return rec, nil
}

// Run sweeps expired handshakes and idle rate-limit trackers until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.store.RunSweeper(ctx, s.sweepInterval, func(removed int) {
			if removed > 0 {
				s.logger.Debug("handshakes_expired", map[string]any{"removed": removed})
			}
		})
	}()
	go func() {
		defer wg.Done()
		s.limiter.Run(ctx, CleanupIntervalRateLimit)
	}()

	wg.Wait()
}

// Pending returns the number of handshakes awaiting Auth.
func (s *Service) Pending() int {
	return s.store.Len()
}

func (s *Service) checkLimit(log *logging.Logger, step, conn string) error {
	retryAfter, err := s.limiter.CheckLimit(conn)
	if err != nil {
		log.Warn(step+"_rate_limited", map[string]any{"retry_after": FormatRetryAfter(retryAfter)})
		return &LockedError{RetryAfter: retryAfter}
	}
	return nil
}

func (s *Service) fail(log *logging.Logger, event, conn string, err error) {
	fields := map[string]any{
		"error": err,
		"code":  string(ErrorCode(err)),
	}
	if lockout := s.limiter.RecordFailure(conn); lockout > 0 {
		fields["locked_for"] = lockout.String()
	}
	log.Warn(event, fields)
}

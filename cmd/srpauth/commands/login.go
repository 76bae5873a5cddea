package commands

import (
	"fmt"
	"time"

	"github.com/fzdarsky/srpauth/internal/auth"
	"github.com/fzdarsky/srpauth/internal/client"
	"github.com/fzdarsky/srpauth/internal/config"
	"github.com/spf13/cobra"
)

// loginConn names the in-process connection used by the login command.
const loginConn = "local"

func loginCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login --user USERNAME",
		Short: "Check a password against the stored user record",
		Long: `Run a complete SRP-6a handshake in-process, with the client side using
the given password and the server side using the stored record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			svc, err := newService(cfg)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, opts)
			if err != nil {
				return err
			}
			defer wipe(password)

			start := time.Now()
			if err := login(cmd, svc, cfg, opts.username, password); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful for %q (%s)\n",
				opts.username, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	userFlags(cmd, opts)
	return cmd
}

func newService(cfg *config.Config) (*auth.Service, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	opts, err := serviceOptions(cfg)
	if err != nil {
		return nil, err
	}

	return auth.NewService(auth.NewRecordFile(cfg.Directory.RecordFile), logger, opts)
}

// serviceOptions maps the handshake, kdf and rate_limit sections onto auth.Options.
func serviceOptions(cfg *config.Config) (auth.Options, error) {
	ttl, err := cfg.GetHandshakeTTL()
	if err != nil {
		return auth.Options{}, err
	}
	sweepInterval, err := cfg.GetSweepInterval()
	if err != nil {
		return auth.Options{}, err
	}
	lockout, err := cfg.GetLockout()
	if err != nil {
		return auth.Options{}, err
	}

	return auth.Options{
		Suite:         cfg.Suite(),
		TTL:           ttl,
		SweepInterval: sweepInterval,
		MaxFailures:   cfg.RateLimit.MaxFailures,
		Lockout:       lockout,
	}, nil
}

// login moves each wire message between the client driver and the service.
func login(cmd *cobra.Command, svc *auth.Service, cfg *config.Config, username string, password []byte) error {
	ctx := cmd.Context()

	handshake, preAuth, err := client.Begin(cfg.Suite(), username)
	if err != nil {
		return err
	}

	preAuthResp, err := svc.PreAuth(ctx, loginConn, preAuth)
	if err != nil {
		return auth.ErrorResponse(err)
	}

	pending, authReq, err := handshake.Respond(password, preAuthResp)
	if err != nil {
		return err
	}

	result, err := svc.Auth(ctx, loginConn, authReq)
	if err != nil {
		return auth.ErrorResponse(err)
	}

	key, err := pending.Finish(result.Response)
	if err != nil {
		return err
	}
	wipe(key[:])
	return nil
}

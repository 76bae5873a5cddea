package commands

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fzdarsky/srpauth/internal/auth"
	"github.com/fzdarsky/srpauth/internal/config"
	"github.com/spf13/cobra"
)

func importCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import REGISTRATION",
		Short: "Store a base64 registration as the server's user record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}

			payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("registration must be valid base64: %w", err)
			}

			records := auth.NewRecordFile(cfg.Directory.RecordFile)
			svc, err := auth.NewService(records, logger, auth.Options{Suite: cfg.Suite()})
			if err != nil {
				return err
			}

			rec, err := svc.Register(cmd.Context(), payload)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", rec.Username, records.Path())
			return nil
		},
	}
}

package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/fzdarsky/srpauth/internal/client"
	"github.com/fzdarsky/srpauth/internal/config"
	"github.com/spf13/cobra"
)

func registerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register --user USERNAME",
		Short: "Print a base64 registration for a new user",
		Long: `Derive a salt and verifier for the user and print the encoded
registration. The password never leaves this machine; pass the output to
"srpauth import" on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, opts)
			if err != nil {
				return err
			}
			defer wipe(password)

			payload, err := client.Register(cfg.Suite(), opts.username, password)
			if err != nil {
				return fmt.Errorf("failed to build registration: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(payload))
			return nil
		},
	}
	userFlags(cmd, opts)
	return cmd
}

// Package commands implements the srpauth subcommands.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fzdarsky/srpauth/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	username   string
	password   string
}

// Execute runs the root command against os.Args until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the srpauth command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "srpauth",
		Short:        "SRP-6a password registration and login tool",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the configuration file")

	root.AddCommand(registerCmd(opts), importCmd(opts), loginCmd(opts))
	return root
}

// userFlags adds --user and --password to cmd.
func userFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.username, "user", "u", "", "username")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password (prompts if not provided)")
	_ = cmd.MarkFlagRequired("user")
}

// readPassword returns the --password flag or prompts for one with hidden input.
// Piped (non-terminal) input is read as a single line.
func readPassword(cmd *cobra.Command, opts *options) ([]byte, error) {
	if opts.password != "" {
		return []byte(opts.password), nil
	}

	in := cmd.InOrStdin()
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	defer fmt.Fprintln(cmd.ErrOrStderr())

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return password, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return nil, errors.New("password must not be empty")
	}
	return []byte(password), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

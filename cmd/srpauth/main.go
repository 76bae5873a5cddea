// Package main provides the srpauth CLI for registering users and checking
// logins against a local SRP-6a record.
package main

import (
	"os"

	"github.com/fzdarsky/srpauth/cmd/srpauth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package auth runs the server side of SRP-6a logins: it tracks pending
// handshakes between Pre-Auth and Auth, resolves users through a Directory,
// and locks out connections after repeated failures.
//
//go:generate go tool mockgen -destination=mock_directory.go -package=auth github.com/fzdarsky/srpauth/internal/auth Directory
package auth

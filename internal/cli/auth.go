// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - Access token management.
//
// Command: auth [subcommand]
// Short:   Store, inspect, or remove the Kimi access token
//
// Subcommands:
//   (default)           Prompt for a token and store it encrypted
//   status              Show whether a token is stored
//   delete              Remove the stored token
//
// The token never touches disk in plaintext: it is sealed with
// AES-256-GCM under a key derived from either a passphrase or a random
// key file, both kept with 0600 permissions.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/security"
)

// HandleAuth handles the "auth" command.
func HandleAuth(args Args) error {
	dir, err := security.DefaultVaultDir()
	if err != nil {
		return err
	}
	vault := security.NewVault(dir)

	switch args.Subcommand {
	case "", "set", "login":
		return handleAuthSet(vault)
	case "status":
		return handleAuthStatus(vault)
	case "delete", "logout":
		return handleAuthDelete(vault)
	default:
		return &UsageError{Message: fmt.Sprintf("unknown auth subcommand: %s", args.Subcommand)}
	}
}

// handleAuthSet prompts for and stores a token.
func handleAuthSet(vault *security.Vault) error {
	token, err := ReadSecret("Access token: ")
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return &UsageError{Message: "empty token"}
	}

	passphrase, err := ReadSecret("Passphrase (empty for key-file mode): ")
	if err != nil {
		return err
	}
	if passphrase != "" {
		confirm, err := ReadSecret("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if confirm != passphrase {
			return &UsageError{Message: "passphrases do not match"}
		}
	}

	if err := vault.SaveToken(token, passphrase); err != nil {
		return err
	}

	fingerprint := kimi.NewClient(token).TokenFingerprint()
	fmt.Printf("%s Token stored (fingerprint %s)\n",
		commandStyle.Render("[OK]"), fingerprint)
	if passphrase != "" {
		fmt.Println(infoStyle.Render("The passphrase will be required on every start."))
	}
	return nil
}

// handleAuthStatus reports whether a token is stored and how it is
// protected.
func handleAuthStatus(vault *security.Vault) error {
	if !vault.HasToken() {
		fmt.Println(warningStyle.Render("No access token stored."))
		fmt.Println(infoStyle.Render("Run 'kimi-tui auth' to store one."))
		return nil
	}

	mode := "key file"
	if vault.RequiresPassphrase() {
		mode = "passphrase"
	}
	fmt.Printf("%s Token stored (%s mode)\n", commandStyle.Render("[OK]"), mode)
	return nil
}

// handleAuthDelete removes the stored token.
func handleAuthDelete(vault *security.Vault) error {
	if !vault.HasToken() {
		fmt.Println(infoStyle.Render("No access token stored."))
		return nil
	}
	if err := vault.DeleteToken(); err != nil {
		return err
	}
	fmt.Println(commandStyle.Render("[OK] Token deleted"))
	return nil
}

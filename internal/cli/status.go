// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command: token, proxy, and storage health.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/security"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println(welcomeStyle.Render("kimi-tui status"))
	fmt.Println()

	// Token
	dir, err := security.DefaultVaultDir()
	if err != nil {
		return err
	}
	vault := security.NewVault(dir)
	if vault.HasToken() {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Token:"), commandStyle.Render("stored"))
	} else {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Token:"), warningStyle.Render("not configured"))
	}

	fmt.Printf("  %s %s\n", infoStyle.Render("Model:"), cfg.Chat.Model)
	fmt.Printf("  %s %s\n", infoStyle.Render("API:"), cfg.API.BaseURL)

	// Proxy reachability
	if cfg.API.UseProxy || args.Proxy {
		client, err := BuildClient(cfg, args)
		if err != nil {
			if errors.Is(err, security.ErrNoToken) {
				fmt.Printf("  %s %s\n",
					infoStyle.Render("Proxy:"), infoStyle.Render("skipped (no token)"))
				return nil
			}
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), kimi.HealthTimeout)
		defer cancel()
		if err := client.CheckHealth(ctx); err != nil {
			fmt.Printf("  %s %s\n",
				infoStyle.Render("Proxy:"),
				warningStyle.Render(fmt.Sprintf("unreachable (%s), using direct", cfg.API.ProxyEndpoint)))
		} else {
			fmt.Printf("  %s %s\n",
				infoStyle.Render("Proxy:"),
				commandStyle.Render(cfg.API.ProxyEndpoint))
		}
	}
	return nil
}

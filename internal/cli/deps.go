// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// deps.go - Shared wiring for CLI commands: config, token vault, API
// client, local storage, and the chat controller.
package cli

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/jeranaias/kimi-tui/internal/chat"
	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/security"
	"github.com/jeranaias/kimi-tui/internal/storage"
	"github.com/jeranaias/kimi-tui/internal/stream"
)

// Deps bundles everything a chat-capable command needs.
type Deps struct {
	Config     *config.Config
	Client     *kimi.Client
	KV         *storage.KV
	Store      *storage.ConversationStore
	Cache      *storage.PromptCache
	Controller *chat.Controller
}

// Close releases the underlying storage.
func (d *Deps) Close() error {
	if d.KV != nil {
		return d.KV.Close()
	}
	return nil
}

// LoadAccessToken resolves the access token: the KIMI_ACCESS_TOKEN
// environment variable wins, then the encrypted vault. Passphrase-mode
// vaults prompt on a TTY.
func LoadAccessToken() (string, error) {
	if token := os.Getenv("KIMI_ACCESS_TOKEN"); token != "" {
		return token, nil
	}

	dir, err := security.DefaultVaultDir()
	if err != nil {
		return "", err
	}
	vault := security.NewVault(dir)
	if !vault.HasToken() {
		return "", security.ErrNoToken
	}

	passphrase := ""
	if vault.RequiresPassphrase() {
		passphrase, err = ReadSecret("Vault passphrase: ")
		if err != nil {
			return "", err
		}
	}
	return vault.LoadToken(passphrase)
}

// ReadSecret reads a line from the terminal with echo disabled.
func ReadSecret(prompt string) (string, error) {
	if err := RequiresTTY("read secret"); err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(raw), nil
}

// BuildClient constructs the API client from config, flags, and the
// stored token.
func BuildClient(cfg *config.Config, args Args) (*kimi.Client, error) {
	token, err := LoadAccessToken()
	if err != nil {
		return nil, err
	}

	client := kimi.NewClient(token).
		WithBaseURL(cfg.API.BaseURL).
		WithIdentity(cfg.API.DeviceID, cfg.API.SessionID, cfg.API.TrafficID).
		WithLanguage(cfg.API.Language).
		WithTimezone(cfg.API.Timezone)

	model := cfg.Chat.Model
	if args.Model != "" {
		model = args.Model
	}
	client = client.WithModel(model)

	useSearch := cfg.Chat.UseSearch
	if args.NoSearch {
		useSearch = false
	}
	client = client.WithSearch(useSearch)

	if args.Research || cfg.Chat.UseResearch {
		client = client.WithResearch(true)
	}

	useProxy := cfg.API.UseProxy
	if args.Proxy {
		useProxy = true
	}
	if args.NoProxy {
		useProxy = false
	}
	if useProxy {
		client = client.WithProxy(cfg.API.ProxyEndpoint)
	}

	return client, nil
}

// OpenDeps wires config, client, storage, and controller for a command.
// The sink receives streamed response patches.
func OpenDeps(args Args, sink stream.Sink) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client, err := BuildClient(cfg, args)
	if err != nil {
		return nil, err
	}

	path, err := storage.DefaultKVPath()
	if err != nil {
		return nil, err
	}
	kv, err := storage.OpenKV(path)
	if err != nil {
		return nil, err
	}

	store := storage.NewConversationStore(kv)
	cache := storage.NewPromptCache(kv)
	controller := chat.NewController(client, store, cache, sink)

	return &Deps{
		Config:     cfg,
		Client:     client,
		KV:         kv,
		Store:      store,
		Cache:      cache,
		Controller: controller,
	}, nil
}

// resumeConversation applies the --resume flag. "last" resumes the most
// recent conversation; anything else is treated as an API session ID.
func resumeConversation(deps *Deps, resume string) error {
	if resume == "" {
		return nil
	}
	if resume == "last" {
		_, err := deps.Controller.Resume()
		return err
	}
	_, err := deps.Controller.ResumeBySessionID(resume)
	return err
}

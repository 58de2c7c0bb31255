// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Conversation listing and export commands.
//
// Commands:
//   list                List saved conversations
//   export <id>         Print a conversation as markdown (pipe to a file)
package cli

import (
	"fmt"

	"github.com/jeranaias/kimi-tui/internal/storage"
)

// HandleList handles the "list" command.
func HandleList(args Args) error {
	store, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	metas, err := store.List()
	if err != nil {
		return err
	}
	printConversationList(metas)
	return nil
}

// HandleExport handles the "export" command.
func HandleExport(args Args) error {
	if args.Subcommand == "" {
		return &UsageError{Message: "usage: kimi-tui export <conversation-id>"}
	}

	store, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	conv, err := store.Load(args.Subcommand)
	if err != nil {
		return err
	}
	fmt.Print(storage.ExportMarkdown(conv))
	return nil
}

// openStore opens the conversation store without touching the API
// client; list and export work with no token configured.
func openStore() (*storage.ConversationStore, func(), error) {
	path, err := storage.DefaultKVPath()
	if err != nil {
		return nil, nil, err
	}
	kv, err := storage.OpenKV(path)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewConversationStore(kv), func() { kv.Close() }, nil
}

/*
Package vellum is a session engine for AI-narrated, choice-branching interactive
fiction. It owns the durable parts of a playthrough: the world state, the
append-only chapter log, and the task queue that dispatches text-generation
requests. Narration itself belongs to an external generation capability.

# Concept

A session is one playthrough, identified by a UUID that doubles as its storage
namespace. Each accepted choice produces exactly one new chapter; chapters are
immutable markdown documents with strictly increasing sequence numbers, and the
world state records the choice history alongside free-form player and world
facts. The engine persists, orders, and exposes generated text; it never
interprets it.

This Hexagonal Architecture keeps the core decoupled from adapters: storage can
live on disk or Redis, generation behind any OpenAI-compatible endpoint, and the
engine can be driven from a terminal, an HTTP API, or an MCP host.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/softgrove/vellum/pkg/adapters/file"
		"github.com/softgrove/vellum/pkg/adapters/openai"
		"github.com/softgrove/vellum/pkg/session"
	)

	func main() {
		ctx := context.Background()

		store := file.NewStateStore("saves")
		chapters := file.NewChapterLog("saves")
		gen := openai.New("", openai.WithBaseURL("http://localhost:11434"))

		ctrl := session.NewController(session.DefaultConfig(), store, chapters, gen)
		if err := ctrl.New(ctx); err != nil {
			log.Fatal(err)
		}

		// Main loop: read chapter -> pick choice -> advance.
		if err := ctrl.Advance(ctx, "open the door"); err != nil {
			log.Fatal(err)
		}
	}
*/
package vellum

// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the bookpoll API server.

bookpoll is a book club service: members suggest books, managers bundle
suggestions into a poll, members vote once per poll, and the poll closes
to pick the plurality winner for the next meeting.

# Starting the Server

The server runs on sqlite by default (handy for a small club) and reads
configuration from a .env file, environment variables, or CLI flags:

	DATABASE_URL=club.db ADMIN_KEY_SALT=... go run main.go

Or with flags:

	go run main.go -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for the promotion key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - BASE_URL (--base-url): Public base URL

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (members, books, suggestions, polls,
    voting, results, events, selections, notes)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - auth: Token generation and capability keys
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main

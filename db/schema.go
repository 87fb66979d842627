// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/readshelf/bookpoll/cliparse"
)

// Open connects to the configured database and verifies the connection.
func Open(cfg cliparse.Config) (*sql.DB, error) {
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}

	conn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is intentionally portable between sqlite and postgres:
// no NOW() defaults (timestamps are always written by the application)
// and only types both engines accept.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Members
CREATE TABLE IF NOT EXISTS member (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    token TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'manager')),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_member_token ON member(token);

-- Books
CREATE TABLE IF NOT EXISTS book (
    id TEXT PRIMARY KEY,
    isbn TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    page_count INTEGER NOT NULL DEFAULT 0,
    published_year INTEGER NOT NULL DEFAULT 0,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    created_by TEXT NOT NULL REFERENCES member(id),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_book_approved ON book(approved);

-- Calendar events
CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    starts_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL REFERENCES member(id),
    created_at TIMESTAMP NOT NULL
);

-- Book polls
CREATE TABLE IF NOT EXISTS book_poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_by TEXT NOT NULL REFERENCES member(id),
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'closed')),
    event_id TEXT REFERENCES event(id),
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_book_poll_status ON book_poll(status);

-- At most one poll may be active at a time
CREATE UNIQUE INDEX IF NOT EXISTS idx_book_poll_single_active
    ON book_poll(status) WHERE status = 'active';

-- Suggestions
CREATE TABLE IF NOT EXISTS suggestion (
    id TEXT PRIMARY KEY,
    book_id TEXT NOT NULL REFERENCES book(id),
    suggested_by TEXT NOT NULL REFERENCES member(id),
    suggested_at TIMESTAMP NOT NULL,
    resubmit_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'in_poll', 'selected', 'rejected', 'withdrawn')),
    poll_id TEXT REFERENCES book_poll(id)
);

CREATE INDEX IF NOT EXISTS idx_suggestion_status ON suggestion(status);
CREATE INDEX IF NOT EXISTS idx_suggestion_poll_id ON suggestion(poll_id);

-- One pending suggestion per member
CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestion_one_pending
    ON suggestion(suggested_by) WHERE status = 'pending';

-- Votes
CREATE TABLE IF NOT EXISTS poll_vote (
    poll_id TEXT NOT NULL REFERENCES book_poll(id) ON DELETE CASCADE,
    member_id TEXT NOT NULL REFERENCES member(id),
    suggestion_id TEXT NOT NULL REFERENCES suggestion(id),
    voted_at TIMESTAMP NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    PRIMARY KEY (poll_id, member_id)
);

CREATE INDEX IF NOT EXISTS idx_poll_vote_suggestion ON poll_vote(suggestion_id);

-- Selections (one book per event)
CREATE TABLE IF NOT EXISTS selection (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE REFERENCES event(id) ON DELETE CASCADE,
    book_id TEXT NOT NULL REFERENCES book(id),
    selected_by TEXT NOT NULL REFERENCES member(id),
    created_at TIMESTAMP NOT NULL
);

-- Notes (one per member per book)
CREATE TABLE IF NOT EXISTS book_note (
    member_id TEXT NOT NULL REFERENCES member(id),
    book_id TEXT NOT NULL REFERENCES book(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (member_id, book_id)
);
`

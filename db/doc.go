// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection and schema creation.

# Opening a Connection

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg)

"sqlite" uses the cgo-free modernc.org/sqlite driver (the default, handy for
development and tests), "postgres" uses lib/pq.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is portable between both engines.

# Tables

  - member: Club members, tokens, and roles
  - book: The catalog, with an approval flag
  - event: Calendar events
  - book_poll: Poll metadata and lifecycle state
  - suggestion: Ballot options with their lifecycle status
  - poll_vote: One vote per member per poll
  - selection: The book assigned to an event
  - book_note: One free-text note per member per book

# Relationships

	book_poll 1──* suggestion
	book_poll 1──* poll_vote
	book 1──* suggestion
	event 1──1 selection

# Invariant Indexes

Two partial unique indexes back the state machine:

  - book_poll(status) WHERE status='active': at most one active poll
  - suggestion(suggested_by) WHERE status='pending': one pending suggestion
    per member

poll_vote's primary key (poll_id, member_id) enforces vote uniqueness.
*/
package db

// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the bookpoll API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - MemberHandler: Registration, identity, promotion
  - BookHandler: Catalog CRUD and approval
  - NoteHandler: Per-member reading notes
  - SuggestionHandler: Suggestion lifecycle and priority listing
  - PollHandler: Poll lifecycle (create, activate, close)
  - VotingHandler: Vote casting and re-voting
  - ResultsHandler: Tally retrieval
  - EventHandler: Calendar events
  - SelectionHandler: Book-to-event assignment

Handlers are created via constructor functions that accept *sql.DB and Config:

	pollHandler := handlers.NewPollHandler(db, cfg)

# Poll Lifecycle

Polls progress through three states: draft → active → closed

	POST /polls                → CreatePoll (bundles suggestions)
	POST /polls/{id}/activate  → ActivatePoll (needs ≥2 options)
	POST /polls/{id}/close     → ClosePoll (picks the plurality winner)

At most one poll may be active at a time; activation and close are
conditional updates, so a racing transition fails with a conflict
instead of applying twice.

# Suggestion Lifecycle

	pending → in_poll → selected | rejected
	pending → withdrawn
	rejected → (resubmit) new pending, old withdrawn

A member holds at most one pending suggestion. Resubmission carries
resubmit_count forward +1, which feeds the priority score managers see
in GET /suggestions/pending.

# Voting

	POST /polls/{id}/vote

One vote per member per poll. Voting again repoints the existing vote.
The tally in tally.go is a pure plurality count with a deterministic
tie-break (earliest-suggested option wins the tie).

# Authentication

Member operations require the X-Member-Token header issued at
registration. Manager-only operations check the member's role.
Promotion to manager requires the X-Admin-Key header.
*/
package handlers

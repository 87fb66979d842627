// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterMemberRequest: username
  - CreateBookRequest: isbn, title, author, ...
  - SuggestBookRequest: book_id
  - CreatePollRequest: title, suggestion_ids, book_ids, event_id
  - ActivatePollRequest: end_date
  - CastVoteRequest: suggestion_id
  - CreateEventRequest: title, starts_at
  - SelectBookRequest: book_id
  - SaveNoteRequest: content

# Response Types

Types for JSON responses:

  - RegisterMemberResponse: member_id, token
  - CreatePollResponse: poll, options, skipped
  - CastVoteResponse: changed, message
  - ClosePollResponse: winner, results
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Member: club member, token and role
  - Book: catalog entry with approval flag
  - Suggestion: ballot option with lifecycle status
  - Poll: poll metadata and lifecycle state
  - Vote: one row per member per poll
  - Event, Selection, Note: calendar satellites
  - OptionCount, PollResults: tally output

# Constants

Poll status values:

	PollDraft  = "draft"
	PollActive = "active"
	PollClosed = "closed"

Suggestion status values:

	SuggestionPending   = "pending"
	SuggestionInPoll    = "in_poll"
	SuggestionSelected  = "selected"
	SuggestionRejected  = "rejected"
	SuggestionWithdrawn = "withdrawn"

Member roles:

	RoleMember  = "member"
	RoleManager = "manager"
*/
package models

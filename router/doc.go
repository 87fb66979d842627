// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the bookpoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Members:

	POST /members/register     - Register and receive a token
	GET  /members/me           - Current member
	POST /members/{id}/promote - Grant manager role (X-Admin-Key)

Book catalog:

	POST   /books              - Add a book (pending approval)
	GET    /books              - Approved catalog (?all=1 for managers)
	GET    /books/{id}         - Single book
	POST   /books/{id}/approve - Approve (manager)
	DELETE /books/{id}         - Delete while unapproved (manager)
	PUT    /books/{id}/note    - Save the caller's note
	GET    /books/{id}/note    - Read the caller's note

Suggestions:

	POST /suggestions               - Suggest a book
	GET  /suggestions/pending       - Priority-ordered pending list
	POST /suggestions/{id}/withdraw - Withdraw own pending suggestion
	POST /suggestions/{id}/resubmit - Resubmit own rejected suggestion

Polls:

	POST /polls               - Create draft poll (manager)
	POST /polls/{id}/activate - Open for voting (manager)
	POST /polls/{id}/close    - Seal and pick the winner (manager)
	GET  /polls/{id}          - Poll and options
	POST /polls/{id}/vote     - Cast or change a vote
	GET  /polls/{id}/results  - Counts, winner, total

Events and selections:

	POST   /events                - Create event (manager)
	GET    /events                - List events
	POST   /events/{id}/selection - Assign a book (manager)
	DELETE /selections/{id}       - Remove assignment (manager)

# Handler Initialization

The router creates handler instances with dependency injection; all
handlers receive the database connection and configuration.
*/
package router

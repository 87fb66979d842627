// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/readshelf/bookpoll/cliparse"
	"github.com/readshelf/bookpoll/handlers"
	"github.com/readshelf/bookpoll/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	memberHandler := handlers.NewMemberHandler(db, cfg)
	bookHandler := handlers.NewBookHandler(db, cfg)
	noteHandler := handlers.NewNoteHandler(db, cfg)
	suggestionHandler := handlers.NewSuggestionHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	eventHandler := handlers.NewEventHandler(db, cfg)
	selectionHandler := handlers.NewSelectionHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Members
	mux.HandleFunc("POST /members/register", middleware.WithLogging(memberHandler.Register))
	mux.HandleFunc("GET /members/me", middleware.WithLogging(memberHandler.GetMe))
	mux.HandleFunc("POST /members/{id}/promote", middleware.WithLogging(memberHandler.Promote))

	// Book catalog
	mux.HandleFunc("POST /books", middleware.WithLogging(bookHandler.CreateBook))
	mux.HandleFunc("GET /books", middleware.WithLogging(bookHandler.ListBooks))
	mux.HandleFunc("GET /books/{id}", middleware.WithLogging(bookHandler.GetBook))
	mux.HandleFunc("POST /books/{id}/approve", middleware.WithLogging(bookHandler.ApproveBook))
	mux.HandleFunc("DELETE /books/{id}", middleware.WithLogging(bookHandler.DeleteBook))

	// Reading notes
	mux.HandleFunc("PUT /books/{id}/note", middleware.WithLogging(noteHandler.SaveNote))
	mux.HandleFunc("GET /books/{id}/note", middleware.WithLogging(noteHandler.GetNote))

	// Suggestions
	mux.HandleFunc("POST /suggestions", middleware.WithLogging(suggestionHandler.Suggest))
	mux.HandleFunc("GET /suggestions/pending", middleware.WithLogging(suggestionHandler.ListPending))
	mux.HandleFunc("POST /suggestions/{id}/withdraw", middleware.WithLogging(suggestionHandler.Withdraw))
	mux.HandleFunc("POST /suggestions/{id}/resubmit", middleware.WithLogging(suggestionHandler.Resubmit))

	// Poll lifecycle (manager operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("POST /polls/{id}/activate", middleware.WithLogging(pollHandler.ActivatePoll))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(pollHandler.ClosePoll))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))

	// Voting and results
	mux.HandleFunc("POST /polls/{id}/vote", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Calendar events and selections
	mux.HandleFunc("POST /events", middleware.WithLogging(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events", middleware.WithLogging(eventHandler.ListEvents))
	mux.HandleFunc("POST /events/{id}/selection", middleware.WithLogging(selectionHandler.SelectBook))
	mux.HandleFunc("DELETE /selections/{id}", middleware.WithLogging(selectionHandler.RemoveSelection))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bookpoll API v1"))
	})

	return mux
}

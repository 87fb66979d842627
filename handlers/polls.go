// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/readshelf/bookpoll/auth"
	"github.com/readshelf/bookpoll/cliparse"
	"github.com/readshelf/bookpoll/middleware"
	"github.com/readshelf/bookpoll/models"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// CreatePoll handles POST /polls
// Bundles pending suggestions (and optionally manager-picked books) into
// a draft poll. IDs that don't resolve or aren't eligible are reported in
// the skipped list rather than silently dropped.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can create polls")
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.SuggestionIDs) == 0 && len(req.BookIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least one suggestion_id or book_id is required")
		return
	}

	var eventID *string
	if req.EventID != "" {
		var exists bool
		err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM event WHERE id = $1)`, req.EventID).Scan(&exists)
		if err != nil {
			slog.Error("failed to query event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		eventID = &req.EventID
	}

	pollID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate poll ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO book_poll (id, title, created_by, status, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pollID, req.Title, member.ID, models.PollDraft, eventID, now)
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	options := []string{}
	skipped := []string{}

	// Re-parent pending suggestions onto the poll. The conditional update
	// is the eligibility check: anything not currently pending is skipped.
	for _, sid := range req.SuggestionIDs {
		res, err := tx.Exec(`
			UPDATE suggestion SET status = $1, poll_id = $2
			WHERE id = $3 AND status = $4
		`, models.SuggestionInPoll, pollID, sid, models.SuggestionPending)
		if err != nil {
			slog.Error("failed to attach suggestion", "error", err, "suggestion_id", sid)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			skipped = append(skipped, sid)
			continue
		}
		options = append(options, sid)
	}

	// Manager-picked books become fresh suggestions directly in the poll,
	// credited to the creating manager.
	for _, bid := range req.BookIDs {
		var approved bool
		err := tx.QueryRow(`SELECT approved FROM book WHERE id = $1`, bid).Scan(&approved)
		if err == sql.ErrNoRows || (err == nil && !approved) {
			skipped = append(skipped, bid)
			continue
		}
		if err != nil {
			slog.Error("failed to query book", "error", err, "book_id", bid)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}

		sid, err := auth.GenerateID(12)
		if err != nil {
			slog.Error("failed to generate suggestion ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		_, err = tx.Exec(`
			INSERT INTO suggestion (id, book_id, suggested_by, suggested_at, resubmit_count, status, poll_id)
			VALUES ($1, $2, $3, $4, 0, $5, $6)
		`, sid, bid, member.ID, now, models.SuggestionInPoll, pollID)
		if err != nil {
			slog.Error("failed to insert suggestion", "error", err, "book_id", bid)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		options = append(options, sid)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", pollID, "options", len(options), "skipped", len(skipped))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll: models.Poll{
			ID:        pollID,
			Title:     req.Title,
			CreatedBy: member.ID,
			Status:    models.PollDraft,
			EventID:   eventID,
			CreatedAt: now,
		},
		Options: options,
		Skipped: skipped,
	})
}

// ActivatePoll handles POST /polls/{id}/activate
func (h *PollHandler) ActivatePoll(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can activate polls")
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	var req models.ActivatePollRequest
	if r.ContentLength > 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	poll, err := loadPoll(h.db, pollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if poll.Status != models.PollDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Only draft polls can be activated")
		return
	}

	var optionCount int
	err = h.db.QueryRow(`SELECT COUNT(*) FROM suggestion WHERE poll_id = $1`, pollID).Scan(&optionCount)
	if err != nil {
		slog.Error("failed to count options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if optionCount < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Poll needs at least 2 options")
		return
	}

	var activeExists bool
	err = h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM book_poll WHERE status = $1)
	`, models.PollActive).Scan(&activeExists)
	if err != nil {
		slog.Error("failed to check active polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if activeExists {
		middleware.ErrorResponse(w, http.StatusConflict, "Another poll is already active")
		return
	}

	startDate := time.Now()
	res, err := h.db.Exec(`
		UPDATE book_poll SET status = $1, start_date = $2, end_date = $3
		WHERE id = $4 AND status = $5
	`, models.PollActive, startDate, req.EndDate, pollID, models.PollDraft)
	if err != nil {
		// The partial unique index on status='active' backstops the
		// application-level check under concurrent activations.
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Another poll is already active")
			return
		}
		slog.Error("failed to activate poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to activate poll")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Only draft polls can be activated")
		return
	}

	slog.Info("poll activated", "poll_id", pollID, "options", optionCount)

	poll.Status = models.PollActive
	poll.StartDate = &startDate
	poll.EndDate = req.EndDate
	middleware.JSONResponse(w, http.StatusOK, poll)
}

// ClosePoll handles POST /polls/{id}/close
// Tallies the votes, marks the plurality winner Selected, everything else
// Rejected, and seals the poll.
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can close polls")
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := loadPoll(h.db, pollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if poll.Status != models.PollActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Only active polls can be closed")
		return
	}

	results, err := ComputeTally(h.db, pollID)
	if err != nil {
		slog.Error("failed to compute tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if results.TotalVotes == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "No votes cast, cannot determine winner")
		return
	}
	winnerID := *results.WinnerID

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	endDate := time.Now()
	res, err := tx.Exec(`
		UPDATE book_poll SET status = $1, end_date = $2
		WHERE id = $3 AND status = $4
	`, models.PollClosed, endDate, pollID, models.PollActive)
	if err != nil {
		slog.Error("failed to close poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Only active polls can be closed")
		return
	}

	_, err = tx.Exec(`
		UPDATE suggestion SET status = $1 WHERE id = $2
	`, models.SuggestionSelected, winnerID)
	if err != nil {
		slog.Error("failed to mark winner", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}

	_, err = tx.Exec(`
		UPDATE suggestion SET status = $1 WHERE poll_id = $2 AND id != $3
	`, models.SuggestionRejected, pollID, winnerID)
	if err != nil {
		slog.Error("failed to mark losers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}

	winner, err := loadSuggestion(h.db, winnerID)
	if err != nil {
		slog.Error("failed to load winner", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("poll closed", "poll_id", pollID, "winner_id", winnerID, "total_votes", results.TotalVotes)

	middleware.JSONResponse(w, http.StatusOK, models.ClosePollResponse{
		Winner:  winner,
		Results: results,
	})
}

// GetPoll handles GET /polls/{id}
// Returns the poll and its ballot options.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := loadPoll(h.db, pollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, book_id, suggested_by, suggested_at, resubmit_count, status, poll_id
		FROM suggestion
		WHERE poll_id = $1
		ORDER BY suggested_at, id
	`, pollID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	options := []models.Suggestion{}
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(&s.ID, &s.BookID, &s.SuggestedBy, &s.SuggestedAt,
			&s.ResubmitCount, &s.Status, &s.PollID); err != nil {
			slog.Error("failed to scan option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		options = append(options, s)
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithOptions{
		Poll:    poll,
		Options: options,
	})
}

// loadPoll fetches a single poll row.
func loadPoll(db *sql.DB, pollID string) (models.Poll, error) {
	var p models.Poll
	err := db.QueryRow(`
		SELECT id, title, created_by, status, event_id, start_date, end_date, created_at
		FROM book_poll
		WHERE id = $1
	`, pollID).Scan(&p.ID, &p.Title, &p.CreatedBy, &p.Status, &p.EventID, &p.StartDate, &p.EndDate, &p.CreatedAt)
	return p, err
}

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

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// CastVote handles POST /polls/{id}/vote
// One vote per member per poll: voting again repoints the existing vote
// at the new option instead of adding a second row.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SuggestionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "suggestion_id is required")
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
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not active")
		return
	}

	// The chosen option must belong to this exact poll
	var optionPollID sql.NullString
	err = h.db.QueryRow(`SELECT poll_id FROM suggestion WHERE id = $1`, req.SuggestionID).Scan(&optionPollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Suggestion not found")
		return
	}
	if err != nil {
		slog.Error("failed to query suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !optionPollID.Valid || optionPollID.String != pollID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Suggestion does not belong to this poll")
		return
	}

	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.AdminKeySalt)
	userAgent := r.UserAgent()
	now := time.Now()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(`
		SELECT suggestion_id FROM poll_vote WHERE poll_id = $1 AND member_id = $2
	`, pollID, member.ID).Scan(&existing)

	isUpdate := err != sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query existing vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if isUpdate {
		_, err = tx.Exec(`
			UPDATE poll_vote
			SET suggestion_id = $1, voted_at = $2, ip_hash = $3, user_agent = $4
			WHERE poll_id = $5 AND member_id = $6
		`, req.SuggestionID, now, ipHash, userAgent, pollID, member.ID)
	} else {
		_, err = tx.Exec(`
			INSERT INTO poll_vote (poll_id, member_id, suggestion_id, voted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, pollID, member.ID, req.SuggestionID, now, ipHash, userAgent)
	}
	if err != nil {
		slog.Error("failed to save vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}

	message := "Vote recorded"
	if isUpdate {
		message = "Vote changed"
	}

	slog.Info("vote cast", "poll_id", pollID, "member_id", member.ID, "is_update", isUpdate)

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Changed: isUpdate,
		Message: message,
	})
}

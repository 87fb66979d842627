// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/readshelf/bookpoll/auth"
	"github.com/readshelf/bookpoll/cliparse"
	"github.com/readshelf/bookpoll/middleware"
	"github.com/readshelf/bookpoll/models"
)

type SuggestionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSuggestionHandler(db *sql.DB, cfg cliparse.Config) *SuggestionHandler {
	return &SuggestionHandler{db: db, cfg: cfg}
}

// CalculatePriority scores a suggestion for the managers' pending list.
// Each resubmission weighs as much as ten days of waiting.
func CalculatePriority(resubmitCount int, suggestedAt, now time.Time) int {
	days := int(now.Sub(suggestedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return resubmitCount*10 + days
}

// Suggest handles POST /suggestions
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	var req models.SuggestBookRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.BookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book_id is required")
		return
	}

	book, err := loadBook(h.db, req.BookID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		slog.Error("failed to query book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !book.Approved {
		middleware.ErrorResponse(w, http.StatusConflict, "Only approved books can be suggested")
		return
	}

	var hasPending bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM suggestion
			WHERE suggested_by = $1 AND status = $2
		)
	`, member.ID, models.SuggestionPending).Scan(&hasPending)
	if err != nil {
		slog.Error("failed to check pending suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if hasPending {
		middleware.ErrorResponse(w, http.StatusConflict, "You already have a pending suggestion")
		return
	}

	suggestionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate suggestion ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create suggestion")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO suggestion (id, book_id, suggested_by, suggested_at, resubmit_count, status)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, suggestionID, req.BookID, member.ID, now, models.SuggestionPending)

	if err != nil {
		// The partial unique index also guards the one-pending rule
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "You already have a pending suggestion")
			return
		}
		slog.Error("failed to insert suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create suggestion")
		return
	}

	slog.Info("book suggested", "suggestion_id", suggestionID, "book_id", req.BookID, "member_id", member.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.Suggestion{
		ID:          suggestionID,
		BookID:      req.BookID,
		SuggestedBy: member.ID,
		SuggestedAt: now,
		Status:      models.SuggestionPending,
	})
}

// Withdraw handles POST /suggestions/{id}/withdraw
func (h *SuggestionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	suggestionID := r.PathValue("id")
	if suggestionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "suggestion id is required")
		return
	}

	sug, err := loadSuggestion(h.db, suggestionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Suggestion not found")
		return
	}
	if err != nil {
		slog.Error("failed to query suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if sug.SuggestedBy != member.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only withdraw your own suggestions")
		return
	}
	if sug.Status != models.SuggestionPending {
		middleware.ErrorResponse(w, http.StatusConflict, "Only pending suggestions can be withdrawn")
		return
	}

	// Conditional update so a racing transition fails cleanly
	res, err := h.db.Exec(`
		UPDATE suggestion SET status = $1 WHERE id = $2 AND status = $3
	`, models.SuggestionWithdrawn, suggestionID, models.SuggestionPending)
	if err != nil {
		slog.Error("failed to withdraw suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Only pending suggestions can be withdrawn")
		return
	}

	slog.Info("suggestion withdrawn", "suggestion_id", suggestionID, "member_id", member.ID)

	sug.Status = models.SuggestionWithdrawn
	middleware.JSONResponse(w, http.StatusOK, sug)
}

// Resubmit handles POST /suggestions/{id}/resubmit
// Creates a fresh pending suggestion carrying resubmit_count+1 and
// retires the rejected one.
func (h *SuggestionHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	suggestionID := r.PathValue("id")
	if suggestionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "suggestion id is required")
		return
	}

	sug, err := loadSuggestion(h.db, suggestionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Suggestion not found")
		return
	}
	if err != nil {
		slog.Error("failed to query suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if sug.SuggestedBy != member.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only resubmit your own suggestions")
		return
	}
	if sug.Status != models.SuggestionRejected {
		middleware.ErrorResponse(w, http.StatusConflict, "Only rejected suggestions can be resubmitted")
		return
	}

	var hasPending bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM suggestion
			WHERE suggested_by = $1 AND status = $2
		)
	`, member.ID, models.SuggestionPending).Scan(&hasPending)
	if err != nil {
		slog.Error("failed to check pending suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if hasPending {
		middleware.ErrorResponse(w, http.StatusConflict, "You already have a pending suggestion")
		return
	}

	newID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate suggestion ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to resubmit suggestion")
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
		INSERT INTO suggestion (id, book_id, suggested_by, suggested_at, resubmit_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, newID, sug.BookID, member.ID, now, sug.ResubmitCount+1, models.SuggestionPending)
	if err != nil {
		slog.Error("failed to insert resubmission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to resubmit suggestion")
		return
	}

	_, err = tx.Exec(`
		UPDATE suggestion SET status = $1 WHERE id = $2
	`, models.SuggestionWithdrawn, suggestionID)
	if err != nil {
		slog.Error("failed to retire old suggestion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to resubmit suggestion")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to resubmit suggestion")
		return
	}

	slog.Info("suggestion resubmitted", "old_id", suggestionID, "new_id", newID, "resubmit_count", sug.ResubmitCount+1)

	middleware.JSONResponse(w, http.StatusCreated, models.Suggestion{
		ID:            newID,
		BookID:        sug.BookID,
		SuggestedBy:   member.ID,
		SuggestedAt:   now,
		ResubmitCount: sug.ResubmitCount + 1,
		Status:        models.SuggestionPending,
	})
}

// ListPending handles GET /suggestions/pending
// Ordered by priority so older and more-resubmitted suggestions surface
// first when a manager bundles the next poll.
func (h *SuggestionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if _, err := resolveMember(h.db, r); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	rows, err := h.db.Query(`
		SELECT s.id, s.book_id, s.suggested_by, s.suggested_at, s.resubmit_count, s.status,
		       b.id, b.isbn, b.title, b.author, b.description, b.page_count, b.published_year, b.approved, b.created_by, b.created_at
		FROM suggestion s
		JOIN book b ON b.id = s.book_id
		WHERE s.status = $1
		ORDER BY s.suggested_at, s.id
	`, models.SuggestionPending)
	if err != nil {
		slog.Error("failed to query pending suggestions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now()
	pending := []models.PendingSuggestion{}
	for rows.Next() {
		var p models.PendingSuggestion
		s := &p.Suggestion
		b := &p.Book
		if err := rows.Scan(&s.ID, &s.BookID, &s.SuggestedBy, &s.SuggestedAt, &s.ResubmitCount, &s.Status,
			&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Description, &b.PageCount, &b.PublishedYear,
			&b.Approved, &b.CreatedBy, &b.CreatedAt); err != nil {
			slog.Error("failed to scan pending suggestion", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		p.Priority = CalculatePriority(s.ResubmitCount, s.SuggestedAt, now)
		p.Age = humanize.Time(s.SuggestedAt)
		pending = append(pending, p)
	}

	// Highest priority first; the query already fixed the tie order
	// (earliest suggested_at, then id) and the sort is stable.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority > pending[j].Priority
	})

	middleware.JSONResponse(w, http.StatusOK, pending)
}

// loadSuggestion fetches a single suggestion row.
func loadSuggestion(db *sql.DB, id string) (models.Suggestion, error) {
	var s models.Suggestion
	err := db.QueryRow(`
		SELECT id, book_id, suggested_by, suggested_at, resubmit_count, status, poll_id
		FROM suggestion
		WHERE id = $1
	`, id).Scan(&s.ID, &s.BookID, &s.SuggestedBy, &s.SuggestedAt, &s.ResubmitCount, &s.Status, &s.PollID)
	return s, err
}

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

type SelectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSelectionHandler(db *sql.DB, cfg cliparse.Config) *SelectionHandler {
	return &SelectionHandler{db: db, cfg: cfg}
}

// SelectBook handles POST /events/{id}/selection
// One-shot assignment of an approved book to an event.
func (h *SelectionHandler) SelectBook(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can select books")
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	var req models.SelectBookRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.BookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book_id is required")
		return
	}

	var exists bool
	err = h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM event WHERE id = $1)`, eventID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
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
		middleware.ErrorResponse(w, http.StatusConflict, "Only approved books can be selected")
		return
	}

	selectionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate selection ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to select book")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO selection (id, event_id, book_id, selected_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, selectionID, eventID, req.BookID, member.ID, now)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "This event already has a book selected")
			return
		}
		slog.Error("failed to insert selection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to select book")
		return
	}

	slog.Info("book selected", "selection_id", selectionID, "event_id", eventID, "book_id", req.BookID)

	middleware.JSONResponse(w, http.StatusCreated, models.Selection{
		ID:         selectionID,
		EventID:    eventID,
		BookID:     req.BookID,
		SelectedBy: member.ID,
		CreatedAt:  now,
	})
}

// RemoveSelection handles DELETE /selections/{id}
func (h *SelectionHandler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can remove selections")
		return
	}

	selectionID := r.PathValue("id")
	if selectionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "selection id is required")
		return
	}

	res, err := h.db.Exec(`DELETE FROM selection WHERE id = $1`, selectionID)
	if err != nil {
		slog.Error("failed to delete selection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Selection not found")
		return
	}

	slog.Info("selection removed", "selection_id", selectionID, "by", member.ID)

	w.WriteHeader(http.StatusNoContent)
}

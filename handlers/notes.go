// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/readshelf/bookpoll/cliparse"
	"github.com/readshelf/bookpoll/middleware"
	"github.com/readshelf/bookpoll/models"
)

type NoteHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewNoteHandler(db *sql.DB, cfg cliparse.Config) *NoteHandler {
	return &NoteHandler{db: db, cfg: cfg}
}

// SaveNote handles PUT /books/{id}/note
// Upsert: one note per member per book, no history.
func (h *NoteHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	bookID := r.PathValue("id")
	if bookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book id is required")
		return
	}

	var req models.SaveNoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	if _, err := loadBook(h.db, bookID); err != nil {
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Book not found")
			return
		}
		slog.Error("failed to query book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now()

	var createdAt time.Time
	err = h.db.QueryRow(`
		SELECT created_at FROM book_note WHERE member_id = $1 AND book_id = $2
	`, member.ID, bookID).Scan(&createdAt)

	isUpdate := err != sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query note", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if isUpdate {
		_, err = h.db.Exec(`
			UPDATE book_note SET content = $1, updated_at = $2
			WHERE member_id = $3 AND book_id = $4
		`, req.Content, now, member.ID, bookID)
	} else {
		createdAt = now
		_, err = h.db.Exec(`
			INSERT INTO book_note (member_id, book_id, content, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, member.ID, bookID, req.Content, now, now)
	}
	if err != nil {
		slog.Error("failed to save note", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save note")
		return
	}

	slog.Info("note saved", "book_id", bookID, "member_id", member.ID, "is_update", isUpdate)

	status := http.StatusCreated
	if isUpdate {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, models.Note{
		BookID:    bookID,
		Content:   req.Content,
		CreatedAt: createdAt,
		UpdatedAt: now,
	})
}

// GetNote handles GET /books/{id}/note
// Returns the caller's own note for the book.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	bookID := r.PathValue("id")
	if bookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book id is required")
		return
	}

	var note models.Note
	err = h.db.QueryRow(`
		SELECT book_id, content, created_at, updated_at
		FROM book_note
		WHERE member_id = $1 AND book_id = $2
	`, member.ID, bookID).Scan(&note.BookID, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		slog.Error("failed to query note", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, note)
}

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

type BookHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewBookHandler(db *sql.DB, cfg cliparse.Config) *BookHandler {
	return &BookHandler{db: db, cfg: cfg}
}

// CreateBook handles POST /books
// Books created by managers are approved immediately; everyone else's
// wait for manager approval.
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	var req models.CreateBookRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ISBN == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "isbn is required")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Author == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "author is required")
		return
	}

	bookID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate book ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create book")
		return
	}

	approved := member.Role == models.RoleManager
	now := time.Now()

	_, err = h.db.Exec(`
		INSERT INTO book (id, isbn, title, author, description, page_count, published_year, approved, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, bookID, req.ISBN, req.Title, req.Author, req.Description, req.PageCount, req.PublishedYear, approved, member.ID, now)

	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "A book with this ISBN already exists")
			return
		}
		slog.Error("failed to insert book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create book")
		return
	}

	slog.Info("book created", "book_id", bookID, "isbn", req.ISBN, "approved", approved)

	middleware.JSONResponse(w, http.StatusCreated, models.Book{
		ID:            bookID,
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		PageCount:     req.PageCount,
		PublishedYear: req.PublishedYear,
		Approved:      approved,
		CreatedBy:     member.ID,
		CreatedAt:     now,
	})
}

// ListBooks handles GET /books
// Returns the approved catalog; managers may pass ?all=1 to include
// books awaiting approval.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	includeAll := r.URL.Query().Get("all") == "1" && member.Role == models.RoleManager

	query := `
		SELECT id, isbn, title, author, description, page_count, published_year, approved, created_by, created_at
		FROM book
		WHERE approved = TRUE
		ORDER BY title
	`
	if includeAll {
		query = `
			SELECT id, isbn, title, author, description, page_count, published_year, approved, created_by, created_at
			FROM book
			ORDER BY title
		`
	}

	rows, err := h.db.Query(query)
	if err != nil {
		slog.Error("failed to query books", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Description,
			&b.PageCount, &b.PublishedYear, &b.Approved, &b.CreatedBy, &b.CreatedAt); err != nil {
			slog.Error("failed to scan book", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		books = append(books, b)
	}

	middleware.JSONResponse(w, http.StatusOK, books)
}

// GetBook handles GET /books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	if bookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book id is required")
		return
	}

	book, err := loadBook(h.db, bookID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		slog.Error("failed to query book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, book)
}

// ApproveBook handles POST /books/{id}/approve
func (h *BookHandler) ApproveBook(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can approve books")
		return
	}

	bookID := r.PathValue("id")
	if bookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book id is required")
		return
	}

	res, err := h.db.Exec(`UPDATE book SET approved = TRUE WHERE id = $1`, bookID)
	if err != nil {
		slog.Error("failed to approve book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Book not found")
		return
	}

	slog.Info("book approved", "book_id", bookID, "by", member.ID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"book_id": bookID})
}

// DeleteBook handles DELETE /books/{id}
// Deletion is only allowed while the book is unapproved.
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can delete books")
		return
	}

	bookID := r.PathValue("id")
	if bookID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "book id is required")
		return
	}

	var approved bool
	err = h.db.QueryRow(`SELECT approved FROM book WHERE id = $1`, bookID).Scan(&approved)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		slog.Error("failed to query book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if approved {
		middleware.ErrorResponse(w, http.StatusConflict, "Only unapproved books can be deleted")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM book WHERE id = $1`, bookID); err != nil {
		slog.Error("failed to delete book", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("book deleted", "book_id", bookID, "by", member.ID)

	w.WriteHeader(http.StatusNoContent)
}

// loadBook fetches a single book row.
func loadBook(db *sql.DB, bookID string) (models.Book, error) {
	var b models.Book
	err := db.QueryRow(`
		SELECT id, isbn, title, author, description, page_count, published_year, approved, created_by, created_at
		FROM book
		WHERE id = $1
	`, bookID).Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Description,
		&b.PageCount, &b.PublishedYear, &b.Approved, &b.CreatedBy, &b.CreatedAt)
	return b, err
}

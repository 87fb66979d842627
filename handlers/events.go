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

type EventHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config) *EventHandler {
	return &EventHandler{db: db, cfg: cfg}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}
	if member.Role != models.RoleManager {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only managers can create events")
		return
	}

	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartsAt.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "starts_at is required")
		return
	}

	eventID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate event ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO event (id, title, starts_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, eventID, req.Title, req.StartsAt, member.ID, now)
	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "title", req.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.Event{
		ID:        eventID,
		Title:     req.Title,
		StartsAt:  req.StartsAt,
		CreatedBy: member.ID,
		CreatedAt: now,
	})
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := resolveMember(h.db, r); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, title, starts_at, created_by, created_at
		FROM event
		ORDER BY starts_at
	`)
	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		events = append(events, e)
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

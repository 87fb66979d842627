// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/readshelf/bookpoll/auth"
	"github.com/readshelf/bookpoll/cliparse"
	"github.com/readshelf/bookpoll/middleware"
	"github.com/readshelf/bookpoll/models"
)

var errNoMemberToken = errors.New("missing member token")

type MemberHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewMemberHandler(db *sql.DB, cfg cliparse.Config) *MemberHandler {
	return &MemberHandler{db: db, cfg: cfg}
}

// Register handles POST /members/register
// Creates a member and hands back its personal token.
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(req.Username) < 2 || len(req.Username) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	memberID := uuid.NewString()

	token, err := auth.GenerateMemberToken()
	if err != nil {
		slog.Error("failed to generate member token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register member")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO member (id, username, token, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, memberID, req.Username, token, models.RoleMember, time.Now())

	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("failed to insert member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register member")
		return
	}

	slog.Info("member registered", "member_id", memberID, "username", req.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterMemberResponse{
		MemberID: memberID,
		Token:    token,
	})
}

// GetMe handles GET /members/me
func (h *MemberHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	member, err := resolveMember(h.db, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, member)
}

// Promote handles POST /members/{id}/promote
// Grants the manager role. The caller presents the out-of-band admin key
// derived from the target member ID and the server salt.
func (h *MemberHandler) Promote(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	if memberID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "member id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(memberID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	res, err := h.db.Exec(`
		UPDATE member SET role = $1 WHERE id = $2
	`, models.RoleManager, memberID)

	if err != nil {
		slog.Error("failed to promote member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Member not found")
		return
	}

	slog.Info("member promoted", "member_id", memberID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"member_id": memberID,
		"role":      models.RoleManager,
	})
}

// resolveMember loads the member identified by the X-Member-Token header.
func resolveMember(db *sql.DB, r *http.Request) (models.Member, error) {
	token := r.Header.Get("X-Member-Token")
	if token == "" {
		return models.Member{}, errNoMemberToken
	}

	var m models.Member
	err := db.QueryRow(`
		SELECT id, username, token, role, created_at
		FROM member
		WHERE token = $1
	`, token).Scan(&m.ID, &m.Username, &m.Token, &m.Role, &m.CreatedAt)
	if err != nil {
		return models.Member{}, err
	}

	return m, nil
}

// isUniqueViolation reports whether err is a unique constraint failure
// from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

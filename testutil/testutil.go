// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/readshelf/bookpoll/auth"
	"github.com/readshelf/bookpoll/cliparse"
	appdb "github.com/readshelf/bookpoll/db"
	"github.com/readshelf/bookpoll/models"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection, or each pooled connection gets its own memory db
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	if err := appdb.CreateSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
		BaseURL:      "http://localhost:3318",
	}
}

// CreateTestMember inserts a member with the given role and returns its
// ID and token.
func CreateTestMember(t *testing.T, db *sql.DB, username, role string) (memberID, token string) {
	t.Helper()

	memberID, _ = auth.GenerateID(16)
	token, _ = auth.GenerateMemberToken()

	_, err := db.Exec(`
		INSERT INTO member (id, username, token, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, memberID, username, token, role, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return memberID, token
}

// CreateTestBook inserts a book and returns its ID.
func CreateTestBook(t *testing.T, db *sql.DB, title, createdBy string, approved bool) string {
	t.Helper()

	bookID, _ := auth.GenerateID(12)
	isbn, _ := auth.GenerateID(6)

	_, err := db.Exec(`
		INSERT INTO book (id, isbn, title, author, description, page_count, published_year, approved, created_by, created_at)
		VALUES ($1, $2, $3, 'Test Author', '', 300, 2020, $4, $5, $6)
	`, bookID, isbn, title, approved, createdBy, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test book: %v", err)
	}

	return bookID
}

// CreateTestSuggestion inserts a suggestion and returns its ID.
func CreateTestSuggestion(t *testing.T, db *sql.DB, bookID, memberID, status string, resubmitCount int, suggestedAt time.Time) string {
	t.Helper()

	suggestionID, _ := auth.GenerateID(12)

	_, err := db.Exec(`
		INSERT INTO suggestion (id, book_id, suggested_by, suggested_at, resubmit_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, suggestionID, bookID, memberID, suggestedAt, resubmitCount, status)
	if err != nil {
		t.Fatalf("Failed to create test suggestion: %v", err)
	}

	return suggestionID
}

// CreateTestPoll inserts a poll and returns its ID.
// status should be "draft", "active", or "closed".
func CreateTestPoll(t *testing.T, db *sql.DB, createdBy, status string) string {
	t.Helper()

	pollID, _ := auth.GenerateID(16)

	var startDate *time.Time
	if status == models.PollActive || status == models.PollClosed {
		now := time.Now()
		startDate = &now
	}
	var endDate *time.Time
	if status == models.PollClosed {
		now := time.Now()
		endDate = &now
	}

	_, err := db.Exec(`
		INSERT INTO book_poll (id, title, created_by, status, start_date, end_date, created_at)
		VALUES ($1, 'Test Poll', $2, $3, $4, $5, $6)
	`, pollID, createdBy, status, startDate, endDate, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID
}

// AttachTestOption inserts an in_poll suggestion attached to a poll and
// returns its ID. suggestedAt doubles as the tie-break criterion.
func AttachTestOption(t *testing.T, db *sql.DB, pollID, bookID, memberID string, suggestedAt time.Time) string {
	t.Helper()

	suggestionID, _ := auth.GenerateID(12)

	_, err := db.Exec(`
		INSERT INTO suggestion (id, book_id, suggested_by, suggested_at, resubmit_count, status, poll_id)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`, suggestionID, bookID, memberID, suggestedAt, models.SuggestionInPoll, pollID)
	if err != nil {
		t.Fatalf("Failed to attach test option: %v", err)
	}

	return suggestionID
}

// CastTestVote inserts a vote row directly.
func CastTestVote(t *testing.T, db *sql.DB, pollID, memberID, suggestionID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO poll_vote (poll_id, member_id, suggestion_id, voted_at)
		VALUES ($1, $2, $3, $4)
	`, pollID, memberID, suggestionID, time.Now())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

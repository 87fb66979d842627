package models

import "time"

// Poll status constants
const (
	PollDraft  = "draft"
	PollActive = "active"
	PollClosed = "closed"
)

// Suggestion status constants
const (
	SuggestionPending   = "pending"
	SuggestionInPoll    = "in_poll"
	SuggestionSelected  = "selected"
	SuggestionRejected  = "rejected"
	SuggestionWithdrawn = "withdrawn"
)

// Member role constants
const (
	RoleMember  = "member"
	RoleManager = "manager"
)

// Request types

type RegisterMemberRequest struct {
	Username string `json:"username"`
}

type CreateBookRequest struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	PageCount     int    `json:"page_count"`
	PublishedYear int    `json:"published_year"`
}

type SuggestBookRequest struct {
	BookID string `json:"book_id"`
}

type CreatePollRequest struct {
	Title         string   `json:"title"`
	SuggestionIDs []string `json:"suggestion_ids"`
	BookIDs       []string `json:"book_ids"`
	EventID       string   `json:"event_id,omitempty"`
}

type ActivatePollRequest struct {
	EndDate *time.Time `json:"end_date,omitempty"`
}

type CastVoteRequest struct {
	SuggestionID string `json:"suggestion_id"`
}

type CreateEventRequest struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
}

type SelectBookRequest struct {
	BookID string `json:"book_id"`
}

type SaveNoteRequest struct {
	Content string `json:"content"`
}

// Response types

type RegisterMemberResponse struct {
	MemberID string `json:"member_id"`
	Token    string `json:"token"`
}

type CreatePollResponse struct {
	Poll    Poll     `json:"poll"`
	Options []string `json:"options"`
	Skipped []string `json:"skipped,omitempty"`
}

type CastVoteResponse struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

type ClosePollResponse struct {
	Winner  Suggestion  `json:"winner"`
	Results PollResults `json:"results"`
}

// Domain types

type Member struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"-"` // Never expose in JSON
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Book struct {
	ID            string    `json:"id"`
	ISBN          string    `json:"isbn"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	PageCount     int       `json:"page_count"`
	PublishedYear int       `json:"published_year"`
	Approved      bool      `json:"approved"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type Suggestion struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	SuggestedBy   string    `json:"suggested_by"`
	SuggestedAt   time.Time `json:"suggested_at"`
	ResubmitCount int       `json:"resubmit_count"`
	Status        string    `json:"status"`
	PollID        *string   `json:"poll_id,omitempty"`
}

// PendingSuggestion is a manager-facing listing row: the suggestion plus its
// book, priority score and a humanized age.
type PendingSuggestion struct {
	Suggestion Suggestion `json:"suggestion"`
	Book       Book       `json:"book"`
	Priority   int        `json:"priority"`
	Age        string     `json:"age"`
}

type Poll struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedBy string     `json:"created_by"`
	Status    string     `json:"status"`
	EventID   *string    `json:"event_id,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type PollWithOptions struct {
	Poll    Poll         `json:"poll"`
	Options []Suggestion `json:"options"`
}

type Vote struct {
	PollID       string    `json:"poll_id"`
	MemberID     string    `json:"-"` // Never expose in JSON
	SuggestionID string    `json:"suggestion_id"`
	VotedAt      time.Time `json:"voted_at"`
	IPHash       *string   `json:"-"`
	UserAgent    *string   `json:"-"`
}

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Selection struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	BookID     string    `json:"book_id"`
	SelectedBy string    `json:"selected_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Note struct {
	MemberID  string    `json:"-"`
	BookID    string    `json:"book_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tally types

type OptionCount struct {
	SuggestionID string    `json:"suggestion_id"`
	BookTitle    string    `json:"book_title"`
	Votes        int       `json:"votes"`
	SuggestedAt  time.Time `json:"-"`
}

type PollResults struct {
	PollID     string        `json:"poll_id"`
	Counts     []OptionCount `json:"counts"`
	WinnerID   *string       `json:"winner_id"`
	TotalVotes int           `json:"total_votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

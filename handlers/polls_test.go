// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/readshelf/bookpoll/models"
	"github.com/readshelf/bookpoll/testutil"
)

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	managerID, managerToken := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	aliceID, _ := testutil.CreateTestMember(t, db, "alice", models.RoleMember)
	bobID, _ := testutil.CreateTestMember(t, db, "bob", models.RoleMember)

	b1 := testutil.CreateTestBook(t, db, "B1", managerID, true)
	b2 := testutil.CreateTestBook(t, db, "B2", managerID, true)
	b3 := testutil.CreateTestBook(t, db, "B3", managerID, true)

	s1 := testutil.CreateTestSuggestion(t, db, b1, aliceID, models.SuggestionPending, 0, time.Now())
	s2 := testutil.CreateTestSuggestion(t, db, b2, bobID, models.SuggestionPending, 0, time.Now())
	withdrawn := testutil.CreateTestSuggestion(t, db, b3, managerID, models.SuggestionWithdrawn, 0, time.Now())

	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Title:         "March pick",
		SuggestionIDs: []string{s1, s2, withdrawn, "no-such-id"},
	}, map[string]string{"X-Member-Token": managerToken})
	w := httptest.NewRecorder()
	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, 201)

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Poll.Status != models.PollDraft {
		t.Errorf("Expected draft poll, got %s", resp.Poll.Status)
	}
	if len(resp.Options) != 2 {
		t.Errorf("Expected 2 options, got %d", len(resp.Options))
	}
	if len(resp.Skipped) != 2 {
		t.Errorf("Expected 2 skipped ids, got %v", resp.Skipped)
	}

	// The bundled suggestions moved to in_poll and point at the poll
	for _, sid := range []string{s1, s2} {
		var status string
		var pollID string
		err := db.QueryRow(`SELECT status, poll_id FROM suggestion WHERE id = $1`, sid).Scan(&status, &pollID)
		if err != nil {
			t.Fatalf("Failed to query suggestion %s: %v", sid, err)
		}
		if status != models.SuggestionInPoll {
			t.Errorf("Suggestion %s: expected in_poll, got %s", sid, status)
		}
		if pollID != resp.Poll.ID {
			t.Errorf("Suggestion %s: expected poll %s, got %s", sid, resp.Poll.ID, pollID)
		}
	}

	// The withdrawn one stayed withdrawn
	var status string
	db.QueryRow(`SELECT status FROM suggestion WHERE id = $1`, withdrawn).Scan(&status)
	if status != models.SuggestionWithdrawn {
		t.Errorf("Expected withdrawn suggestion untouched, got %s", status)
	}
}

func TestCreatePoll_ManagerPickedBooks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	managerID, managerToken := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	approved := testutil.CreateTestBook(t, db, "Approved", managerID, true)
	unapproved := testutil.CreateTestBook(t, db, "Unapproved", managerID, false)

	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Title:   "Picked",
		BookIDs: []string{approved, unapproved},
	}, map[string]string{"X-Member-Token": managerToken})
	w := httptest.NewRecorder()
	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, 201)

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)

	if len(resp.Options) != 1 {
		t.Errorf("Expected 1 option, got %d", len(resp.Options))
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != unapproved {
		t.Errorf("Expected unapproved book skipped, got %v", resp.Skipped)
	}

	// The fresh suggestion is credited to the manager
	var suggestedBy string
	db.QueryRow(`SELECT suggested_by FROM suggestion WHERE poll_id = $1`, resp.Poll.ID).Scan(&suggestedBy)
	if suggestedBy != managerID {
		t.Errorf("Expected suggestion credited to manager, got %s", suggestedBy)
	}
}

func TestCreatePoll_Authorization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	_, memberToken := testutil.CreateTestMember(t, db, "alice", models.RoleMember)

	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Title:         "Nope",
		SuggestionIDs: []string{"x"},
	}, map[string]string{"X-Member-Token": memberToken})
	w := httptest.NewRecorder()
	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, 403)
}

func TestActivatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	managerID, managerToken := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	aliceID, _ := testutil.CreateTestMember(t, db, "alice", models.RoleMember)
	b1 := testutil.CreateTestBook(t, db, "B1", managerID, true)
	b2 := testutil.CreateTestBook(t, db, "B2", managerID, true)

	t.Run("needs at least two options", func(t *testing.T) {
		poll := testutil.CreateTestPoll(t, db, managerID, models.PollDraft)
		testutil.AttachTestOption(t, db, poll, b1, aliceID, time.Now())

		req := testutil.MakeRequest("POST", "/polls/"+poll+"/activate", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		handler.ActivatePoll(w, req)

		testutil.AssertStatus(t, w, 400)
	})

	t.Run("activates a draft with two options", func(t *testing.T) {
		poll := testutil.CreateTestPoll(t, db, managerID, models.PollDraft)
		testutil.AttachTestOption(t, db, poll, b1, aliceID, time.Now())
		testutil.AttachTestOption(t, db, poll, b2, managerID, time.Now())

		req := testutil.MakeRequest("POST", "/polls/"+poll+"/activate", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		handler.ActivatePoll(w, req)

		testutil.AssertStatus(t, w, 200)

		var activated models.Poll
		testutil.AssertJSON(t, w, &activated)
		if activated.Status != models.PollActive {
			t.Errorf("Expected active poll, got %s", activated.Status)
		}
		if activated.StartDate == nil {
			t.Error("Expected start_date to be set")
		}
	})

	t.Run("only one active poll at a time", func(t *testing.T) {
		poll := testutil.CreateTestPoll(t, db, managerID, models.PollDraft)
		testutil.AttachTestOption(t, db, poll, b1, aliceID, time.Now())
		testutil.AttachTestOption(t, db, poll, b2, managerID, time.Now())

		req := testutil.MakeRequest("POST", "/polls/"+poll+"/activate", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		handler.ActivatePoll(w, req)

		testutil.AssertStatus(t, w, 409)
	})

	t.Run("closed polls cannot be reactivated", func(t *testing.T) {
		poll := testutil.CreateTestPoll(t, db, managerID, models.PollClosed)

		req := testutil.MakeRequest("POST", "/polls/"+poll+"/activate", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		handler.ActivatePoll(w, req)

		testutil.AssertStatus(t, w, 409)
	})
}

func TestClosePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)

	managerID, managerToken := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	aliceID, _ := testutil.CreateTestMember(t, db, "alice", models.RoleMember)
	bobID, _ := testutil.CreateTestMember(t, db, "bob", models.RoleMember)
	carolID, _ := testutil.CreateTestMember(t, db, "carol", models.RoleMember)

	b1 := testutil.CreateTestBook(t, db, "Winner Book", managerID, true)
	b2 := testutil.CreateTestBook(t, db, "Loser Book", managerID, true)

	poll := testutil.CreateTestPoll(t, db, managerID, models.PollActive)
	opt1 := testutil.AttachTestOption(t, db, poll, b1, aliceID, time.Now().Add(-time.Hour))
	opt2 := testutil.AttachTestOption(t, db, poll, b2, bobID, time.Now())

	t.Run("no votes", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls/"+poll+"/close", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		pollHandler.ClosePoll(w, req)

		testutil.AssertStatus(t, w, 409)

		// The poll stays active
		var status string
		db.QueryRow(`SELECT status FROM book_poll WHERE id = $1`, poll).Scan(&status)
		if status != models.PollActive {
			t.Errorf("Expected poll still active, got %s", status)
		}
	})

	t.Run("plurality winner", func(t *testing.T) {
		testutil.CastTestVote(t, db, poll, aliceID, opt1)
		testutil.CastTestVote(t, db, poll, bobID, opt1)
		testutil.CastTestVote(t, db, poll, carolID, opt2)

		req := testutil.MakeRequest("POST", "/polls/"+poll+"/close", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		pollHandler.ClosePoll(w, req)

		testutil.AssertStatus(t, w, 200)

		var resp models.ClosePollResponse
		testutil.AssertJSON(t, w, &resp)

		if resp.Winner.ID != opt1 {
			t.Errorf("Expected winner %s, got %s", opt1, resp.Winner.ID)
		}
		if resp.Winner.Status != models.SuggestionSelected {
			t.Errorf("Expected winner selected, got %s", resp.Winner.Status)
		}
		if resp.Results.TotalVotes != 3 {
			t.Errorf("Expected 3 total votes, got %d", resp.Results.TotalVotes)
		}

		var loserStatus string
		db.QueryRow(`SELECT status FROM suggestion WHERE id = $1`, opt2).Scan(&loserStatus)
		if loserStatus != models.SuggestionRejected {
			t.Errorf("Expected loser rejected, got %s", loserStatus)
		}

		var pollStatus string
		var endDate *time.Time
		db.QueryRow(`SELECT status, end_date FROM book_poll WHERE id = $1`, poll).Scan(&pollStatus, &endDate)
		if pollStatus != models.PollClosed {
			t.Errorf("Expected poll closed, got %s", pollStatus)
		}
		if endDate == nil {
			t.Error("Expected end_date to be set")
		}
	})

	t.Run("already closed", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls/"+poll+"/close", nil,
			map[string]string{"X-Member-Token": managerToken})
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		pollHandler.ClosePoll(w, req)

		testutil.AssertStatus(t, w, 409)
	})
}

func TestClosePoll_TieBreak(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg)

	managerID, managerToken := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	aliceID, _ := testutil.CreateTestMember(t, db, "alice", models.RoleMember)
	bobID, _ := testutil.CreateTestMember(t, db, "bob", models.RoleMember)

	b1 := testutil.CreateTestBook(t, db, "Earlier", managerID, true)
	b2 := testutil.CreateTestBook(t, db, "Later", managerID, true)

	poll := testutil.CreateTestPoll(t, db, managerID, models.PollActive)
	earlier := testutil.AttachTestOption(t, db, poll, b1, aliceID, time.Now().Add(-2*time.Hour))
	later := testutil.AttachTestOption(t, db, poll, b2, bobID, time.Now().Add(-time.Hour))

	// One vote each: the earlier-suggested option wins the tie
	testutil.CastTestVote(t, db, poll, aliceID, later)
	testutil.CastTestVote(t, db, poll, bobID, earlier)

	req := testutil.MakeRequest("POST", "/polls/"+poll+"/close", nil,
		map[string]string{"X-Member-Token": managerToken})
	req.SetPathValue("id", poll)
	w := httptest.NewRecorder()
	pollHandler.ClosePoll(w, req)

	testutil.AssertStatus(t, w, 200)

	var resp models.ClosePollResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Winner.ID != earlier {
		t.Errorf("Expected tie to go to the earlier suggestion %s, got %s", earlier, resp.Winner.ID)
	}
}

func TestGetPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	managerID, _ := testutil.CreateTestMember(t, db, "manager", models.RoleManager)
	b1 := testutil.CreateTestBook(t, db, "B1", managerID, true)
	b2 := testutil.CreateTestBook(t, db, "B2", managerID, true)

	poll := testutil.CreateTestPoll(t, db, managerID, models.PollDraft)
	testutil.AttachTestOption(t, db, poll, b1, managerID, time.Now().Add(-time.Hour))
	testutil.AttachTestOption(t, db, poll, b2, managerID, time.Now())

	t.Run("existing poll", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+poll, nil, nil)
		req.SetPathValue("id", poll)
		w := httptest.NewRecorder()
		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, 200)

		var resp models.PollWithOptions
		testutil.AssertJSON(t, w, &resp)
		if resp.Poll.ID != poll {
			t.Errorf("Expected poll %s, got %s", poll, resp.Poll.ID)
		}
		if len(resp.Options) != 2 {
			t.Errorf("Expected 2 options, got %d", len(resp.Options))
		}
	})

	t.Run("unknown poll", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/nope", nil, nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, 404)
	})
}

// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/readshelf/bookpoll/auth"
	"github.com/readshelf/bookpoll/models"
	"github.com/readshelf/bookpoll/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewMemberHandler(db, cfg)

	t.Run("successful registration", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/members/register",
			models.RegisterMemberRequest{Username: "alice"}, nil)
		w := httptest.NewRecorder()
		handler.Register(w, req)

		testutil.AssertStatus(t, w, 201)

		var resp models.RegisterMemberResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.MemberID == "" {
			t.Error("Expected member_id to be set")
		}
		if resp.Token == "" {
			t.Error("Expected token to be set")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/members/register",
			models.RegisterMemberRequest{Username: "alice"}, nil)
		w := httptest.NewRecorder()
		handler.Register(w, req)

		testutil.AssertStatus(t, w, 409)
	})

	t.Run("username too short", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/members/register",
			models.RegisterMemberRequest{Username: "a"}, nil)
		w := httptest.NewRecorder()
		handler.Register(w, req)

		testutil.AssertStatus(t, w, 400)
	})
}

func TestGetMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewMemberHandler(db, cfg)

	memberID, token := testutil.CreateTestMember(t, db, "alice", models.RoleMember)

	t.Run("valid token", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/members/me", nil,
			map[string]string{"X-Member-Token": token})
		w := httptest.NewRecorder()
		handler.GetMe(w, req)

		testutil.AssertStatus(t, w, 200)

		var me models.Member
		testutil.AssertJSON(t, w, &me)
		if me.ID != memberID {
			t.Errorf("Expected member %s, got %s", memberID, me.ID)
		}
		if me.Role != models.RoleMember {
			t.Errorf("Expected role member, got %s", me.Role)
		}
	})

	t.Run("bogus token", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/members/me", nil,
			map[string]string{"X-Member-Token": "bogus"})
		w := httptest.NewRecorder()
		handler.GetMe(w, req)

		testutil.AssertStatus(t, w, 401)
	})
}

func TestPromote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewMemberHandler(db, cfg)

	memberID, token := testutil.CreateTestMember(t, db, "alice", models.RoleMember)
	adminKey := auth.GenerateAdminKey(memberID, cfg.AdminKeySalt)

	t.Run("wrong admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/members/"+memberID+"/promote", nil,
			map[string]string{"X-Admin-Key": "wrong-key"})
		req.SetPathValue("id", memberID)
		w := httptest.NewRecorder()
		handler.Promote(w, req)

		testutil.AssertStatus(t, w, 401)
	})

	t.Run("valid admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/members/"+memberID+"/promote", nil,
			map[string]string{"X-Admin-Key": adminKey})
		req.SetPathValue("id", memberID)
		w := httptest.NewRecorder()
		handler.Promote(w, req)

		testutil.AssertStatus(t, w, 200)

		// The promoted member now resolves as a manager
		memberHandler := NewMemberHandler(db, cfg)
		meReq := testutil.MakeRequest("GET", "/members/me", nil,
			map[string]string{"X-Member-Token": token})
		meW := httptest.NewRecorder()
		memberHandler.GetMe(meW, meReq)

		var me models.Member
		testutil.AssertJSON(t, meW, &me)
		if me.Role != models.RoleManager {
			t.Errorf("Expected role manager, got %s", me.Role)
		}
	})

	t.Run("unknown member with its own valid key", func(t *testing.T) {
		key := auth.GenerateAdminKey("ghost", cfg.AdminKeySalt)
		req := testutil.MakeRequest("POST", "/members/ghost/promote", nil,
			map[string]string{"X-Admin-Key": key})
		req.SetPathValue("id", "ghost")
		w := httptest.NewRecorder()
		handler.Promote(w, req)

		testutil.AssertStatus(t, w, 404)
	})
}

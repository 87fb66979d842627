// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name     string
		memberID string
		salt     string
	}{
		{"standard", "member123", "secret-salt"},
		{"empty member id", "", "salt"},
		{"empty salt", "member456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.memberID, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			key2 := GenerateAdminKey(tt.memberID, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			// Different inputs should produce different keys
			if tt.memberID != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.memberID+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different member IDs")
				}
			}

			// Should be URL-safe (no padding)
			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	memberID := "test-member-123"
	salt := "test-salt"
	validKey := GenerateAdminKey(memberID, salt)

	tests := []struct {
		name     string
		memberID string
		adminKey string
		salt     string
		wantErr  bool
	}{
		{"valid key", memberID, validKey, salt, false},
		{"wrong key", memberID, "wrong-key", salt, true},
		{"wrong member id", "different-member", validKey, salt, true},
		{"wrong salt", memberID, validKey, "different-salt", true},
		{"empty key", memberID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.memberID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestGenerateMemberToken(t *testing.T) {
	token, err := GenerateMemberToken()
	if err != nil {
		t.Fatalf("GenerateMemberToken() error = %v", err)
	}

	if token == "" {
		t.Error("GenerateMemberToken() returned empty string")
	}

	// Should be URL-safe (no padding)
	if strings.Contains(token, "=") {
		t.Error("GenerateMemberToken() contains padding characters")
	}

	// Should be reasonably long (24 bytes encoded)
	if len(token) < 30 {
		t.Errorf("GenerateMemberToken() too short: %d chars", len(token))
	}

	// Test randomness - should not produce duplicates
	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateMemberToken()
		if err != nil {
			t.Fatalf("GenerateMemberToken() error on iteration %d: %v", i, err)
		}
		if tokens[token] {
			t.Errorf("GenerateMemberToken() produced duplicate token: %s", token)
		}
		tokens[token] = true
	}
}

func TestHashIP(t *testing.T) {
	hash := HashIP("203.0.113.9", "salt")

	if len(hash) != 16 {
		t.Errorf("HashIP() length = %d, want 16", len(hash))
	}

	// Deterministic for same input
	if hash != HashIP("203.0.113.9", "salt") {
		t.Error("HashIP() is not deterministic")
	}

	// Different IP or salt changes the hash
	if hash == HashIP("203.0.113.10", "salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if hash == HashIP("203.0.113.9", "other-salt") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

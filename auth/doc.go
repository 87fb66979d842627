// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(memberID, salt)
	err := auth.ValidateAdminKey(memberID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same member ID and salt always produce the same key, so the operator can
hand a promotion key to a club organizer without storing it in the database.

# Member Tokens

Member tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateMemberToken()

Tokens are URL-safe base64 encoded, issued once at registration, and
presented in the X-Member-Token header on every authenticated request.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving vote auditing:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth

// Copyright (c) 2026 Readshelf.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"

	"github.com/readshelf/bookpoll/models"
)

// ComputeTally counts votes per ballot option for a poll and determines
// the plurality winner. The winner is the option with the strictly
// greatest count; a tie for the maximum goes to the earliest-suggested
// option (then lowest id), so the outcome never depends on row order
// coming back from the storage engine.
func ComputeTally(db *sql.DB, pollID string) (models.PollResults, error) {
	rows, err := db.Query(`
		SELECT s.id, b.title, s.suggested_at, COUNT(v.suggestion_id)
		FROM suggestion s
		JOIN book b ON b.id = s.book_id
		LEFT JOIN poll_vote v ON v.suggestion_id = s.id
		WHERE s.poll_id = $1
		GROUP BY s.id, b.title, s.suggested_at
		ORDER BY s.suggested_at, s.id
	`, pollID)
	if err != nil {
		return models.PollResults{}, fmt.Errorf("failed to query vote counts: %w", err)
	}
	defer rows.Close()

	counts := []models.OptionCount{}
	for rows.Next() {
		var c models.OptionCount
		if err := rows.Scan(&c.SuggestionID, &c.BookTitle, &c.SuggestedAt, &c.Votes); err != nil {
			return models.PollResults{}, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return models.PollResults{}, fmt.Errorf("failed to read vote counts: %w", err)
	}

	results := models.PollResults{
		PollID: pollID,
		Counts: counts,
	}
	for _, c := range counts {
		results.TotalVotes += c.Votes
	}
	results.WinnerID = PickWinner(counts)

	return results, nil
}

// PickWinner selects the plurality winner from per-option counts, or nil
// when no votes were cast. Counts must already be ordered by the
// tie-break criterion (suggested_at, then id): the first option holding
// the maximum wins.
func PickWinner(counts []models.OptionCount) *string {
	maxVotes := 0
	var winner *string
	for i := range counts {
		if counts[i].Votes > maxVotes {
			maxVotes = counts[i].Votes
			winner = &counts[i].SuggestionID
		}
	}
	return winner
}

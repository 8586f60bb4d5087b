package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
)

// SaveMatchRun stores the outcome of matching a stored profile and returns the run ID
func (db *DB) SaveMatchRun(ctx context.Context, profileID uuid.UUID, res *jobsearch.MatchResult) (uuid.UUID, error) {
	hits, err := json.Marshal(res.Jobs.Hits)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal hits: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO match_runs (profile_id, query, country, ok, total_before_filter,
		     after_role_filter, after_experience_filter, hits)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		profileID, res.SearchParams.Query, res.SearchParams.Country, res.Jobs.OK,
		res.Jobs.TotalBeforeFilter, res.Jobs.AfterRoleFilter, res.Jobs.AfterExperienceFilter, hits,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save match run: %w", err)
	}
	return id, nil
}

// ListMatchRuns retrieves the match runs for a profile, newest first
func (db *DB) ListMatchRuns(ctx context.Context, profileID uuid.UUID, limit int) ([]MatchRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, profile_id, query, country, ok, total_before_filter, after_role_filter,
		     after_experience_filter, hits, created_at
		 FROM match_runs WHERE profile_id = $1 ORDER BY created_at DESC LIMIT $2`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	defer rows.Close()

	runs := []MatchRun{}
	for rows.Next() {
		var r MatchRun
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Query, &r.Country, &r.OK, &r.TotalBeforeFilter,
			&r.AfterRoleFilter, &r.AfterExperienceFilter, &r.Hits, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

const profileColumns = `id, source, name, country, city, location_mode, role_raw, role_canonical,
	years, seniority_band, profile, extracted_at, created_at`

// SaveProfile stores a profile, replacing any previous record with the same ID
func (db *DB) SaveProfile(ctx context.Context, p *types.CandidateProfile, source, name string) error {
	if p.ID == uuid.Nil {
		return errors.New("profile has no id")
	}
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidate_profiles (id, source, name, country, city, location_mode, role_raw,
		     role_canonical, years, seniority_band, profile, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		     source = $2, name = $3, country = $4, city = $5, location_mode = $6, role_raw = $7,
		     role_canonical = $8, years = $9, seniority_band = $10, profile = $11, extracted_at = $12`,
		p.ID, source, name, p.Location.Country, p.Location.City, string(p.Location.Mode), p.Role.Raw,
		p.Role.Canonical, p.Experience.Years, p.Experience.SeniorityBand, profileJSON, p.ExtractedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.ID, err)
	}
	return nil
}

// GetProfile retrieves a profile by ID. It returns nil when none exists.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM candidate_profiles WHERE id = $1`,
		id,
	)
	rec, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return rec, nil
}

// ListProfiles retrieves the most recent profiles matching filters
func (db *DB) ListProfiles(ctx context.Context, filters ProfileFilters) ([]ProfileRecord, error) {
	query, args := buildProfileQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	records := []ProfileRecord{}
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return records, nil
}

// DeleteProfile deletes a profile and its match runs (via cascade)
func (db *DB) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM candidate_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func buildProfileQuery(filters ProfileFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	query := `SELECT ` + profileColumns + ` FROM candidate_profiles WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Country != "" {
		query += fmt.Sprintf(" AND country ILIKE $%d", argNum)
		args = append(args, filters.Country)
		argNum++
	}
	if filters.Role != "" {
		query += fmt.Sprintf(" AND role_canonical ILIKE $%d", argNum)
		args = append(args, "%"+filters.Role+"%")
		argNum++
	}
	if filters.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, filters.Source)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

func scanProfile(row pgx.Row) (*ProfileRecord, error) {
	var (
		rec         ProfileRecord
		profileJSON []byte
	)
	err := row.Scan(&rec.ID, &rec.Source, &rec.Name, &rec.Country, &rec.City, &rec.LocationMode,
		&rec.RoleRaw, &rec.RoleCanonical, &rec.Years, &rec.SeniorityBand, &profileJSON,
		&rec.ExtractedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile %s: %w", rec.ID, err)
	}
	return &rec, nil
}

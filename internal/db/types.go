package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// Profile sources
const (
	SourceCLI    = "cli"
	SourceAPI    = "api"
	SourceWorker = "worker"
)

// ErrNotFound is returned by writes that target a missing row
var ErrNotFound = errors.New("not found")

// DefaultListLimit is used when a filter has no limit
const DefaultListLimit = 50

// ProfileRecord is a stored candidate profile with its indexed columns
type ProfileRecord struct {
	ID            uuid.UUID              `json:"id"`
	Source        string                 `json:"source"`
	Name          string                 `json:"name,omitempty"`
	Country       string                 `json:"country,omitempty"`
	City          string                 `json:"city,omitempty"`
	LocationMode  string                 `json:"location_mode"`
	RoleRaw       string                 `json:"role_raw"`
	RoleCanonical string                 `json:"role_canonical"`
	Years         float64                `json:"years"`
	SeniorityBand string                 `json:"seniority_band"`
	Profile       types.CandidateProfile `json:"profile"`
	ExtractedAt   time.Time              `json:"extracted_at"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ProfileFilters holds optional filters for listing profiles
type ProfileFilters struct {
	Country string
	Role    string
	Source  string
	Limit   int
}

// MatchRun is a stored job match for a profile
type MatchRun struct {
	ID                    uuid.UUID `json:"id"`
	ProfileID             uuid.UUID `json:"profile_id"`
	Query                 string    `json:"query"`
	Country               string    `json:"country"`
	OK                    bool      `json:"ok"`
	TotalBeforeFilter     int       `json:"total_before_filter"`
	AfterRoleFilter       int       `json:"after_role_filter"`
	AfterExperienceFilter int       `json:"after_experience_filter"`
	Hits                  []byte    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
}

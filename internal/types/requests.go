package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MinTextLength is the shortest resume text worth profiling
const MinTextLength = 20

// ExtractRequest is the JSON body of a profile extraction request
type ExtractRequest struct {
	Text     string         `json:"text" validate:"required,min=20"`
	Name     string         `json:"name,omitempty" validate:"max=255"`
	Mentions []PlaceMention `json:"mentions,omitempty" validate:"max=100,dive"`
	Debug    bool           `json:"debug,omitempty"`
	Save     bool           `json:"save,omitempty"`
}

// MatchRequest asks for jobs matching a stored profile or a resume text.
// Exactly one of ProfileID and Text is needed.
type MatchRequest struct {
	ProfileID string `json:"profile_id,omitempty" validate:"required_without=Text,excluded_with=Text,omitempty,uuid"`
	Text      string `json:"text,omitempty" validate:"required_without=ProfileID,omitempty,min=20"`
}

// ProfileJob is a queue message requesting a profile. The document is
// either stored under ObjectKey or inlined as Text.
type ProfileJob struct {
	ID        string `json:"id" validate:"required,max=128"`
	ObjectKey string `json:"object_key,omitempty" validate:"required_without=Text"`
	Mime      string `json:"mime,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty" validate:"required_without=ObjectKey"`
}

// Job statuses published while a ProfileJob is processed
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStatus is a status update for a ProfileJob
type JobStatus struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	Profile *CandidateProfile `json:"profile,omitempty"`
	Error   string            `json:"error,omitempty"`
}

var validate = validator.New()

// Validate validates the ExtractRequest using the validator.
func (r *ExtractRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the MatchRequest using the validator.
func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

// ParsedProfileID returns ProfileID as a UUID, or uuid.Nil when unset
func (r *MatchRequest) ParsedProfileID() uuid.UUID {
	id, err := uuid.Parse(r.ProfileID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Validate validates the ProfileJob using the validator.
func (j *ProfileJob) Validate() error {
	return validate.Struct(j)
}

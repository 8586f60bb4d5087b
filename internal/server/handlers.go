package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/db"
	"github.com/jonathan/cv-job-matcher/internal/ingestion"
	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

const (
	// maxUploadBytes bounds multipart resume uploads
	maxUploadBytes = 10 << 20
	// maxJSONBytes bounds JSON request bodies
	maxJSONBytes = 1 << 20
	// maxListLimit caps the limit query parameter of GET /profiles
	maxListLimit = 200
)

// ProfileResponse is returned by POST /profiles
type ProfileResponse struct {
	Profile *types.CandidateProfile `json:"profile"`
	Saved   bool                    `json:"saved"`
}

// MatchResponse is returned by POST /matches
type MatchResponse struct {
	*jobsearch.MatchResult
	MatchRunID string `json:"match_run_id,omitempty"`
}

// handleCreateProfile extracts a profile from a JSON body or a multipart upload
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExtractRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if req.Save && s.store == nil {
		s.fail(w, &ErrUnavailable{Feature: "storage"})
		return
	}

	p := s.extract(r.Context(), req, db.SourceAPI)

	if req.Save {
		if err := s.store.SaveProfile(r.Context(), p, db.SourceAPI, req.Name); err != nil {
			s.fail(w, fmt.Errorf("failed to save profile: %w", err))
			return
		}
		w.Header().Set("Location", "/profiles/"+p.ID.String())
		s.jsonResponse(w, http.StatusCreated, ProfileResponse{Profile: p, Saved: true})
		return
	}
	s.jsonResponse(w, http.StatusOK, ProfileResponse{Profile: p})
}

func (s *Server) decodeExtractRequest(w http.ResponseWriter, r *http.Request) (*types.ExtractRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.decodeUpload(w, r)
	}

	var req types.ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// decodeUpload reads the "file" part of a multipart form. The document type
// comes from the part's Content-Type, or from its file name when that is
// missing or generic.
func (s *Server) decodeUpload(w http.ResponseWriter, r *http.Request) (*types.ExtractRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, &ErrValidation{Field: "file", Message: "invalid upload: " + err.Error()}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &ErrValidation{Field: "file", Message: "is required"}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &ErrValidation{Field: "file", Message: "failed to read upload: " + err.Error()}
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = ingestion.MimeForPath(header.Filename)
	}
	text, _, err := ingestion.ExtractBytes(mimeType, data)
	if err != nil {
		var unsupported *ingestion.UnsupportedFormatError
		if errors.As(err, &unsupported) && unsupported.Format == "" {
			unsupported.Format = header.Filename
		}
		var extraction *ingestion.ExtractionError
		if errors.As(err, &extraction) {
			extraction.Source = header.Filename
		}
		return nil, err
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	debug, _ := strconv.ParseBool(r.FormValue("debug"))
	req := &types.ExtractRequest{
		Text:  text,
		Name:  r.FormValue("name"),
		Debug: debug,
		Save:  save,
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return req, nil
}

// extract runs the extractor, preferring caller-supplied mentions over the recognizer
func (s *Server) extract(ctx context.Context, req *types.ExtractRequest, source string) *types.CandidateProfile {
	ex := s.extractor
	if req.Debug {
		ex = ex.WithDebug(true)
	}

	start := time.Now()
	var p *types.CandidateProfile
	if len(req.Mentions) > 0 {
		p = ex.Extract(req.Text, req.Mentions)
	} else {
		p = ex.ExtractWithRecognizer(ctx, req.Text, s.recognizer)
	}
	s.metrics.ObserveProfile(p, source, time.Since(start))
	return p
}

// handleListProfiles lists stored profiles filtered by query parameters
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, &ErrUnavailable{Feature: "storage"})
		return
	}

	q := r.URL.Query()
	filters := db.ProfileFilters{
		Country: q.Get("country"),
		Role:    q.Get("role"),
		Source:  q.Get("source"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			s.fail(w, &ErrValidation{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxListLimit)})
			return
		}
		filters.Limit = limit
	}

	records, err := s.store.ListProfiles(r.Context(), filters)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"profiles": records, "count": len(records)})
}

// handleGetProfile returns one stored profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.profileID(w, r)
	if !ok {
		return
	}
	rec, err := s.loadProfile(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleDeleteProfile deletes a stored profile and its match runs
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.profileID(w, r)
	if !ok {
		return
	}
	if s.store == nil {
		s.fail(w, &ErrUnavailable{Feature: "storage"})
		return
	}
	if err := s.store.DeleteProfile(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			err = &ErrProfileNotFound{ProfileID: id}
		}
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateMatch searches for jobs fitting a stored profile or a resume text
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	if s.matcher == nil {
		s.fail(w, &ErrUnavailable{Feature: "job search"})
		return
	}

	var req types.MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
		s.fail(w, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, validationError(err))
		return
	}

	var (
		p      *types.CandidateProfile
		stored bool
	)
	if id := req.ParsedProfileID(); id != uuid.Nil {
		rec, err := s.loadProfile(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		p, stored = &rec.Profile, true
	} else {
		p = s.extract(r.Context(), &types.ExtractRequest{Text: req.Text}, db.SourceAPI)
	}

	res, err := s.matcher.Match(r.Context(), p)
	if err != nil {
		s.metrics.ObserveJobSearch("error")
		s.fail(w, err)
		return
	}
	if res.Jobs.OK {
		s.metrics.ObserveJobSearch("ok")
	} else {
		s.metrics.ObserveJobSearch("not_ok")
	}

	resp := MatchResponse{MatchResult: res}
	if stored {
		runID, err := s.store.SaveMatchRun(r.Context(), p.ID, res)
		if err != nil {
			log.Printf("[server] failed to save match run for %s: %v", p.ID, err)
		} else {
			resp.MatchRunID = runID.String()
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) profileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) loadProfile(ctx context.Context, id uuid.UUID) (*db.ProfileRecord, error) {
	if s.store == nil {
		return nil, &ErrUnavailable{Feature: "storage"}
	}
	rec, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &ErrProfileNotFound{ProfileID: id}
	}
	return rec, nil
}

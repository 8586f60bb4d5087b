// Package worker consumes profile extraction jobs from a message queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/db"
	"github.com/jonathan/cv-job-matcher/internal/ingestion"
	"github.com/jonathan/cv-job-matcher/internal/metrics"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

const (
	// maxDocumentBytes bounds a downloaded resume
	maxDocumentBytes = 10 << 20
	// DefaultAttempts is how often downloads and saves are tried
	DefaultAttempts = 3
)

// StatusPublisher announces job progress
type StatusPublisher interface {
	PublishStatus(ctx context.Context, status types.JobStatus) error
}

// ProfileSaver persists extracted profiles. *db.DB satisfies it.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, p *types.CandidateProfile, source, name string) error
}

// InvalidJobError marks a message that can never be processed
type InvalidJobError struct {
	Message string
	Cause   error
}

func (e *InvalidJobError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid job: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid job: %s", e.Message)
}

func (e *InvalidJobError) Unwrap() error {
	return e.Cause
}

// ProcessorOptions wires a Processor. Extractor and Publisher are required.
type ProcessorOptions struct {
	Extractor  *profile.Extractor
	Objects    ObjectStore
	Store      ProfileSaver
	Publisher  StatusPublisher
	Recognizer profile.MentionRecognizer
	Metrics    *metrics.Metrics
	Attempts   int
	Backoff    time.Duration
}

// Processor turns one ProfileJob message into a stored profile
type Processor struct {
	opts ProcessorOptions
}

// NewProcessor creates a Processor
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("worker requires a profile extractor")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("worker requires a status publisher")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	return &Processor{opts: opts}, nil
}

// Process handles one message body. It publishes "processing" and then
// "completed" or "failed". The returned error is an *InvalidJobError when
// retrying the message cannot help.
func (p *Processor) Process(ctx context.Context, body []byte) error {
	var job types.ProfileJob
	if err := json.Unmarshal(body, &job); err != nil {
		p.opts.Metrics.ObserveWorkerJob("invalid")
		return &InvalidJobError{Message: "malformed message body", Cause: err}
	}
	if err := job.Validate(); err != nil {
		p.opts.Metrics.ObserveWorkerJob("invalid")
		p.publish(ctx, types.JobStatus{ID: job.ID, Status: types.JobFailed, Error: err.Error()})
		return &InvalidJobError{Message: "validation failed", Cause: err}
	}

	p.publish(ctx, types.JobStatus{ID: job.ID, Status: types.JobProcessing})

	prof, err := p.run(ctx, job)
	if err != nil {
		log.Printf("[worker] job %s failed: %v", job.ID, err)
		p.opts.Metrics.ObserveWorkerJob(types.JobFailed)
		p.publish(ctx, types.JobStatus{ID: job.ID, Status: types.JobFailed, Error: err.Error()})
		return err
	}

	p.opts.Metrics.ObserveWorkerJob(types.JobCompleted)
	p.publish(ctx, types.JobStatus{ID: job.ID, Status: types.JobCompleted, Profile: prof})
	return nil
}

func (p *Processor) run(ctx context.Context, job types.ProfileJob) (*types.CandidateProfile, error) {
	text, err := p.documentText(ctx, job)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	prof := p.opts.Extractor.ExtractWithRecognizer(ctx, text, p.opts.Recognizer)
	p.opts.Metrics.ObserveProfile(prof, db.SourceWorker, time.Since(start))

	if p.opts.Store != nil {
		name := job.Name
		if name == "" {
			name = job.ObjectKey
		}
		_, err := retry(ctx, p.opts.Attempts, p.opts.Backoff, func() (struct{}, error) {
			return struct{}{}, p.opts.Store.SaveProfile(ctx, prof, db.SourceWorker, name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save profile: %w", err)
		}
	}
	return prof, nil
}

// documentText returns the inline text, or downloads and reads the object
func (p *Processor) documentText(ctx context.Context, job types.ProfileJob) (string, error) {
	if job.Text != "" {
		return job.Text, nil
	}
	if p.opts.Objects == nil {
		return "", &InvalidJobError{Message: "object storage is not configured"}
	}

	data, err := retry(ctx, p.opts.Attempts, p.opts.Backoff, func() ([]byte, error) {
		return p.opts.Objects.Download(ctx, job.ObjectKey)
	})
	if err != nil {
		return "", fmt.Errorf("file download error: %w", err)
	}

	mime := job.Mime
	if mime == "" {
		mime = ingestion.MimeForPath(job.ObjectKey)
	}
	text, _, err := ingestion.ExtractBytes(mime, data)
	if err != nil {
		return "", &InvalidJobError{Message: "text extraction error", Cause: err}
	}
	return text, nil
}

// publish sends a status update; failures are logged and do not fail the job
func (p *Processor) publish(ctx context.Context, status types.JobStatus) {
	if err := p.opts.Publisher.PublishStatus(ctx, status); err != nil {
		log.Printf("[worker] failed to publish %s for job %s: %v", status.Status, status.ID, err)
	}
}

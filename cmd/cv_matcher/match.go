package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
	"github.com/jonathan/cv-job-matcher/internal/observability"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/schemas"
	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find job postings for a candidate",
	Long: "Search the job API for postings matching a candidate's role and country, then keep those whose " +
		"title and experience requirement fit. The input is a profile JSON file or a resume document.",
	RunE: runMatch,
}

var (
	matchInputFile  string
	matchOutputFile string
	matchAPIKey     string
	matchVerbose    bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchInputFile, "in", "i", "", "Path to profile JSON or resume document (required)")
	matchCmd.Flags().StringVarP(&matchOutputFile, "out", "o", "", "Path to output JSON file (stdout when empty)")
	matchCmd.Flags().StringVar(&matchAPIKey, "api-key", "", "Job search API key (overrides APIJOBS_KEY env var)")
	matchCmd.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Print the top matches to stderr")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	if matchInputFile == "" {
		return fmt.Errorf("--in is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if matchAPIKey != "" {
		cfg.JobSearch.APIKey = matchAPIKey
	}
	if cfg.JobSearch.APIKey == "" {
		return fmt.Errorf("API key is required (set APIJOBS_KEY environment variable or use --api-key flag)")
	}
	verbose := matchVerbose || cfg.Verbose

	p, err := loadCandidate(matchInputFile, cfg.Extraction, verbose)
	if err != nil {
		return err
	}

	matcher := newMatcher(cfg.JobSearch, verbose)
	res, err := matcher.Match(context.Background(), p)
	if err != nil {
		return fmt.Errorf("job search failed: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), matchOutputFile, jsonBytes); err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintMatches(res)
	}
	if !res.Jobs.OK {
		return fmt.Errorf("job search API reported a failed search")
	}
	return nil
}

// loadCandidate reads a profile from JSON, or extracts one from any other document
func loadCandidate(path string, cfg config.Extraction, verbose bool) (*types.CandidateProfile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		text, err := readResume(context.Background(), path, "", verbose)
		if err != nil {
			return nil, err
		}
		return profile.NewExtractor(profile.OptionsFromConfig(cfg)).Extract(text, nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if err := schemas.ValidateProfile(data); err != nil {
		return nil, fmt.Errorf("input is not a valid candidate profile: %w", err)
	}
	var p types.CandidateProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	return &p, nil
}

func newMatcher(cfg config.JobSearch, verbose bool) *jobsearch.Matcher {
	client := jobsearch.NewClient(jobsearch.Options{
		URL:     cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	return jobsearch.NewMatcher(client, jobsearch.MatcherOptions{
		TitleFilterCutoff: cfg.TitleFilterCutoff,
		ExperienceCushion: cfg.ExperienceCushion,
		PageSize:          cfg.PageSize,
		Verbose:           verbose,
	})
}

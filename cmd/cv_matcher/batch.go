package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jonathan/cv-job-matcher/internal/ingestion"
	"github.com/jonathan/cv-job-matcher/internal/observability"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract profiles for every resume in a directory",
	Long: "Extract candidate profiles for all supported documents in a directory, in parallel. " +
		"Documents that cannot be read are reported and skipped.",
	RunE: runBatch,
}

var (
	batchDir        string
	batchWorkers    int
	batchOutputFile string
)

// batchEntry is one element of the batch output
type batchEntry struct {
	File    string                  `json:"file"`
	Profile *types.CandidateProfile `json:"profile"`
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of resume documents (required)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", profile.DefaultWorkers, "Number of concurrent extractions")
	batchCmd.Flags().StringVarP(&batchOutputFile, "out", "o", "", "Path to output JSON file (stdout when empty)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if batchDir == "" {
		return fmt.Errorf("--dir is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := resumePaths(batchDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no resume documents found in %s", batchDir)
	}

	docs := make([]profile.Document, 0, len(paths))
	for _, path := range paths {
		text, _, err := ingestion.ExtractFile(path)
		if err != nil {
			log.Printf("[batch] skipping %s: %v", path, err)
			continue
		}
		docs = append(docs, profile.Document{Name: filepath.Base(path), Text: text})
	}
	if len(docs) == 0 {
		return fmt.Errorf("none of the %d documents in %s could be read", len(paths), batchDir)
	}

	extractor := profile.NewExtractor(profile.OptionsFromConfig(cfg.Extraction))
	profiles, err := extractor.ExtractBatch(context.Background(), docs, batchWorkers)
	if err != nil {
		return fmt.Errorf("batch extraction failed: %w", err)
	}

	entries := make([]batchEntry, len(docs))
	for i, doc := range docs {
		entries[i] = batchEntry{File: doc.Name, Profile: profiles[i]}
	}

	jsonBytes, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), batchOutputFile, jsonBytes); err != nil {
		return err
	}

	observability.NewPrinter(cmd.ErrOrStderr()).PrintBatchSummary(profiles)
	return nil
}

// resumePaths lists the files in dir that have a document reader, sorted by name
func resumePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || ingestion.MimeForPath(e.Name()) == "" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

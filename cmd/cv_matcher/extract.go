package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/fetch"
	"github.com/jonathan/cv-job-matcher/internal/ingestion"
	"github.com/jonathan/cv-job-matcher/internal/llm"
	"github.com/jonathan/cv-job-matcher/internal/observability"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/schemas"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a candidate profile from a resume",
	Long: "Read a resume document (.pdf, .docx, .html, .txt, .md) or an online resume and print its " +
		"candidate profile JSON: location, role and estimated years of experience.",
	RunE: runExtract,
}

var (
	extractInputFile   string
	extractURL         string
	extractOutputFile  string
	extractMentionsLLM bool
	extractVerbose     bool
	extractValidate    bool
	extractDebug       bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to resume document")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "URL of an online resume")
	extractCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to output JSON file (stdout when empty)")
	extractCmd.Flags().BoolVar(&extractMentionsLLM, "mentions-llm", false, "Ask Gemini for place mentions (requires GEMINI_API_KEY)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print a readable summary to stderr")
	extractCmd.Flags().BoolVar(&extractValidate, "validate", false, "Validate the profile against the candidate_profile schema")
	extractCmd.Flags().BoolVar(&extractDebug, "debug", false, "Include the experience trace in the profile")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if (extractInputFile == "") == (extractURL == "") {
		return fmt.Errorf("exactly one of --in or --url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if extractDebug {
		cfg.Extraction.Debug = true
	}
	verbose := extractVerbose || cfg.Verbose

	ctx := context.Background()

	text, err := readResume(ctx, extractInputFile, extractURL, verbose)
	if err != nil {
		return err
	}

	var rec profile.MentionRecognizer
	if extractMentionsLLM || cfg.LLM.Mentions {
		recognizer, closeFn, err := newRecognizer(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		defer closeFn()
		rec = recognizer
	}

	extractor := profile.NewExtractor(profile.OptionsFromConfig(cfg.Extraction))
	p := extractor.ExtractWithRecognizer(ctx, text, rec)

	jsonBytes, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if extractValidate {
		if err := schemas.ValidateProfile(jsonBytes); err != nil {
			return fmt.Errorf("generated JSON does not validate against schema: %w", err)
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), extractOutputFile, jsonBytes); err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintProfile(p)
	}
	return nil
}

// readResume returns the text of a local document or an online resume.
// Online resumes that render client-side are retried in a headless browser.
func readResume(ctx context.Context, path, url string, verbose bool) (string, error) {
	if url != "" {
		opts := fetch.DefaultOptions()
		opts.UseBrowser = true
		opts.Verbose = verbose
		res, err := fetch.Resume(ctx, url, opts)
		if err != nil {
			return "", err
		}
		text := ingestion.Normalize(res.Text)
		if len(strings.TrimSpace(text)) < ingestion.MinUsableTextLength {
			return "", &ingestion.ExtractionError{Source: url, Message: "no content found"}
		}
		return text, nil
	}

	text, debug, err := ingestion.ExtractFile(path)
	if verbose && debug != nil {
		for _, step := range debug.Steps {
			log.Printf("[extract] %s: step %s read %d chars %s", debug.Source, step.Name, step.Chars, step.Error)
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// newRecognizer builds the Gemini place recognizer; the returned func closes its client
func newRecognizer(ctx context.Context, cfg config.LLM) (profile.MentionRecognizer, func(), error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("API key is required for place recognition (set GEMINI_API_KEY environment variable)")
	}
	client, err := llm.NewGeminiClient(ctx, llm.Config{Model: cfg.Model}, cfg.APIKey)
	if err != nil {
		return nil, nil, err
	}
	return llm.NewPlaceRecognizer(client), func() { _ = client.Close() }, nil
}

// writeOutput writes data to path, or to w when path is empty
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Output: %s\n", path)
	return nil
}

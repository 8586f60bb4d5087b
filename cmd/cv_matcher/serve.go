package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/db"
	"github.com/jonathan/cv-job-matcher/internal/metrics"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server that extracts profiles and matches jobs over REST. Storage, job matching " +
		"and authentication are enabled when DATABASE_URL, APIJOBS_KEY and JWT_SECRET are set.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	jwtConfig, err := config.OptionalJWTConfig()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	ctx := context.Background()
	deps := server.Deps{
		Extractor: profile.NewExtractor(profile.OptionsFromConfig(cfg.Extraction)),
		Metrics:   metrics.New(),
	}

	if cfg.Storage.DatabaseURL != "" {
		database, err := openDatabase(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		deps.Store = database
	} else {
		log.Printf("[serve] DATABASE_URL not set, profiles will not be stored")
	}

	if cfg.JobSearch.APIKey != "" {
		deps.Matcher = newMatcher(cfg.JobSearch, cfg.Verbose)
	} else {
		log.Printf("[serve] APIJOBS_KEY not set, job matching is disabled")
	}

	if cfg.LLM.Mentions {
		rec, closeFn, err := newRecognizer(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		defer closeFn()
		deps.Recognizer = rec
	}

	srv, err := server.New(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimitEnabled(),
		JWT:         jwtConfig,
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// openDatabase connects and applies the schema
func openDatabase(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

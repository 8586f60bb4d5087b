package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/server"
	"github.com/spf13/cobra"
)

var tokenClientName string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a client",
	Long:  "Issue a signed bearer token for the REST API. Requires JWT_SECRET; JWT_TTL (or JWT_EXPIRATION_HOURS) sets its lifetime.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClientName, "name", "", "Client name recorded in the token (required)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if tokenClientName == "" {
		return fmt.Errorf("--name is required")
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(uuid.New(), tokenClientName)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

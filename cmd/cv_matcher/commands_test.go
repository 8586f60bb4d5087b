package main

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-cli-tests")
	t.Setenv("JWT_EXPIRATION_HOURS", "1")

	out, err := execute(t, "token", "--name", "ci")
	require.NoError(t, err)

	cfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(cfg).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.GetClientName())
}

func TestTokenCommand_Errors(t *testing.T) {
	_, err := execute(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name is required")

	t.Setenv("JWT_SECRET", "")
	_, err = execute(t, "token", "--name", "ci")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestWorkerCommand_RequiresAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")

	_, err := execute(t, "worker", "--workers", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RABBITMQ_URL")
}

func TestServeCommand_InvalidJWTConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRATION_HOURS", "zero")

	_, err := execute(t, "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JWT configuration")
}

func TestCLI_Help(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "--help").CombinedOutput()
	require.NoError(t, err)
	for _, sub := range []string{"extract", "batch", "match", "serve", "worker", "token"} {
		assert.Contains(t, string(output), sub)
	}
}

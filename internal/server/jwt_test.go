package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

var tokenEpoch = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

// newClockedJWTService returns a service whose clock the test moves
func newClockedJWTService(ttl time.Duration) (*JWTService, *time.Time) {
	at := tokenEpoch
	s := NewJWTService(&config.JWTConfig{Secret: testSecret, TTL: ttl})
	s.now = func() time.Time { return at }
	return s, &at
}

func signClaims(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTService_RoundTrip(t *testing.T) {
	s, _ := newClockedJWTService(2 * time.Hour)
	clientID := uuid.New()

	token, err := s.GenerateToken(clientID, "recruiting-portal")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, claims.GetClientID())
	assert.Equal(t, "recruiting-portal", claims.GetClientName())
	assert.Equal(t, config.DefaultJWTIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, tokenEpoch.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestJWTService_Defaults(t *testing.T) {
	s := NewJWTService(&config.JWTConfig{Secret: testSecret})
	assert.Equal(t, config.DefaultJWTTTL, s.ttl)
	assert.Equal(t, config.DefaultJWTIssuer, s.issuer)
}

func TestJWTService_GenerateToken_NilClient(t *testing.T) {
	s, _ := newClockedJWTService(time.Hour)
	_, err := s.GenerateToken(uuid.Nil, "x")
	assert.Error(t, err)
}

func TestJWTService_Expiry(t *testing.T) {
	s, at := newClockedJWTService(time.Hour)
	token, err := s.GenerateToken(uuid.New(), "svc")
	require.NoError(t, err)

	// inside the leeway the token still passes
	*at = tokenEpoch.Add(time.Hour + 10*time.Second)
	_, err = s.ValidateToken(token)
	require.NoError(t, err)

	*at = tokenEpoch.Add(time.Hour + time.Minute)
	_, err = s.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	s, _ := newClockedJWTService(time.Hour)
	exp := jwt.NewNumericDate(tokenEpoch.Add(time.Hour))

	other := NewJWTService(&config.JWTConfig{Secret: "different-secret-key-for-jwt-signing", TTL: time.Hour})
	other.now = s.now
	foreign, err := other.GenerateToken(uuid.New(), "svc")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		ClientID:         uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: config.DefaultJWTIssuer, ExpiresAt: exp},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"garbage", "invalid", "malformed"},
		{"too many parts", "a.b.c.d", "malformed"},
		{"other secret", foreign, "signature"},
		{"other algorithm", hs512, "invalid token"},
		{
			"wrong issuer",
			signClaims(t, &Claims{ClientID: uuid.New(), RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: exp}}),
			"invalid token",
		},
		{
			"no expiry",
			signClaims(t, &Claims{ClientID: uuid.New(), RegisteredClaims: jwt.RegisteredClaims{Issuer: config.DefaultJWTIssuer}}),
			"invalid token",
		},
		{
			"no client id",
			signClaims(t, &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: config.DefaultJWTIssuer, ExpiresAt: exp}}),
			"client id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := s.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	s, _ := newClockedJWTService(time.Hour)
	clientID := uuid.New()
	token, err := s.GenerateToken(clientID, "batch-importer")
	require.NoError(t, err)

	identity, err := s.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, identity.GetClientID())
	assert.Equal(t, "batch-importer", identity.GetClientName())

	identity, err = s.AsTokenValidator().ValidateToken("nope")
	assert.Error(t, err)
	assert.Nil(t, identity)
}

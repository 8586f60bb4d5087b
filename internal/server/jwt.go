package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/server/middleware"
)

// tokenLeeway absorbs clock skew between the issuer and this service
const tokenLeeway = 30 * time.Second

// Claims identify an API client. The client name travels as the subject.
type Claims struct {
	ClientID uuid.UUID `json:"client_id"`
	jwt.RegisteredClaims
}

func (c *Claims) GetClientID() uuid.UUID { return c.ClientID }

func (c *Claims) GetClientName() string { return c.Subject }

// JWTService signs and verifies HS256 client tokens
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewJWTService creates a JWTService. Zero TTL or issuer take the defaults.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	s := &JWTService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = config.DefaultJWTTTL
	}
	if s.issuer == "" {
		s.issuer = config.DefaultJWTIssuer
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateToken issues a token for the named client
func (s *JWTService) GenerateToken(clientID uuid.UUID, clientName string) (string, error) {
	if clientID == uuid.Nil {
		return "", fmt.Errorf("client id is required")
	}
	now := s.now()
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   clientName,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature, issuer and lifetime of a token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("invalid token signature: %w", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("token expired: %w", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("malformed token: %w", err)
	default:
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims.ClientID == uuid.Nil {
		return nil, fmt.Errorf("token has no client id")
	}
	return claims, nil
}

// AsTokenValidator exposes the service to the auth middleware
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return middleware.ValidatorFunc(func(tokenString string) (middleware.ClientIdentity, error) {
		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

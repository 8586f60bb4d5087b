// Package middleware provides HTTP middleware for API client authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	clientIDKey   ContextKey = "clientID"
	clientNameKey ContextKey = "clientName"
)

// TokenValidator validates bearer tokens. It lets the middleware work with
// any token service without an import cycle.
type TokenValidator interface {
	ValidateToken(tokenString string) (ClientIdentity, error)
}

// ClientIdentity is the caller identity carried by a validated token.
type ClientIdentity interface {
	GetClientID() uuid.UUID
	GetClientName() string
}

// AuthMiddleware rejects requests without a valid bearer token and adds the
// client identity to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			identity, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, identity.GetClientID())
			ctx = context.WithValue(ctx, clientNameKey, identity.GetClientName())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken parses "Bearer <token>", accepting any case for the scheme
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="cv-job-matcher"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// GetClientID extracts the authenticated client ID from the request context.
func GetClientID(r *http.Request) (uuid.UUID, error) {
	id, ok := r.Context().Value(clientIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("client ID not found in request context")
	}
	return id, nil
}

// GetClientName returns the authenticated client name, or "" when the
// request was not authenticated.
func GetClientName(r *http.Request) string {
	name, _ := r.Context().Value(clientNameKey).(string)
	return name
}

// ClientIDKey returns the context key for the client ID (for testing purposes).
func ClientIDKey() ContextKey {
	return clientIDKey
}

// ValidatorFunc adapts a function to TokenValidator
type ValidatorFunc func(tokenString string) (ClientIdentity, error)

// ValidateToken calls f
func (f ValidatorFunc) ValidateToken(tokenString string) (ClientIdentity, error) {
	return f(tokenString)
}

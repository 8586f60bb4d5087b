package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/db"
	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
	"github.com/jonathan/cv-job-matcher/internal/metrics"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/server/middleware"
	"github.com/jonathan/cv-job-matcher/internal/server/ratelimit"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// Store persists profiles and match runs. *db.DB satisfies it.
type Store interface {
	SaveProfile(ctx context.Context, p *types.CandidateProfile, source, name string) error
	GetProfile(ctx context.Context, id uuid.UUID) (*db.ProfileRecord, error)
	ListProfiles(ctx context.Context, filters db.ProfileFilters) ([]db.ProfileRecord, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	SaveMatchRun(ctx context.Context, profileID uuid.UUID, res *jobsearch.MatchResult) (uuid.UUID, error)
}

// ProfileMatcher finds job postings for a profile. *jobsearch.Matcher satisfies it.
type ProfileMatcher interface {
	Match(ctx context.Context, p *types.CandidateProfile) (*jobsearch.MatchResult, error)
}

// Config holds server configuration
type Config struct {
	Port        int
	CORSOrigins []string
	RateLimit   bool
	// JWT enables bearer authentication on /profiles and /matches when set
	JWT *config.JWTConfig
}

// Deps are the collaborators the handlers call. Only Extractor is required;
// routes that need a missing collaborator answer 503.
type Deps struct {
	Extractor  *profile.Extractor
	Store      Store
	Matcher    ProfileMatcher
	Recognizer profile.MentionRecognizer
	Metrics    *metrics.Metrics
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	extractor   *profile.Extractor
	store       Store
	matcher     ProfileMatcher
	recognizer  profile.MentionRecognizer
	metrics     *metrics.Metrics
	corsOrigins []string
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Extractor == nil {
		return nil, fmt.Errorf("server requires a profile extractor")
	}

	s := &Server{
		extractor:   deps.Extractor,
		store:       deps.Store,
		matcher:     deps.Matcher,
		recognizer:  deps.Recognizer,
		metrics:     deps.Metrics,
		corsOrigins: cfg.CORSOrigins,
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromEnv(cfg.RateLimit, os.LookupEnv)),
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // job search calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with all middleware applied
func (s *Server) Handler() http.Handler {
	protect := func(h http.HandlerFunc) http.Handler {
		if s.jwtService == nil {
			return h
		}
		return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("POST /profiles", protect(s.handleCreateProfile))
	mux.Handle("GET /profiles", protect(s.handleListProfiles))
	mux.Handle("GET /profiles/{id}", protect(s.handleGetProfile))
	mux.Handle("DELETE /profiles/{id}", protect(s.handleDeleteProfile))
	mux.Handle("POST /matches", protect(s.handleCreateMatch))

	return s.withRateLimit(mux, s.withMetrics(s.withLogging(s.withCORS(mux))))
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers for the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if slices.Contains(s.corsOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.corsOrigins, origin) {
		return origin
	}
	return ""
}

// withRateLimit limits each client per route, keyed by the mux pattern
// the request resolves to
func (s *Server) withRateLimit(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		info := s.rateLimiter.Allow(s.extractClientID(r), pattern)
		s.setRateLimitHeaders(w, info)
		if !info.Allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics records request counts and latencies by route pattern
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// the mux fills in Pattern; unrouted paths share one label
		path := "unmatched"
		if r.Pattern != "" {
			path = r.Pattern
			if _, route, ok := strings.Cut(path, " "); ok {
				path = route
			}
		}
		s.metrics.ObserveHTTP(r.Method, path, rec.status, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"storage":    "disabled",
		"job_search": "disabled",
		"auth":       "disabled",
	}
	status := http.StatusOK
	if s.store != nil {
		components["storage"] = "ok"
		if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
			if err := p.Ping(r.Context()); err != nil {
				log.Printf("[health] storage ping failed: %v", err)
				components["storage"] = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
	}
	if s.matcher != nil {
		components["job_search"] = "ok"
	}
	if s.jwtService != nil {
		components["auth"] = "jwt"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	s.jsonResponse(w, status, map[string]any{"status": overall, "components": components})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status and writes it. Server errors are logged and
// their detail withheld from the client.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID identifies the caller for rate limiting: the token's
// client when authenticated, otherwise the remote IP.
func (s *Server) extractClientID(r *http.Request) string {
	if s.jwtService != nil {
		if token, ok := middleware.BearerToken(r.Header.Get("Authorization")); ok {
			if claims, err := s.jwtService.ValidateToken(token); err == nil {
				return "client:" + claims.ClientID.String()
			}
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

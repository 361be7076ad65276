package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"waphone/internal/config"
	"waphone/internal/logging"
	"waphone/internal/providers"
)

// Outcomes a vendor endpoint can be set to.
const (
	outcomeOK     = "ok"
	outcomeReject = "reject"
	outcomeError  = "error"
	outcomeSlow   = "slow"
)

type server struct {
	mu       sync.RWMutex
	outcomes map[providers.Name]string
	slow     time.Duration
	seq      uint64
}

func main() {
	cfg := config.LoadMockProvider()
	logging.Init("mock-provider", cfg.LogFormat, cfg.LogLevel)

	s := newServer(cfg)
	slog.Info("mock provider listening", "port", cfg.Port, "outcomes", s.snapshot())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           loggingMiddleware(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("mock provider server failed", "err", err)
		os.Exit(1)
	}
}

func newServer(cfg config.MockProviderConfig) *server {
	return &server{
		outcomes: map[providers.Name]string{
			providers.UltraMsg:  normalizeOutcome(cfg.UltraMsgOutcome),
			providers.Dialog360: normalizeOutcome(cfg.Dialog360Outcome),
			providers.WATI:      normalizeOutcome(cfg.WatiOutcome),
			providers.Twilio:    normalizeOutcome(cfg.TwilioOutcome),
		},
		slow: cfg.SlowDelay,
	}
}

func normalizeOutcome(s string) string {
	switch o := strings.ToLower(strings.TrimSpace(s)); o {
	case outcomeOK, outcomeReject, outcomeError, outcomeSlow:
		return o
	}
	return outcomeOK
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/{instance}/messages/chat", s.handleUltraMsg).Methods(http.MethodPost)
	r.HandleFunc("/v1/messages", s.handleDialog360).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/sendSessionMessage/{phone}", s.handleWati).Methods(http.MethodPost)
	r.HandleFunc("/2010-04-01/Accounts/{AccountSid}/Messages.json", s.handleTwilio).Methods(http.MethodPost)

	// Outcomes can be switched at runtime to walk the fallback chain.
	r.HandleFunc("/_mock/outcomes", s.handleGetOutcomes).Methods(http.MethodGet)
	r.HandleFunc("/_mock/outcomes/{provider}/{outcome}", s.handleSetOutcome).Methods(http.MethodPut)
	return r
}

func (s *server) outcome(name providers.Name) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcomes[name]
}

func (s *server) snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.outcomes))
	for k, v := range s.outcomes {
		out[string(k)] = v
	}
	return out
}

// respond applies the common outcomes and reports whether the vendor
// handler should write its own success or rejection body.
func (s *server) respond(w http.ResponseWriter, r *http.Request, name providers.Name) (reject, done bool) {
	switch s.outcome(name) {
	case outcomeError:
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
		return false, true
	case outcomeSlow:
		select {
		case <-time.After(s.slow):
		case <-r.Context().Done():
			return false, true
		}
	case outcomeReject:
		return true, false
	}
	return false, false
}

func (s *server) nextID(prefix string) string {
	return fmt.Sprintf("%s%010d", prefix, atomic.AddUint64(&s.seq, 1))
}

func (s *server) handleUltraMsg(w http.ResponseWriter, r *http.Request) {
	reject, done := s.respond(w, r, providers.UltraMsg)
	if done {
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("token") == "" {
		reject = true
	}
	if reject {
		writeJSON(w, http.StatusOK, map[string]any{"error": "Wrong token. Please provide token as a GET parameter."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": "true", "message": "ok", "id": atomic.AddUint64(&s.seq, 1)})
}

func (s *server) handleDialog360(w http.ResponseWriter, r *http.Request) {
	reject, done := s.respond(w, r, providers.Dialog360)
	if done {
		return
	}
	if r.Header.Get("D360-API-KEY") == "" {
		reject = true
	}
	if reject {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []map[string]any{{"code": 1000, "title": "Invalid api key"}},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": []map[string]string{{"id": s.nextID("wamid.")}},
	})
}

func (s *server) handleWati(w http.ResponseWriter, r *http.Request) {
	reject, done := s.respond(w, r, providers.WATI)
	if done {
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		reject = true
	}
	if reject {
		writeJSON(w, http.StatusOK, map[string]any{"result": false, "message": "Invalid Contact"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true, "message": s.nextID("wati_")})
}

func (s *server) handleTwilio(w http.ResponseWriter, r *http.Request) {
	reject, done := s.respond(w, r, providers.Twilio)
	if done {
		return
	}
	user, _, ok := r.BasicAuth()
	if !ok || user != mux.Vars(r)["AccountSid"] {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 20003, "message": "Authenticate", "status": 401})
		return
	}
	if reject {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 21211, "message": "Invalid 'To' Phone Number", "status": 400})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sid": s.nextID("SM"), "status": "queued"})
}

func (s *server) handleGetOutcomes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *server) handleSetOutcome(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, ok := providers.Parse(vars["provider"])
	if !ok {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}
	outcome := strings.ToLower(vars["outcome"])
	if normalizeOutcome(outcome) != outcome {
		http.Error(w, "unknown outcome", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.outcomes[name] = outcome
	s.mu.Unlock()
	slog.Info("mock outcome changed", "provider", name, "outcome", outcome)
	writeJSON(w, http.StatusOK, s.snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("mock provider request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

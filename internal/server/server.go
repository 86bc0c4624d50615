// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the template directory, questionnaire sessions, and
// the document store over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/internal/checkpoint"
	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/internal/questionnaire"
	"github.com/pdiddy/lexdraft/internal/store"
	"github.com/pdiddy/lexdraft/internal/validate"
)

// Deps holds the collaborators the API serves.
type Deps struct {
	// Catalog is the template directory.
	Catalog *catalog.Catalog

	// Source supplies question lists. Defaults to Catalog.
	Source catalog.Source

	Validator   *validate.Validator
	Generator   *generate.Generator
	Store       *store.Store
	Checkpoints checkpoint.Store
}

// Server is the HTTP API. Sessions live in memory for the life of the
// process.
type Server struct {
	deps    Deps
	timeout time.Duration
	logger  *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New returns a Server. sessionTimeout bounds each questionnaire call; a nil
// logger uses the standard logger.
func New(deps Deps, sessionTimeout time.Duration, logger *log.Logger) *Server {
	if deps.Source == nil {
		deps.Source = deps.Catalog
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		deps:     deps,
		timeout:  sessionTimeout,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/templates", s.listTemplates).Methods("GET")
	v1.HandleFunc("/templates/{id}", s.getTemplate).Methods("GET")
	v1.HandleFunc("/templates/{id}/questions", s.getQuestions).Methods("GET")
	v1.HandleFunc("/templates/{id}/validate", s.validateAnswers).Methods("POST")

	v1.HandleFunc("/sessions", s.createSession).Methods("POST")
	v1.HandleFunc("/sessions/{id}", s.getSession).Methods("GET")
	v1.HandleFunc("/sessions/{id}", s.deleteSession).Methods("DELETE")
	v1.HandleFunc("/sessions/{id}/answers/{questionId}", s.putAnswer).Methods("PUT")
	v1.HandleFunc("/sessions/{id}/advance", s.advance).Methods("POST")
	v1.HandleFunc("/sessions/{id}/retreat", s.retreat).Methods("POST")
	v1.HandleFunc("/sessions/{id}/submit", s.submit).Methods("POST")
	v1.HandleFunc("/sessions/{id}/cancel", s.cancel).Methods("POST")

	v1.HandleFunc("/documents", s.listDocuments).Methods("GET")
	v1.HandleFunc("/documents", s.createDocument).Methods("POST")
	v1.HandleFunc("/documents/{id}", s.getDocument).Methods("GET")
	v1.HandleFunc("/documents/{id}", s.updateDocument).Methods("PATCH")
	v1.HandleFunc("/documents/{id}", s.deleteDocument).Methods("DELETE")
	v1.HandleFunc("/documents/{id}/duplicate", s.duplicateDocument).Methods("POST")
	v1.HandleFunc("/documents/{id}/export", s.exportDocument).Methods("GET")
	v1.HandleFunc("/documents/{id}/signatures", s.listSignatures).Methods("GET")
	v1.HandleFunc("/documents/{id}/signatures", s.signDocument).Methods("POST")
	v1.HandleFunc("/signatures/{id}/verify", s.verifySignature).Methods("GET")
	v1.HandleFunc("/signatures/{id}", s.deleteSignature).Methods("DELETE")

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, checkpoint.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, questionnaire.ErrBusy),
		errors.Is(err, questionnaire.ErrInvalidState),
		errors.Is(err, questionnaire.ErrLastStep):
		return http.StatusConflict
	case errors.Is(err, questionnaire.ErrUnknownQuestion),
		errors.Is(err, questionnaire.ErrValueShape),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// clientIP returns the originating address, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/pkg/llm"
	"github.com/aurahq/aura/pkg/rag"
)

const (
	maxTenantNameLen = 255
	maxTitleLen      = 500
	maxQuestionLen   = 2000
)

// Engine is the slice of the question-answering pipeline the HTTP layer
// needs.
type Engine interface {
	Ask(ctx context.Context, tenantID uuid.UUID, question string) (models.Answer, error)
	Ingest(ctx context.Context, tenantID uuid.UUID, title, content string) (models.Document, int, error)
}

// TenantStore creates tenants.
type TenantStore interface {
	CreateTenant(ctx context.Context, name string) (models.Tenant, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	config  Config
	engine  Engine
	tenants TenantStore
	db      Pinger
	cache   Pinger
	http    *http.Server
	log     *slog.Logger
}

func NewWithConfig(config Config, engine Engine, tenants TenantStore, db, cache Pinger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		// Generation against a local model can be slow.
		config.WriteTimeout = 120 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config:  config,
		engine:  engine,
		tenants: tenants,
		db:      db,
		cache:   cache,
		log:     slog.Default().With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /tenants", s.handleCreateTenant)
	mux.HandleFunc("POST /documents", s.handleIngestDocument)
	mux.HandleFunc("POST /ask", s.handleAsk)

	s.http = &http.Server{
		Addr:         config.Addr,
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.config.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type createTenantRequest struct {
	Name string `json:"name"`
}

type ingestDocumentRequest struct {
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type ingestDocumentResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type askRequest struct {
	TenantID string `json:"tenant_id"`
	Question string `json:"question"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok", "cache": "ok"}
	code := http.StatusOK

	if err := s.db.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := s.cache.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["cache"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > maxTenantNameLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("name exceeds %d characters", maxTenantNameLen))
		return
	}

	tenant, err := s.tenants.CreateTenant(r.Context(), req.Name)
	if err != nil {
		s.log.Error("create tenant failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, tenant)
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tenant_id must be a valid UUID")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Title) > maxTitleLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("title exceeds %d characters", maxTitleLen))
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, chunkCount, err := s.engine.Ingest(r.Context(), tenantID, req.Title, req.Content)
	if err != nil {
		s.writeEngineError(w, err, "ingest")
		return
	}

	writeJSON(w, http.StatusCreated, ingestDocumentResponse{
		DocumentID: doc.ID.String(),
		ChunkCount: chunkCount,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tenant_id must be a valid UUID")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("question exceeds %d characters", maxQuestionLen))
		return
	}

	answer, err := s.engine.Ask(r.Context(), tenantID, req.Question)
	if err != nil {
		s.writeEngineError(w, err, "ask")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, rag.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, llm.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "model provider rate limit exceeded, retry later")
	default:
		s.log.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

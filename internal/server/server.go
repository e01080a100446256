// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes search and PDF acquisition over HTTP under /api,
// plus Prometheus metrics at /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/acquire"
	"github.com/pdiddy/patent-scout/internal/ledger"
	"github.com/pdiddy/patent-scout/internal/metrics"
	"github.com/pdiddy/patent-scout/internal/search"
	"github.com/pdiddy/patent-scout/pkg/types"
)

const maxBodyBytes = 1 << 20

// Downloader fetches one validated PDF.
type Downloader interface {
	Download(ctx context.Context, id, url string) (acquire.Artifact, error)
}

// BatchDownloader fetches many PDFs, one result per identifier.
type BatchDownloader interface {
	AcquireBatch(ctx context.Context, ids []string) []types.DownloadResult
}

// Ledger records and lists acquisition outcomes.
type Ledger interface {
	Record(ctx context.Context, batchID, origin string, results []types.DownloadResult) error
	Recent(ctx context.Context, q ledger.Query) ([]ledger.Entry, error)
}

// Deps are the collaborators behind the routes. Ledger and Metrics may be
// nil.
type Deps struct {
	Search   search.Searcher
	Download Downloader
	Batch    BatchDownloader
	Ledger   Ledger
	Metrics  *metrics.Metrics

	// Services is reported by /api/health.
	Services []string
	// LogFile is served by /api/logs when set.
	LogFile string
}

// Server holds the router and its dependencies.
type Server struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time
}

// New builds a Server. A nil log discards output.
func New(deps Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if len(deps.Services) == 0 {
		deps.Services = []string{"google-patents", "wipo"}
	}
	return &Server{deps: deps, log: log.Named("server"), now: time.Now}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogging(s.log, s.deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/search", s.handleSearch)
		r.Post("/download", s.handleDownload)
		r.Post("/batch-download", s.handleBatchDownload)
		r.Get("/history", s.handleHistory)
		r.Get("/logs", s.handleLogs)
	})
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	services := make(map[string]string, len(s.deps.Services))
	for _, name := range s.deps.Services {
		services[name] = "available"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": s.now().UTC(),
		"services":  services,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid search request", err)
		return
	}

	resp, err := s.deps.Search.Search(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, search.ErrEmptyKeywords):
		writeError(w, http.StatusBadRequest, "Keywords are required", nil)
	case errors.Is(err, search.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, "Unknown source", err)
	case errors.Is(err, search.ErrAllSourcesFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:    "Patent search failed",
			Details:  err.Error(),
			Warnings: resp.Warnings,
		})
	default:
		writeError(w, http.StatusInternalServerError, "Patent search failed", err)
	}
}

type downloadRequest struct {
	PatentID string `json:"patentId"`
	PDFURL   string `json:"pdfUrl"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid download request", err)
		return
	}
	if strings.TrimSpace(req.PatentID) == "" {
		writeError(w, http.StatusBadRequest, "Patent ID is required", nil)
		return
	}

	art, err := s.deps.Download.Download(r.Context(), req.PatentID, req.PDFURL)
	if err != nil {
		writeError(w, DownloadStatus(err), "PDF download failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, acquire.Slug(art.PatentID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// DownloadStatus maps an acquisition error to an HTTP status: upstream
// refusals and transport failures are 502, deadlines 504, non-PDF payloads
// 422, and storage failures 500.
func DownloadStatus(err error) int {
	switch acquire.Outcome(err) {
	case "invalid_content":
		return http.StatusUnprocessableEntity
	case "io":
		return http.StatusInternalServerError
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type batchRequest struct {
	PatentIDs []string `json:"patentIds"`
}

type batchResponse struct {
	Results   []types.DownloadResult `json:"results"`
	Timestamp time.Time              `json:"timestamp"`
	BatchID   string                 `json:"batchId"`
}

func (s *Server) handleBatchDownload(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil || len(req.PatentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "Patent IDs array is required", err)
		return
	}

	batchID := uuid.NewString()
	s.log.Info("batch download",
		zap.String("batch_id", batchID),
		zap.Int("count", len(req.PatentIDs)),
		zap.String("request_id", RequestID(r.Context())),
	)
	results := s.deps.Batch.AcquireBatch(r.Context(), req.PatentIDs)

	if s.deps.Ledger != nil {
		// The batch already ran; a ledger failure is logged, not returned.
		if err := s.deps.Ledger.Record(context.WithoutCancel(r.Context()), batchID, "api", results); err != nil {
			s.log.Error("recording batch", zap.String("batch_id", batchID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Results:   results,
		Timestamp: s.now().UTC(),
		BatchID:   batchID,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ledger == nil {
		writeError(w, http.StatusNotFound, "Download ledger is disabled", nil)
		return
	}
	q := ledger.Query{
		PatentID:   r.URL.Query().Get("patentId"),
		FailedOnly: r.URL.Query().Get("failed") == "true",
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		q.Limit = n
	}

	entries, err := s.deps.Ledger.Recent(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reading download ledger failed", err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	if s.deps.LogFile == "" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No logs available"})
		return
	}
	data, err := os.ReadFile(s.deps.LogFile)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No logs available"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

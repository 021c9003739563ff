package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/pass"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/service"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

type Dependencies struct {
	Logger           *log.Logger
	Addr             string
	HeartbeatService *service.HeartbeatService
	Checkpoint       *service.CheckpointService
	AuditLog         *service.AuditLog
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	checkpoint *service.CheckpointService
	heartbeat  *service.HeartbeatService
	audit      *service.AuditLog
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:     d.Logger,
		checkpoint: d.Checkpoint,
		heartbeat:  d.HeartbeatService,
		audit:      d.AuditLog,
	}

	r := chi.NewRouter()

	r.Route("/v1/terminals/{terminalID}", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/lookup", s.handleLookup)
		r.Post("/decision", s.handleDecision)
		r.Post("/reset", s.handleReset)
		r.Get("/session", s.handleSession)
	})

	r.Post("/v1/heartbeat", s.handleHeartbeat)

	r.Get("/v1/logs", s.handleQueryLogs)
	r.Get("/v1/logs/facilities", s.handleListFacilities)
	r.Get("/v1/logs/export", s.handleExportLogs)
	r.Delete("/v1/logs", s.handlePurgeLogs)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	handler := loggingMiddleware(d.Logger, r)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := s.checkpoint.Present(r.Context(), chi.URLParam(r, "terminalID"), req.Raw)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req types.LookupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := s.checkpoint.Lookup(r.Context(), chi.URLParam(r, "terminalID"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req types.DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.checkpoint.Decide(r.Context(), chi.URLParam(r, "terminalID"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.checkpoint.Reset(r.Context(), chi.URLParam(r, "terminalID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.checkpoint.View(r.Context(), chi.URLParam(r, "terminalID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req types.HeartbeatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.heartbeat.Record(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTerminalID) {
			writeError(w, http.StatusBadRequest, "invalid_terminal_id", err.Error())
			return
		}
		s.logger.Printf("heartbeat error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.parseLogFilter(w, r)
	if !ok {
		return
	}

	entries, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []types.AccessLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := s.audit.Facilities(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if facilities == nil {
		facilities = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
}

func (s *Server) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.parseLogFilter(w, r)
	if !ok {
		return
	}

	entries, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+service.ExportFilename(time.Now())+`"`)
	if err := s.audit.WriteCSV(w, entries); err != nil {
		s.logger.Printf("csv export error: %v", err)
	}
}

func (s *Server) handlePurgeLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.audit.Purge(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) parseLogFilter(w http.ResponseWriter, r *http.Request) (store.LogFilter, bool) {
	q := r.URL.Query()

	filter := store.LogFilter{
		Text:     strings.TrimSpace(q.Get("q")),
		Facility: strings.TrimSpace(q.Get("facility")),
	}

	if action := strings.TrimSpace(q.Get("action")); action != "" {
		a := types.LogAction(strings.ToUpper(action))
		if a != types.ActionAdmit && a != types.ActionDeny {
			writeError(w, http.StatusBadRequest, "bad_query", "action must be ADMIT or DENY")
			return store.LogFilter{}, false
		}
		filter.Action = a
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_query", p.name+" must be RFC 3339")
			return store.LogFilter{}, false
		}
		*p.dst = &t
	}

	return filter, true
}

// writeServiceError maps service-layer failures onto the HTTP error
// vocabulary. Persistence faults surface as 502 so terminals can tell "the
// server refused" apart from "the server's storage is down".
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var perr *store.PersistenceError
	switch {
	case errors.Is(err, pass.ErrInvalidPayload):
		writeError(w, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
	case errors.Is(err, service.ErrUnknownTerminal):
		writeError(w, http.StatusNotFound, "unknown_terminal", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no matching request record")
	case errors.Is(err, service.ErrNoVerifiedClaim):
		writeError(w, http.StatusConflict, "no_verified_claim", err.Error())
	case errors.Is(err, service.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, service.ErrEmptyLookup):
		writeError(w, http.StatusBadRequest, "empty_lookup", err.Error())
	case errors.As(err, &perr):
		s.logger.Printf("persistence error: %v", err)
		writeError(w, http.StatusBadGateway, "persistence_error", "audit storage unavailable")
	default:
		s.logger.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

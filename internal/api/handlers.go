package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/internal/session"
	"github.com/leapstack-labs/sqlscope/pkg/adapter"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

type schemaResponse struct {
	Tables []string                 `json:"tables"`
	Schema map[string][]core.Column `json:"schema"`
}

type loadRequest struct {
	Table core.Table `json:"table"`
	Rows  []core.Row `json:"rows"`
}

type loadResponse struct {
	Message string   `json:"message"`
	Tables  []string `json:"tables"`
}

type historyResponse struct {
	Queries  []*core.QueryRecord    `json:"queries"`
	Analyses []*core.AnalysisRecord `json:"analyses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	sess, release, err := s.store(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer release()
	schema, err := sess.Store.Schema(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	resp := schemaResponse{Tables: schema.Names(), Schema: make(map[string][]core.Column, len(schema.Tables))}
	for _, t := range schema.Tables {
		cols := t.Columns
		if cols == nil {
			cols = []core.Column{}
		}
		resp.Schema[t.Name] = cols
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeSpec(w, r)
	if !ok {
		return
	}
	sess, release, err := s.store(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer release()

	result, err := s.engine.RunQuery(r.Context(), sess.Store, spec)
	if err != nil {
		s.queryError(w, r, spec.Table, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeSpec(w, r)
	if !ok {
		return
	}

	var schema *core.Schema
	if sess, release, err := s.sessions.Acquire(r.Context(), sessionID(r.Context()), false); err == nil {
		schema, err = sess.Store.Schema(r.Context())
		release()
		if err != nil {
			s.serverError(w, r, err)
			return
		}
	}

	compiled, err := s.engine.CompileQuery(r.Context(), schema, spec)
	if err != nil {
		s.queryError(w, r, spec.Table, err)
		return
	}
	writeJSON(w, http.StatusOK, compiled)
}

func (s *Server) handleNormalization(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, core.AnalysisNormalization, s.normSample)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, core.AnalysisInsights, s.insightLimit)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, kind core.AnalysisKind, limit int) {
	if v := r.URL.Query().Get("sample"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "sample must be a positive integer")
			return
		}
		limit = n
	}

	sess, release, err := s.store(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer release()
	report, err := s.engine.AnalyzeSource(r.Context(), sess.Store, kind, limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLoadTable(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := core.NewSchema(req.Table).Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, row := range req.Rows {
		core.NormalizeNumbers(row)
	}

	sess, release, err := s.store(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer release()
	if err := sess.Store.LoadTable(r.Context(), req.Table, req.Rows); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.notifier.Broadcast(sess.ID)

	schema, err := sess.Store.Schema(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{Message: "Loaded", Tables: schema.Names()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	queries, err := s.engine.RecentQueries(r.Context(), limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	analyses, err := s.engine.RecentAnalyses(r.Context(), limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if queries == nil {
		queries = []*core.QueryRecord{}
	}
	if analyses == nil {
		analyses = []*core.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Queries: queries, Analyses: analyses})
}

// handleEvents streams the session's table list as datastar signal
// patches, once on connect and again after every load.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	ch := s.notifier.Subscribe(id)
	defer s.notifier.Unsubscribe(id, ch)

	sse := datastar.NewSSE(w, r)
	send := func() error {
		tables := []string{}
		if sess, release, err := s.sessions.Acquire(r.Context(), id, false); err == nil {
			schema, err := sess.Store.Schema(r.Context())
			release()
			if err != nil {
				return err
			}
			tables = schema.Names()
		}
		return sse.MarshalAndPatchSignals(map[string]any{"tables": tables})
	}

	if err := send(); err != nil {
		s.logger.Debug("event stream closed", "session", id, "error", err.Error())
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if err := send(); err != nil {
				s.logger.Debug("event stream closed", "session", id, "error", err.Error())
				return
			}
		}
	}
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	if err := s.sessions.Destroy(id); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	s.notifier.Broadcast(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeSpec(w http.ResponseWriter, r *http.Request) (core.QuerySpec, bool) {
	var spec core.QuerySpec
	if err := decodeJSON(w, r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query spec: "+err.Error())
		return spec, false
	}
	spec.NormalizeValues()
	return spec, true
}

// queryError maps compile and execution failures to status codes. Input
// problems are the caller's fault and get 400.
func (s *Server) queryError(w http.ResponseWriter, r *http.Request, table string, err error) {
	var qe *adapter.QueryError
	switch {
	case errors.Is(err, engine.ErrMissingTable):
		writeError(w, http.StatusBadRequest, "table is required")
	case errors.Is(err, engine.ErrUnknownTable):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Table '%s' does not exist", table))
	case errors.As(err, &qe) && qe.IsUserError():
		s.logger.Info("query rejected by store", "error", err.Error(), "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadRequest, qe.Error())
	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err.Error(), "request_id", middleware.GetReqID(r.Context()))
	writeError(w, http.StatusInternalServerError, err.Error())
}

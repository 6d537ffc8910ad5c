package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/tile"
)

// APIResponse wraps the result of every API endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.requestLogger(r).Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	s.writeJSON(w, r, statusCode, APIResponse{Success: statusCode < 400, Data: data})
}

func (s *Server) sendError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSON(w, r, statusCode, APIResponse{Error: message})
}

// statusOf maps errors of dashboards and backends to HTTP statuses.
func statusOf(err error) int {
	if re, ok := model.AsRequestError(err); ok {
		if re.Status == 0 {
			return http.StatusBadGateway
		}
		return re.Status
	}
	switch {
	case errors.Is(err, tile.ErrEmptyQuery),
		errors.Is(err, dashboard.ErrTooManyWords),
		errors.Is(err, ErrMissingQuery):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnknownTile),
		errors.Is(err, freqdb.ErrNoDatabase):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLayout serves the tile and layout configuration. Tile API headers
// are never serialized.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.layout)
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, r, http.StatusOK, s.shared.Tiles())
}

// handleQuery runs a query on a fresh dashboard. Multiple q parameters
// form a multi-word query. When the query timed out the partial result is
// sent along with the error.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	words := r.URL.Query()["q"]
	if len(words) == 0 {
		s.sendError(w, r, http.StatusBadRequest, ErrMissingQuery.Error())
		return
	}
	d, err := s.newDashboard()
	if err != nil {
		s.requestLogger(r).Error("failed to create dashboard", "error", err)
		s.sendError(w, r, http.StatusInternalServerError, "failed to create dashboard")
		return
	}
	defer d.Close()

	res, err := d.Query(r.Context(), dashboard.Request{
		Words:  words,
		Lang:   r.URL.Query().Get("queryLang"),
		UILang: s.uiLang(r),
	})
	if err != nil {
		status := statusOf(err)
		if res == nil {
			s.sendError(w, r, status, err.Error())
			return
		}
		s.writeJSON(w, r, status, APIResponse{Data: res, Error: err.Error()})
		return
	}
	s.sendJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleQueryMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.sendError(w, r, http.StatusBadRequest, ErrMissingQuery.Error())
		return
	}
	matches, err := s.shared.QueryMatches(r.Context(), r.URL.Query().Get("queryLang"), q)
	if err != nil {
		s.sendError(w, r, statusOf(err), err.Error())
		return
	}
	s.sendJSON(w, r, http.StatusOK, matches)
}

func (s *Server) handleSourceInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.shared.SourceInfo(r.Context(), r.PathValue("tile"), s.uiLang(r))
	if err != nil {
		s.sendError(w, r, statusOf(err), err.Error())
		return
	}
	s.sendJSON(w, r, http.StatusOK, info)
}

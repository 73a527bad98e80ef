package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/isomatch/pkg/buildinfo"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/graph"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/observability"
)

// Input formats accepted by /v1/match.
const (
	formatText = "text"
	formatJSON = "json"
)

// MatchRequest is the body of POST /v1/match. Targets and Queries hold a
// graph database each. Format applies to both unless QueriesFormat is set.
type MatchRequest struct {
	Targets       string          `json:"targets"`
	Queries       string          `json:"queries"`
	Format        string          `json:"format,omitempty"`         // text (default) or json
	QueriesFormat string          `json:"queries_format,omitempty"` // defaults to Format
	Name          string          `json:"name,omitempty"`           // recorded as the report's target set
	Options       json.RawMessage `json:"options,omitempty"`
}

type errorBody struct {
	Error struct {
		Code    errs.Code `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	format, err := parseFormat(req.Format, formatText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	queriesFormat, err := parseFormat(req.QueriesFormat, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	targets, err := parseGraphs(req.Targets, format, s.cfg.TargetPrefix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	queries, err := parseGraphs(req.Queries, queriesFormat, s.cfg.QueryPrefix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(queries) == 0 {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "no query graphs in request"))
		return
	}

	opts := s.cfg.Defaults
	if len(req.Options) > 0 {
		if err := json.Unmarshal(req.Options, &opts); err != nil {
			s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode options"))
			return
		}
	}
	opts.Source = req.Name
	if opts.Source == "" {
		opts.Source = "request:" + middleware.GetReqID(r.Context())
	}
	opts.Logger = s.cfg.Logger.With("request_id", middleware.GetReqID(r.Context()))

	rep, err := s.cfg.Runner.Run(r.Context(), targets, queries, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Store.Save(r.Context(), rep); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// parseFormat validates an input format name, returning def when it is empty.
func parseFormat(name, def string) (string, error) {
	if name == "" {
		return def, nil
	}
	return errs.ValidateFormat(name, formatText, formatJSON)
}

func parseGraphs(data, format, prefix string) ([]*graph.Graph, error) {
	if format == formatJSON {
		if strings.TrimSpace(data) == "" {
			return nil, nil
		}
		return pkgio.ReadJSON(strings.NewReader(data), prefix)
	}
	return pkgio.ReadGraphDB(strings.NewReader(data), prefix)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidateReportID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		err = errs.Wrap(errs.ErrCodeInvalidInput, err, "request body exceeds %d bytes", maxErr.Limit)
	}

	status := errs.HTTPStatus(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errs.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// logRequests logs every request and reports it to the server hooks under
// its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		d := time.Since(start)

		observability.Server().OnRequest(r.Context(), r.Method, route, status, d)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

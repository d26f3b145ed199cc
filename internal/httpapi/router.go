// Package httpapi serves the diagnosis engine, the session workflow and
// Prometheus metrics over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/classify"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// #region bodies
type createBody struct {
	HostName     string `json:"host_name"`
	Relationship string `json:"relationship,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// #endregion bodies

// #region router
// API holds the handlers' dependencies.
type API struct {
	pairing  *pairing.Service
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// New creates an API. A nil gatherer disables /metrics; logger may be nil.
func New(svc *pairing.Service, logger *zap.Logger, gatherer prometheus.Gatherer) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{pairing: svc, logger: logger, gatherer: gatherer}
}

// Router returns the HTTP handler.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)

	r.Get("/healthz", a.handleHealth)
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/diagnose", a.handleDiagnose)
		r.Get("/catalog", a.handleCatalog)
		r.Get("/catalog/{code}", a.handleLookup)

		r.Post("/sessions", a.handleCreate)
		r.Get("/sessions", a.handleList)
		r.Get("/sessions/{id}", a.handleGet)
		r.Get("/sessions/{id}/result", a.handleResult)
		r.Put("/sessions/{id}/{role}", a.handleSubmit)
	})
	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			a.logger.Error("http request failed", fields...)
		} else {
			a.logger.Debug("http request", fields...)
		}
	})
}

// #endregion router

// #region handlers
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"bank_version": a.pairing.Engine().Bank().Version(),
	})
}

func (a *API) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if !readJSON(w, r, &in) {
		return
	}
	res, err := a.pairing.Diagnose(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.pairing.Engine().Resolver().Records())
}

func (a *API) handleLookup(w http.ResponseWriter, r *http.Request) {
	res, err := a.pairing.Lookup(r.Context(), axis.Code(chi.URLParam(r, "code")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !readJSON(w, r, &body) {
		return
	}
	st, err := a.pairing.Create(r.Context(), body.HostName, body.Relationship)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "last must be a non-negative integer"})
			return
		}
		limit = n
	}
	completed := r.URL.Query().Get("completed") == "true"
	list, err := a.pairing.List(r.Context(), limit, completed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := a.pairing.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleResult(w http.ResponseWriter, r *http.Request) {
	st, err := a.pairing.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	role := session.Role(chi.URLParam(r, "role"))
	if role != session.RoleHost && role != session.RoleGuest {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "role must be host or guest"})
		return
	}
	var sub pairing.Submission
	if !readJSON(w, r, &sub) {
		return
	}
	st, err := a.pairing.Submit(r.Context(), chi.URLParam(r, "id"), role, sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// #endregion handlers

// #region encoding
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrUnknownQuestion),
		errors.Is(err, bank.ErrOutOfScale),
		errors.Is(err, classify.ErrUnknownRelationship),
		errors.Is(err, pairing.ErrNoAnswers):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrCompleted),
		errors.Is(err, pairing.ErrPending),
		errors.Is(err, pairing.ErrBankMismatch):
		return http.StatusConflict
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// #endregion encoding

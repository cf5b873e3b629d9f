// Package api exposes the payload builder over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/payload-cache/pcache/cache"
	"github.com/rs/zerolog"
)

// Service is the payload behaviour the handlers depend on.
type Service interface {
	Build(ctx context.Context, list1, list2 []string) (string, error)
	Lookup(ctx context.Context, identifier string) (string, error)
}

// Pinger reports store liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsSource supplies the /metrics body.
type MetricsSource interface {
	Snapshot() cache.MetricsSnapshot
}

// HandlerConfig wires a Handler. Only Service is required.
type HandlerConfig struct {
	Service        Service
	Pinger         Pinger
	Metrics        MetricsSource
	Logger         zerolog.Logger
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

type payloadRequest struct {
	List1 []string `json:"list_1"`
	List2 []string `json:"list_2"`
}

type payloadCreated struct {
	Identifier string `json:"identifier"`
}

type payloadOutput struct {
	Output string `json:"output"`
}

type handler struct {
	service   Service
	pinger    Pinger
	metrics   MetricsSource
	validator *JSONValidator
}

// NewHandler builds the routed, instrumented HTTP handler.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("payload service is required")
	}
	validator, err := NewJSONValidator(payloadRequestSchema)
	if err != nil {
		return nil, err
	}

	h := &handler{
		service:   cfg.Service,
		pinger:    cfg.Pinger,
		metrics:   cfg.Metrics,
		validator: validator,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payload", h.createPayload)
	mux.HandleFunc("GET /payload/{identifier}", h.getPayload)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /metrics", h.metricsSnapshot)

	var next http.Handler = mux
	next = withMaxBody(cfg.MaxBodyBytes, next)
	next = withTimeout(cfg.RequestTimeout, next)
	next = withRequestLogger(cfg.Logger, next)
	return next, nil
}

func (h *handler) createPayload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit))
			return
		}
		writeDetail(w, http.StatusBadRequest, "Unable to read request body.")
		return
	}

	if err := h.validator.Validate(body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var req payloadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	identifier, err := h.service.Build(r.Context(), req.List1, req.List2)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payloadCreated{Identifier: identifier})
}

func (h *handler) getPayload(w http.ResponseWriter, r *http.Request) {
	output, err := h.service.Lookup(r.Context(), r.PathValue("identifier"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payloadOutput{Output: output})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
			writeDetail(w, http.StatusServiceUnavailable, "Storage unavailable.")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeJSON(w, http.StatusOK, cache.MetricsSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

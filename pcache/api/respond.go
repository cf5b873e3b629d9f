package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZanzyTHEbar/payload-cache/pcache/cache"
	"github.com/rs/zerolog"
)

const internalErrorDetail = "Internal server error."

// detailResponse is the error body every failing endpoint returns.
type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// writeError maps core errors to HTTP statuses. Storage causes are logged and
// never leak into the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cache.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, cache.ErrInvalidInput.Error())
	case errors.Is(err, cache.ErrNotFound):
		writeDetail(w, http.StatusNotFound, cache.ErrNotFound.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		writeDetail(w, http.StatusInternalServerError, internalErrorDetail)
	}
}

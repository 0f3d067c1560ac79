package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chtzvt/backlogtrace/internal/cluster"
)

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// clusterError maps registry errors onto HTTP status codes.
func clusterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cluster.ErrContextNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cluster.ErrTracerUnavailable):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cluster.ErrInvalidName):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, err.Error())
	}
}

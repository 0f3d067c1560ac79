package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chtzvt/backlogtrace/internal/tracer"
)

// IngestHandler accepts trace events for hosted contexts:
//
//	POST /trace/{context}  body: tracer.Event as JSON
func (a *Agent) IngestHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trace/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/trace/")
		if name == "" || strings.Contains(name, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		var ev tracer.Event
		body := http.MaxBytesReader(w, r.Body, a.MaxEventBytes)
		if err := json.NewDecoder(body).Decode(&ev); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("event exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, "invalid event: "+err.Error())
			return
		}
		recorded, err := a.Record(name, ev)
		if errors.Is(err, ErrUnknownContext) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]bool{"recorded": recorded})
	})
	return mux
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

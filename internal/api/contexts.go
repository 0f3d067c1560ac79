// api/contexts.go
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

func RegisterContextHandlers(mux *http.ServeMux, cl cluster.Cluster) {
	// List all registered contexts
	mux.HandleFunc("/api/contexts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		contexts, err := cl.ListContexts(r.Context())
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to list contexts: "+err.Error())
			return
		}
		writeJSON(w, contexts)
	})

	// /api/contexts/{name}[/tracer[/backlog|/control]]
	mux.HandleFunc("/api/contexts/", func(w http.ResponseWriter, r *http.Request) {
		// Split before unescaping so an escaped "/" stays inside the name.
		rest := strings.TrimPrefix(r.URL.EscapedPath(), "/api/contexts/")
		rawName, sub, _ := strings.Cut(rest, "/")
		if rawName == "" {
			jsonError(w, http.StatusBadRequest, "missing context name")
			return
		}
		name, err := url.PathUnescape(rawName)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid context name: "+err.Error())
			return
		}
		if err := cluster.ValidateName(name); err != nil {
			clusterError(w, err)
			return
		}

		switch sub {
		case "":
			if r.Method != "GET" {
				jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			info, err := cl.GetContext(r.Context(), name)
			if err != nil {
				clusterError(w, err)
				return
			}
			writeJSON(w, info)

		case "tracer":
			if r.Method != "GET" {
				jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			st, err := cl.GetTracerStatus(r.Context(), name)
			if err != nil {
				clusterError(w, err)
				return
			}
			writeJSON(w, st)

		case "tracer/backlog":
			if r.Method != "GET" {
				jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			events, err := cl.GetBacklog(r.Context(), name)
			if err != nil {
				clusterError(w, err)
				return
			}
			if node := r.URL.Query().Get("node"); node != "" {
				filtered := events[:0]
				for _, ev := range events {
					if ev.NodeID == node {
						filtered = append(filtered, ev)
					}
				}
				events = filtered
			}
			if events == nil {
				events = []tracer.Event{}
			}
			writeJSON(w, events)

		case "tracer/control":
			if r.Method != "POST" {
				jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			var ctl tracer.Control
			if err := json.NewDecoder(r.Body).Decode(&ctl); err != nil {
				jsonError(w, http.StatusBadRequest, "invalid control: "+err.Error())
				return
			}
			if err := cl.SetTracerControl(r.Context(), name, ctl); err != nil {
				clusterError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			jsonError(w, http.StatusNotFound, "not found: "+r.URL.Path)
		}
	})
}

func RegisterStatusHandler(mux *http.ServeMux, cl cluster.Cluster) {
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		status, err := cl.GetClusterStatus(r.Context())
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "unable to get status: "+err.Error())
			return
		}
		writeJSON(w, status)
	})
}

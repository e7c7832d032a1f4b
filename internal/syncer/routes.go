package syncer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
)

// RegisterRoutes mounts the sync API.
func RegisterRoutes(r chi.Router, orch *Orchestrator, records *Store, runs *RunStore, tracker *Tracker, connections *connection.Store, agentID string) {
	resolveConn := func(w http.ResponseWriter, r *http.Request) *connection.SiteConnection {
		conn, err := connections.GetByAgent(r.Context(), agentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return nil
		}
		if conn == nil {
			writeError(w, http.StatusNotFound, "no site connection configured")
			return nil
		}
		return conn
	}

	r.Post("/api/sync/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(w, r)
		if !ok {
			return
		}
		var body struct {
			UseAI bool `json:"use_ai"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		result, err := orch.Run(r.Context(), agentID, kind, Options{UseAI: body.UseAI})
		if err != nil {
			switch {
			case errors.Is(err, ErrSyncInProgress):
				writeError(w, http.StatusConflict, err.Error())
			case errors.Is(err, connection.ErrNotConnected):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				writeError(w, http.StatusBadGateway, err.Error())
			}
			return
		}
		writeJSON(w, result)
	})

	r.Get("/api/sync/{kind}/status", func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(w, r)
		if !ok {
			return
		}
		conn := resolveConn(w, r)
		if conn == nil {
			return
		}
		writeJSON(w, map[string]any{
			"state": tracker.State(conn.ID, kind),
		})
	})

	r.Get("/api/sync/{kind}/runs", func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(w, r)
		if !ok {
			return
		}
		conn := resolveConn(w, r)
		if conn == nil {
			return
		}
		list, err := runs.ListRecent(r.Context(), conn.ID, kind, 20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []Run{}
		}
		writeJSON(w, list)
	})

	r.Get("/api/sync/{kind}/records", func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(w, r)
		if !ok {
			return
		}
		conn := resolveConn(w, r)
		if conn == nil {
			return
		}
		list, err := records.List(r.Context(), conn.ID, kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []SyncRecord{}
		}
		writeJSON(w, list)
	})
}

func kindParam(w http.ResponseWriter, r *http.Request) (config.SyncKind, bool) {
	kind := config.SyncKind(chi.URLParam(r, "kind"))
	if kind != config.KindCommunity && kind != config.KindHome {
		writeError(w, http.StatusBadRequest, "unknown sync kind")
		return "", false
	}
	return kind, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

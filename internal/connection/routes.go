package connection

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the connection API routes for one agent.
func RegisterRoutes(r chi.Router, reg *Registry, agentID string) {
	r.Route("/api/connection", func(r chi.Router) {
		r.Get("/", handleGet(reg, agentID))
		r.Post("/", handleSave(reg, agentID))
		r.Post("/test", handleTest(reg, agentID))
		r.Delete("/", handleDisconnect(reg, agentID))
	})
}

func handleGet(reg *Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := reg.Get(r.Context(), agentID)
		if errors.Is(err, ErrNotConnected) {
			http.Error(w, `{"error":"not connected"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conn)
	}
}

func handleSave(reg *Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, `{"error":"url is required"}`, http.StatusBadRequest)
			return
		}

		conn, err := reg.SaveURL(r.Context(), agentID, req.URL)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conn)
	}
}

func handleTest(reg *Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		// Body is optional: without a URL the saved connection is tested.
		_ = json.NewDecoder(r.Body).Decode(&req)

		var result TestResult
		if req.URL != "" {
			result = reg.TestConnection(r.Context(), req.URL)
		} else {
			var err error
			result, err = reg.TestSaved(r.Context(), agentID)
			if errors.Is(err, ErrNotConnected) {
				http.Error(w, `{"error":"not connected"}`, http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleDisconnect(reg *Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The cascade flag must be stated explicitly in the body; it is
		// never inferred.
		var req struct {
			DeleteSyncedData bool `json:"delete_synced_data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		err := reg.Disconnect(r.Context(), agentID, req.DeleteSyncedData)
		if errors.Is(err, ErrNotConnected) {
			http.Error(w, `{"error":"not connected"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

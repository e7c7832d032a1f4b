package mapper

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/parksync/internal/connection"
)

// RegisterRoutes mounts the field mapping API routes for one agent.
func RegisterRoutes(r chi.Router, store *Store, reg *connection.Registry, agentID string) {
	r.Route("/api/mappings/{kind}", func(r chi.Router) {
		r.Get("/", handleGet(store, reg, agentID))
		r.Put("/", handleSave(store, reg, agentID))
		r.Get("/fields", handleFields())
		r.Post("/suggest", handleSuggest())
	})
}

func kindParam(r *http.Request) (string, bool) {
	kind := chi.URLParam(r, "kind")
	return kind, kind == "community" || kind == "home"
}

func handleGet(store *Store, reg *connection.Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, `{"error":"kind must be community or home"}`, http.StatusBadRequest)
			return
		}
		conn, err := reg.Get(r.Context(), agentID)
		if err != nil {
			http.Error(w, `{"error":"not connected"}`, http.StatusNotFound)
			return
		}
		m, err := store.Get(r.Context(), conn.ID, kind)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if m == nil {
			http.Error(w, `{"error":"no mapping configured"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)
	}
}

func handleSave(store *Store, reg *connection.Registry, agentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, `{"error":"kind must be community or home"}`, http.StatusBadRequest)
			return
		}
		conn, err := reg.Get(r.Context(), agentID)
		if err != nil {
			http.Error(w, `{"error":"not connected"}`, http.StatusNotFound)
			return
		}

		var req struct {
			Mapping   map[string]string `json:"mapping"`
			Confirmed bool              `json:"confirmed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		saved, err := store.Save(r.Context(), conn.ID, kind, req.Mapping, req.Confirmed)
		if err != nil {
			// Confirmation with unmapped required fields lands here.
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(saved)
	}
}

func handleFields() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, `{"error":"kind must be community or home"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(TargetFields(kind))
	}
}

// handleSuggest proposes a mapping from a sample remote record supplied
// by the caller.
func handleSuggest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, `{"error":"kind must be community or home"}`, http.StatusBadRequest)
			return
		}

		var req struct {
			Sample map[string]any `json:"sample"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Sample == nil {
			http.Error(w, `{"error":"sample record is required"}`, http.StatusBadRequest)
			return
		}

		targets := TargetFields(kind)
		available := FlattenPaths(req.Sample)
		suggestion := SuggestMapping(targets, available)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"mapping":          suggestion,
			"available_fields": available,
			"valid":            Validate(suggestion, targets),
		})
	}
}

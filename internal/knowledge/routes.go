package knowledge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// RegisterRoutes mounts the knowledge ledger API.
func RegisterRoutes(r chi.Router, ledger *Ledger) {
	r.Get("/api/knowledge", func(w http.ResponseWriter, r *http.Request) {
		roots, err := ledger.Store().ListRoots(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if roots == nil {
			roots = []Source{}
		}
		writeJSON(w, roots)
	})

	r.Post("/api/knowledge", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SourceType      SourceType `json:"source_type"`
			Name            string     `json:"name"`
			Location        string     `json:"location"`
			RefreshInterval string     `json:"refresh_interval"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		switch body.SourceType {
		case SourceDocument, SourceURL, SourceSynced:
		default:
			writeError(w, http.StatusBadRequest, "unknown source type")
			return
		}
		if body.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		src, err := ledger.Add(r.Context(), &Source{
			SourceType:      body.SourceType,
			Name:            body.Name,
			Location:        body.Location,
			RefreshInterval: body.RefreshInterval,
		})
		if err != nil {
			// Add surfaces a processing failure, but the source exists in
			// error state and is visible to the client either way.
			if src == nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, src)
	})

	r.Get("/api/knowledge/{id}", func(w http.ResponseWriter, r *http.Request) {
		src, err := ledger.Store().Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			statusForErr(w, err)
			return
		}
		children, err := ledger.Store().ListChildren(r.Context(), src.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if children == nil {
			children = []Source{}
		}
		writeJSON(w, map[string]any{"source": src, "children": children})
	})

	r.Post("/api/knowledge/{id}/reprocess", func(w http.ResponseWriter, r *http.Request) {
		if err := ledger.Reprocess(r.Context(), chi.URLParam(r, "id")); err != nil {
			statusForErr(w, err)
			return
		}
		src, err := ledger.Store().Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			statusForErr(w, err)
			return
		}
		writeJSON(w, src)
	})

	r.Post("/api/knowledge/{id}/children/{childID}/retry", func(w http.ResponseWriter, r *http.Request) {
		err := ledger.RetryChild(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "childID"))
		if err != nil {
			statusForErr(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Delete("/api/knowledge/{id}/children/{childID}", func(w http.ResponseWriter, r *http.Request) {
		err := ledger.DeleteChild(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "childID"))
		if err != nil {
			statusForErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/api/knowledge/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			statusForErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Retrain streams per-source progress over a websocket and closes
	// with the final counts.
	r.Get("/api/knowledge/retrain", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		result, err := ledger.Retrain(r.Context(), func(done, total int, src *Source, srcErr error) {
			msg := map[string]any{
				"type":  "progress",
				"done":  done,
				"total": total,
				"name":  src.Name,
			}
			if srcErr != nil {
				msg["error"] = srcErr.Error()
			}
			_ = conn.WriteJSON(msg)
		})
		final := map[string]any{"type": "done"}
		if err != nil {
			final["error"] = err.Error()
		} else {
			final["success"] = result.Success
			final["failed"] = result.Failed
		}
		_ = conn.WriteJSON(final)
	})
}

func statusForErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
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

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/timevault/timevault/internal/server/storage"
	"github.com/timevault/timevault/pkg/api"
)

// maxValueSize bounds an uploaded value. Entities are small JSON
// documents; anything near this limit signals a misbehaving client.
const maxValueSize = 1 << 20

// KVHandler serves the owner-scoped key-value API that backs the
// client's remote storage adapter.
type KVHandler struct {
	logger *slog.Logger
	store  storage.KVStore
}

// NewKVHandler creates the KV handler.
func NewKVHandler(logger *slog.Logger, store storage.KVStore) *KVHandler {
	return &KVHandler{logger: logger, store: store}
}

// Key handles GET/HEAD/PUT/DELETE /api/v1/kv/{key}.
func (h *KVHandler) Key(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	key := r.PathValue("key")

	if owner == "" || key == "" {
		writeError(w, http.StatusBadRequest, "missing owner or key")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, owner, key)
	case http.MethodHead:
		h.head(w, r, owner, key)
	case http.MethodPut:
		h.put(w, r, owner, key)
	case http.MethodDelete:
		h.delete(w, r, owner, key)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *KVHandler) get(w http.ResponseWriter, r *http.Request, owner, key string) {
	value, err := h.store.Get(r.Context(), owner, key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "key not found")
			return
		}
		h.logger.Error("failed to read key", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (h *KVHandler) head(w http.ResponseWriter, r *http.Request, owner, key string) {
	found, err := h.store.Exists(r.Context(), owner, key)
	if err != nil {
		h.logger.Error("failed to check key", "key", key, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *KVHandler) put(w http.ResponseWriter, r *http.Request, owner, key string) {
	value, err := io.ReadAll(io.LimitReader(r.Body, maxValueSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(value) > maxValueSize {
		writeError(w, http.StatusRequestEntityTooLarge, "value too large")
		return
	}

	if err := h.store.Set(r.Context(), owner, key, value); err != nil {
		h.logger.Error("failed to write key", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *KVHandler) delete(w http.ResponseWriter, r *http.Request, owner, key string) {
	if err := h.store.Delete(r.Context(), owner, key); err != nil {
		h.logger.Error("failed to delete key", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Keys handles GET /api/v1/kv?pattern=glob.
func (h *KVHandler) Keys(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing owner")
		return
	}

	pattern := r.URL.Query().Get("pattern")

	keys, err := h.store.Keys(r.Context(), owner, pattern)
	if err != nil {
		h.logger.Error("failed to list keys", "pattern", pattern, "error", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, api.KeysResponse{Keys: keys})
}

// Clear handles POST /api/v1/kv/clear.
func (h *KVHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing owner")
		return
	}

	if err := h.store.Clear(r.Context(), owner); err != nil {
		h.logger.Error("failed to clear keys", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	h.logger.Info("cleared all keys", "owner", owner)
	w.WriteHeader(http.StatusNoContent)
}

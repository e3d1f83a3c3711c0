// Package api provides the HTTP API handlers for the clearform service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/store"
)

// ConfigHandler handles HTTP requests for evaluation config resources.
type ConfigHandler struct {
	store *store.Store
}

// NewConfigHandler creates a new ConfigHandler with the given store.
func NewConfigHandler(s *store.Store) *ConfigHandler {
	return &ConfigHandler{store: s}
}

// ServeHTTP routes config collection and item requests.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/configs or /api/configs/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/configs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type configResponse struct {
	ID        string              `json:"id"`
	Config    *rules.ActionConfig `json:"config"`
	Warnings  []string            `json:"warnings,omitempty"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

type listConfigsResponse struct {
	Configs []configResponse `json:"configs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// toConfigResponse converts a stored config, attaching validator warnings so
// configuration authors always see invariant violations.
func toConfigResponse(c *store.StoredConfig) configResponse {
	return configResponse{
		ID:        c.ID,
		Config:    c.Config,
		Warnings:  rules.Validate(c.Config),
		CreatedAt: c.CreatedAt.Format(timeLayout),
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/configs.
func (h *ConfigHandler) list(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.Configs().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list configs")
		return
	}

	response := listConfigsResponse{
		Configs: make([]configResponse, 0, len(configs)),
	}
	for _, c := range configs {
		response.Configs = append(response.Configs, toConfigResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/configs/{id}.
func (h *ConfigHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Configs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get config")
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(c))
}

// create handles POST /api/configs. Validator warnings are returned with the
// created config, never used to reject it.
func (h *ConfigHandler) create(w http.ResponseWriter, r *http.Request) {
	cfg, err := rules.Load(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config JSON")
		return
	}

	stored := &store.StoredConfig{
		ID:     uuid.New().String(),
		Config: cfg,
	}
	if err := h.store.Configs().Create(stored); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create config")
		return
	}

	writeJSON(w, http.StatusCreated, toConfigResponse(stored))
}

// update handles PUT /api/configs/{id}.
func (h *ConfigHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := h.store.Configs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get config")
		return
	}

	cfg, err := rules.Load(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config JSON")
		return
	}

	existing.Config = cfg
	if err := h.store.Configs().Update(existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update config")
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(existing))
}

// delete handles DELETE /api/configs/{id}.
func (h *ConfigHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Configs().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete config")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Package httpapi exposes the marketplace core over HTTP. The transport is a
// thin shell: all invariants live in the services.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/collabsuite/marketplace_layer/internal/app"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/services/applications"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
)

// callerHeader carries the authenticated user id extracted by the fronting
// auth layer.
const callerHeader = "X-User-ID"

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/applications", h.applications)
	mux.HandleFunc("/applications/", h.applicationResources)
	mux.HandleFunc("/migrations/run", h.runMigration)
	return mux
}

func caller(r *http.Request) applications.Caller {
	return applications.Caller{UserID: strings.TrimSpace(r.Header.Get(callerHeader))}
}

func (h *handler) applications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft application.Application
		if err := decodeJSON(r.Body, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Applications.Create(r.Context(), draft, caller(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		page := storage.Page{Token: r.URL.Query().Get("page_token")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
				return
			}
			page.Limit = limit
		}
		records, next, err := h.app.Applications.List(r.Context(), page, r.URL.Query().Get("search"), caller(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"records":         records,
			"next_page_token": next,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) applicationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/applications"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	appID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			record, err := h.app.Applications.Get(r.Context(), appID, caller(r))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, record)

		case http.MethodPut:
			var draft application.Application
			if err := decodeJSON(r.Body, &draft); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			updated, err := h.app.Applications.Update(r.Context(), appID, draft, caller(r))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)

		case http.MethodDelete:
			if err := h.app.Applications.Delete(r.Context(), appID, caller(r)); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "events" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			CompanyID    string         `json:"company_id"`
			ConnectionID string         `json:"connection_id"`
			WorkspaceID  string         `json:"workspace_id"`
			Type         string         `json:"type"`
			Name         string         `json:"name"`
			Payload      map[string]any `json:"payload"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		err := h.app.Applications.DispatchEvent(r.Context(), payload.CompanyID, appID, applications.Event{
			ConnectionID: payload.ConnectionID,
			UserID:       caller(r).UserID,
			WorkspaceID:  payload.WorkspaceID,
			Type:         payload.Type,
			Name:         payload.Name,
			Payload:      payload.Payload,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "dispatched"})
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) runMigration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := h.app.Migration.MigrateAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"migrated": report.Migrated,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrVersionConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, applications.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case applications.IsValidation(err):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

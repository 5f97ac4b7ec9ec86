package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mock-bus-app/cascade"
	"mock-bus-app/i18n"
	"mock-bus-app/reconciler"
	"mock-bus-app/storage"
)

// Provisioner is the slice of the broker client the CRUD handlers use
// to co-locate resource creation with record creation.
type Provisioner interface {
	CreateQueue(ctx context.Context, name string) error
	CreateUser(ctx context.Context, username, password, role string) error
}

// Handler serves the JSON administration API under /admin.
type Handler struct {
	Store      *storage.Store
	Broker     Provisioner
	Deleter    *cascade.Deleter
	Guard      *cascade.Guard
	Reconciler *reconciler.Reconciler
	Logger     *slog.Logger
	I18n       *i18n.Service
	Version    string
}

func NewHandler(s *storage.Store, b Provisioner, d *cascade.Deleter, g *cascade.Guard, rec *reconciler.Reconciler, l *slog.Logger, i18nService *i18n.Service, version string) *Handler {
	return &Handler{
		Store:      s,
		Broker:     b,
		Deleter:    d,
		Guard:      g,
		Reconciler: rec,
		Logger:     l,
		I18n:       i18nService,
		Version:    version,
	}
}

// ServeHTTP handles all incoming HTTP requests for the /admin path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("admin handler invoked", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/admin")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	subPath := parts[1:]
	switch parts[0] {
	case "applications":
		ApplicationRoutes(h, w, r, subPath)
	case "processes":
		ProcessRoutes(h, w, r, subPath)
	case "channels":
		ChannelRoutes(h, w, r, subPath)
	case "maintenance":
		MaintenanceRoutes(h, w, r, subPath)
	default:
		http.NotFound(w, r)
	}
}

// envelope is the standard response shape of the admin API.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeError localizes the message by the request's Accept-Language
// header before sending it.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string, args ...interface{}) {
	h.writeJSON(w, status, envelope{Success: false, Message: h.I18n.Sprintf(r.Header.Get("Accept-Language"), message, args...)})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("admin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Warn("failed to decode request body", "path", r.URL.Path, "error", err)
		h.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

package admin

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mock-bus-app/storage"
)

// ApplicationRoutes handles routing for /admin/applications/* paths.
func ApplicationRoutes(h *Handler, w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 || parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleListApplications(w, r)
		case http.MethodPost:
			h.handleCreateApplication(w, r)
		default:
			http.NotFound(w, r)
		}
		return
	}

	appID := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGetApplication(w, r, appID)
		case http.MethodPut:
			h.handleUpdateApplication(w, r, appID)
		case http.MethodDelete:
			h.handleDeleteApplication(w, r, appID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	// GET /admin/applications/{id}/processes
	if r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "processes" {
		h.handleListAppProcesses(w, r, appID)
		return
	}

	http.NotFound(w, r)
}

type applicationView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ClientSecret string    `json:"clientSecret"`
	IDToken      string    `json:"id_token"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toApplicationView(app *storage.Application) applicationView {
	return applicationView{
		ID:           app.ID,
		Name:         app.Name,
		Description:  app.Description,
		ClientSecret: app.ClientSecret,
		IDToken:      app.IDToken,
		CreatedAt:    app.CreatedAt,
		UpdatedAt:    app.UpdatedAt,
	}
}

// newIDToken generates the broker credential token: random bytes in a
// charset Artemis accepts in usernames (base64 specials mapped away).
func newIDToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.StdEncoding.EncodeToString(buf)
	token = strings.ReplaceAll(token, "+", "x")
	token = strings.ReplaceAll(token, "/", "y")
	token = strings.ReplaceAll(token, "=", "z")
	return token, nil
}

func newClientSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.GetAllApplications()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	views := make([]applicationView, 0, len(apps))
	for i := range apps {
		views = append(views, toApplicationView(&apps[i]))
	}
	h.writeData(w, http.StatusOK, views)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request, appID string) {
	app, err := h.Store.GetApplicationByID(appID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if app == nil {
		h.writeError(w, r, http.StatusNotFound, "application not found")
		return
	}
	h.writeData(w, http.StatusOK, toApplicationView(app))
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, "application name cannot be empty")
		return
	}

	idToken, err := newIDToken()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	clientSecret, err := newClientSecret()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	// The broker user is provisioned alongside the record, not
	// atomically with it; a failure here is repaired by the next
	// reconciliation pass.
	h.Logger.Info("creating broker user for application", "app_name", req.Name)
	if err := h.Broker.CreateUser(r.Context(), idToken, idToken, ""); err != nil {
		h.Logger.Error("failed to create broker user for application", "app_name", req.Name, "error", err)
	}

	app := &storage.Application{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		ClientSecret: clientSecret,
		IDToken:      idToken,
	}
	if err := h.Store.CreateApplication(app); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.Logger.Info("application created successfully", "app_name", app.Name, "app_id", app.ID)
	h.writeData(w, http.StatusCreated, toApplicationView(app))
}

func (h *Handler) handleUpdateApplication(w http.ResponseWriter, r *http.Request, appID string) {
	app, err := h.Store.GetApplicationByID(appID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if app == nil {
		h.writeError(w, r, http.StatusNotFound, "application not found")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, "application name cannot be empty")
		return
	}

	// id_token and clientSecret are immutable for the application's
	// lifetime; only name and description change.
	app.Name = req.Name
	app.Description = req.Description
	if err := h.Store.UpdateApplication(app); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.Logger.Info("application updated successfully", "app_id", appID)
	h.writeData(w, http.StatusOK, toApplicationView(app))
}

func (h *Handler) handleDeleteApplication(w http.ResponseWriter, r *http.Request, appID string) {
	report, err := h.Deleter.DeleteApplication(r.Context(), appID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	status := http.StatusOK
	switch {
	case report.NotFound:
		status = http.StatusNotFound
	case !report.Success:
		status = http.StatusConflict
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleListAppProcesses(w http.ResponseWriter, r *http.Request, appID string) {
	app, err := h.Store.GetApplicationByID(appID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if app == nil {
		h.writeError(w, r, http.StatusNotFound, "application not found")
		return
	}

	processes, err := h.Store.GetProcessesByApplicationID(appID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	views := make([]processView, 0, len(processes))
	for i := range processes {
		views = append(views, toProcessView(&processes[i]))
	}
	h.writeData(w, http.StatusOK, views)
}

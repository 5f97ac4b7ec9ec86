package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mock-bus-app/storage"
)

// ProcessRoutes handles routing for /admin/processes/* paths.
func ProcessRoutes(h *Handler, w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 || parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleListProcesses(w, r)
		case http.MethodPost:
			h.handleCreateProcess(w, r)
		default:
			http.NotFound(w, r)
		}
		return
	}

	processID := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGetProcess(w, r, processID)
		case http.MethodPut:
			h.handleUpdateProcess(w, r, processID)
		case http.MethodDelete:
			h.handleDeleteProcess(w, r, processID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	// GET /admin/processes/{id}/channels
	if r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "channels" {
		h.handleListProcessChannels(w, r, processID)
		return
	}

	http.NotFound(w, r)
}

type processView struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toProcessView(p *storage.Process) processView {
	return processView{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		Name:          p.Name,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	}
}

func (h *Handler) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := h.Store.GetAllProcesses()
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

func (h *Handler) handleGetProcess(w http.ResponseWriter, r *http.Request, processID string) {
	proc, err := h.Store.GetProcessByID(processID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if proc == nil {
		h.writeError(w, r, http.StatusNotFound, "process not found")
		return
	}
	h.writeData(w, http.StatusOK, toProcessView(proc))
}

func (h *Handler) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicationID string `json:"applicationId"`
		Name          string `json:"name"`
		Description   string `json:"description"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, "process name cannot be empty")
		return
	}

	app, err := h.Store.GetApplicationByID(req.ApplicationID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if app == nil {
		h.writeError(w, r, http.StatusNotFound, "application not found")
		return
	}

	proc := &storage.Process{
		ID:            uuid.New().String(),
		ApplicationID: req.ApplicationID,
		Name:          req.Name,
		Description:   req.Description,
	}
	if err := h.Store.CreateProcess(proc); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.Logger.Info("process created successfully", "process_name", proc.Name, "app_id", proc.ApplicationID)
	h.writeData(w, http.StatusCreated, toProcessView(proc))
}

func (h *Handler) handleUpdateProcess(w http.ResponseWriter, r *http.Request, processID string) {
	proc, err := h.Store.GetProcessByID(processID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if proc == nil {
		h.writeError(w, r, http.StatusNotFound, "process not found")
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
		h.writeError(w, r, http.StatusBadRequest, "process name cannot be empty")
		return
	}

	proc.Name = req.Name
	proc.Description = req.Description
	if err := h.Store.UpdateProcess(proc); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.Logger.Info("process updated successfully", "process_id", processID)
	h.writeData(w, http.StatusOK, toProcessView(proc))
}

func (h *Handler) handleDeleteProcess(w http.ResponseWriter, r *http.Request, processID string) {
	report, err := h.Deleter.DeleteProcess(r.Context(), processID)
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

func (h *Handler) handleListProcessChannels(w http.ResponseWriter, r *http.Request, processID string) {
	proc, err := h.Store.GetProcessByID(processID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if proc == nil {
		h.writeError(w, r, http.StatusNotFound, "process not found")
		return
	}

	channels, err := h.Store.GetChannelsByProcessID(processID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	views := make([]channelView, 0, len(channels))
	for i := range channels {
		views = append(views, toChannelView(&channels[i]))
	}
	h.writeData(w, http.StatusOK, views)
}

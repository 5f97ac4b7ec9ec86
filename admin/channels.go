package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mock-bus-app/cascade"
	"mock-bus-app/storage"
)

// ChannelRoutes handles routing for /admin/channels/* paths.
func ChannelRoutes(h *Handler, w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 || parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleListChannels(w, r)
		case http.MethodPost:
			h.handleCreateChannel(w, r)
		default:
			http.NotFound(w, r)
		}
		return
	}

	channelID := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGetChannel(w, r, channelID)
		case http.MethodPut:
			h.handleUpdateChannel(w, r, channelID)
		case http.MethodDelete:
			h.handleDeleteChannel(w, r, channelID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	// DELETE /admin/channels/{id}/force
	if r.Method == http.MethodDelete && len(parts) == 2 && parts[1] == "force" {
		h.handleForceDeleteChannel(w, r, channelID)
		return
	}

	http.NotFound(w, r)
}

type channelView struct {
	ID          string    `json:"id"`
	ProcessID   string    `json:"processId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Direction   string    `json:"direction"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toChannelView(ch *storage.Channel) channelView {
	return channelView{
		ID:          ch.ID,
		ProcessID:   ch.ProcessID,
		Name:        ch.Name,
		Description: ch.Description,
		Direction:   ch.Direction,
		Destination: ch.Destination,
		CreatedAt:   ch.CreatedAt,
	}
}

// channelResponse extends the standard envelope with the soft failures
// of best-effort queue operations.
type channelResponse struct {
	Success  bool        `json:"success"`
	Data     channelView `json:"data"`
	Warnings []string    `json:"warnings,omitempty"`
}

type deleteResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

func validDirection(direction string) bool {
	switch direction {
	case storage.DirectionInbound, storage.DirectionOutbound, storage.DirectionBidirectional:
		return true
	}
	return false
}

// writeGuardError maps guard failures onto HTTP statuses: absent
// channel to 404, blocked mutation to 409, anything else to 500.
func (h *Handler) writeGuardError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, cascade.ErrNotFound) {
		h.writeError(w, r, http.StatusNotFound, "channel not found")
		return
	}
	var conflict *cascade.ConflictError
	if errors.As(err, &conflict) {
		h.writeJSON(w, http.StatusConflict, envelope{Success: false, Message: conflict.Error()})
		return
	}
	h.writeInternalError(w, r, err)
}

func (h *Handler) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.Store.GetAllChannels()
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

func (h *Handler) handleGetChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	ch, err := h.Store.GetChannelByID(channelID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if ch == nil {
		h.writeError(w, r, http.StatusNotFound, "channel not found")
		return
	}
	h.writeData(w, http.StatusOK, toChannelView(ch))
}

func (h *Handler) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProcessID   string `json:"processId"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Direction   string `json:"direction"`
		Destination string `json:"destination"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Name == "" || !validDirection(req.Direction) {
		h.writeError(w, r, http.StatusBadRequest, "channel name and direction are required")
		return
	}
	if req.Destination == "" {
		req.Destination = storage.DefaultDestination
	}

	proc, err := h.Store.GetProcessByID(req.ProcessID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if proc == nil {
		h.writeError(w, r, http.StatusNotFound, "process not found")
		return
	}

	// Queue provisioning is co-located with the record insert, not
	// atomic with it; the reconciler repairs a failed create later.
	var warnings []string
	h.Logger.Info("creating queue for channel", "channel_name", req.Name, "destination", req.Destination)
	if err := h.Broker.CreateQueue(r.Context(), req.Destination); err != nil {
		h.Logger.Error("failed to create queue for channel", "destination", req.Destination, "error", err)
		warnings = append(warnings, err.Error())
	}

	ch := &storage.Channel{
		ID:          uuid.New().String(),
		ProcessID:   req.ProcessID,
		Name:        req.Name,
		Description: req.Description,
		Direction:   req.Direction,
		Destination: req.Destination,
	}
	if err := h.Store.CreateChannel(ch); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.Logger.Info("channel created successfully", "channel_name", ch.Name, "channel_id", ch.ID)
	h.writeJSON(w, http.StatusCreated, channelResponse{Success: true, Data: toChannelView(ch), Warnings: warnings})
}

func (h *Handler) handleUpdateChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	ch, err := h.Store.GetChannelByID(channelID)
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	if ch == nil {
		h.writeError(w, r, http.StatusNotFound, "channel not found")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Direction   string `json:"direction"`
		Destination string `json:"destination"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Name == "" || !validDirection(req.Direction) {
		h.writeError(w, r, http.StatusBadRequest, "channel name and direction are required")
		return
	}
	if req.Destination == "" {
		req.Destination = storage.DefaultDestination
	}

	updated := *ch
	updated.Name = req.Name
	updated.Description = req.Description
	updated.Direction = req.Direction
	updated.Destination = req.Destination

	warnings, err := h.Guard.UpdateChannel(r.Context(), &updated)
	if err != nil {
		h.writeGuardError(w, r, err)
		return
	}

	h.Logger.Info("channel updated successfully", "channel_id", channelID)
	h.writeJSON(w, http.StatusOK, channelResponse{Success: true, Data: toChannelView(&updated), Warnings: warnings})
}

func (h *Handler) handleDeleteChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	warnings, err := h.Guard.DeleteChannel(r.Context(), channelID)
	if err != nil {
		h.writeGuardError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "channel deleted", Warnings: warnings})
}

func (h *Handler) handleForceDeleteChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	warnings, err := h.Guard.ForceDeleteChannel(r.Context(), channelID)
	if err != nil {
		h.writeGuardError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "channel force-deleted", Warnings: warnings})
}

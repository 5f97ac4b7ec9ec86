package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mock-bus-app/storage"
)

// Handler serves the application-facing endpoints: token issuance and
// the ESB channel views consumed by connecting clients.
type Handler struct {
	Store    *storage.Store
	Logger   *slog.Logger
	AMQPPort int
}

func NewHandler(s *storage.Store, l *slog.Logger, amqpPort int) *Handler {
	return &Handler{
		Store:    s,
		Logger:   l,
		AMQPPort: amqpPort,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("api handler invoked", "method", r.Method, "path", r.URL.Path)

	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/oidc/token"):
		h.handleGetToken(w, r)
	case strings.HasSuffix(r.URL.Path, "/sys/esb/metadata/channels"):
		h.handleGetMetadataChannels(w, r)
	case strings.HasSuffix(r.URL.Path, "/sys/esb/runtime/channels"):
		h.handleGetRuntimeChannels(w, r)
	default:
		h.Logger.Warn("api path not found", "path", r.URL.Path)
		http.NotFound(w, r)
	}
}

// handleGetToken exchanges the application's client credentials for its
// broker token.
func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.Logger.Warn("invalid method for get token", "method", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqClientID, reqClientSecret, ok := r.BasicAuth()
	if !ok {
		h.Logger.Warn("basic auth header missing or invalid")
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	app, err := h.Store.GetApplicationByID(reqClientID)
	if err != nil {
		h.Logger.Error("failed to get application by id", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if app == nil || app.ClientSecret != reqClientSecret {
		h.Logger.Warn("invalid client credentials", "client_id", reqClientID)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	resp := map[string]string{
		"id_token":     app.IDToken,
		"token_type":   "Bearer",
		"access_token": "Not implemented",
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(resp)
	h.Logger.Info("token issued successfully", "client_id", reqClientID)
}

// appFromBearer resolves the application whose id_token matches the
// bearer credential of the request.
func (h *Handler) appFromBearer(r *http.Request) (*storage.Application, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		h.Logger.Warn("missing or invalid authorization header")
		return nil, nil
	}

	app, err := h.Store.GetApplicationByIDToken(parts[1])
	if err != nil {
		h.Logger.Error("failed to get application by token", "error", err)
		return nil, err
	}
	if app == nil {
		h.Logger.Warn("application not found for bearer token")
	}
	return app, nil
}

// channelListing loads the processes and channels of the application
// and pairs each channel with its process.
func (h *Handler) channelListing(app *storage.Application) ([]storage.Process, []storage.Channel, error) {
	processes, err := h.Store.GetProcessesByApplicationID(app.ID)
	if err != nil {
		return nil, nil, err
	}
	channels, err := h.Store.GetChannelsByApplicationID(app.ID)
	if err != nil {
		return nil, nil, err
	}
	return processes, channels, nil
}

func processByID(processes []storage.Process, id string) *storage.Process {
	for i := range processes {
		if processes[i].ID == id {
			return &processes[i]
		}
	}
	return nil
}

// handleGetMetadataChannels serves the metadata listing of the
// application's channels.
func (h *Handler) handleGetMetadataChannels(w http.ResponseWriter, r *http.Request) {
	app, err := h.appFromBearer(r)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if app == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	processes, channels, err := h.channelListing(app)
	if err != nil {
		h.Logger.Error("failed to get metadata channels", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type metadataChannel struct {
		Process            string `json:"process"`
		ProcessDescription string `json:"processDescription"`
		Channel            string `json:"channel"`
		ChannelDescription string `json:"channelDescription"`
		Access             string `json:"access"`
	}

	result := make([]metadataChannel, 0, len(channels))
	for _, ch := range channels {
		access := "WRITE_ONLY"
		if ch.Direction == storage.DirectionInbound {
			access = "READ_ONLY"
		}

		var procName, procDescription string
		if proc := processByID(processes, ch.ProcessID); proc != nil {
			procName = proc.Name
			procDescription = proc.Description
		}

		result = append(result, metadataChannel{
			Process:            procName,
			ProcessDescription: procDescription,
			Channel:            ch.Name,
			ChannelDescription: ch.Description,
			Access:             access,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(result)
	h.Logger.Info("metadata channels served", "app_id", app.ID, "count", len(result))
}

// handleGetRuntimeChannels serves the runtime listing: channel to
// destination bindings plus the broker's client port.
func (h *Handler) handleGetRuntimeChannels(w http.ResponseWriter, r *http.Request) {
	app, err := h.appFromBearer(r)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if app == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	processes, channels, err := h.channelListing(app)
	if err != nil {
		h.Logger.Error("failed to get runtime channels", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type runtimeChannel struct {
		Process     string `json:"process"`
		Channel     string `json:"channel"`
		Destination string `json:"destination"`
	}

	items := make([]runtimeChannel, 0, len(channels))
	for _, ch := range channels {
		var procName string
		if proc := processByID(processes, ch.ProcessID); proc != nil {
			procName = proc.Name
		}
		items = append(items, runtimeChannel{
			Process:     procName,
			Channel:     ch.Name,
			Destination: ch.QueueName(),
		})
	}

	resp := struct {
		Items []runtimeChannel `json:"items"`
		Port  int              `json:"port"`
	}{
		Items: items,
		Port:  h.AMQPPort,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(resp)
	h.Logger.Info("runtime channels served", "app_id", app.ID, "count", len(items))
}

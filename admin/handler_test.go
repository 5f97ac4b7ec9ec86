package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-bus-app/artemis"
	"mock-bus-app/cascade"
	"mock-bus-app/i18n"
	"mock-bus-app/reconciler"
	"mock-bus-app/storage"
)

// stubBroker satisfies every broker-facing interface of the admin
// layer: provisioning, cascade and reconciliation.
type stubBroker struct {
	users  map[string]string
	queues map[string]int64

	createQueueErr bool
	createUserErr  bool
}

func newStubBroker() *stubBroker {
	return &stubBroker{users: make(map[string]string), queues: make(map[string]int64)}
}

func (b *stubBroker) CreateQueue(_ context.Context, name string) error {
	if b.createQueueErr {
		return errors.New("broker unavailable")
	}
	if _, ok := b.queues[name]; !ok {
		b.queues[name] = 0
	}
	return nil
}

func (b *stubBroker) CreateUser(_ context.Context, username, _, role string) error {
	if b.createUserErr {
		return errors.New("broker unavailable")
	}
	if role == "" {
		role = artemis.DefaultUserRole
	}
	b.users[username] = role
	return nil
}

func (b *stubBroker) FindUser(_ context.Context, username string) (*artemis.User, error) {
	role, ok := b.users[username]
	if !ok {
		return nil, nil
	}
	return &artemis.User{Username: username, Roles: []string{role}}, nil
}

func (b *stubBroker) DeleteUser(_ context.Context, username string) error {
	delete(b.users, username)
	return nil
}

func (b *stubBroker) QueueExists(_ context.Context, name string) (bool, error) {
	_, ok := b.queues[name]
	return ok, nil
}

func (b *stubBroker) MessageCount(_ context.Context, name string) (int64, error) {
	count, ok := b.queues[name]
	if !ok {
		return 0, errors.New("queue does not exist")
	}
	return count, nil
}

func (b *stubBroker) DeleteQueue(_ context.Context, name string) error {
	delete(b.queues, name)
	return nil
}

type adminFixture struct {
	handler *Handler
	store   *storage.Store
	broker  *stubBroker
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	i18nService, err := i18n.NewService(filepath.Join(t.TempDir(), "locales"), log)
	require.NoError(t, err)

	broker := newStubBroker()
	handler := NewHandler(
		store,
		broker,
		cascade.NewDeleter(store, broker, log),
		cascade.NewGuard(store, broker, log),
		reconciler.New(store, broker, log),
		log,
		i18nService,
		"test",
	)
	return &adminFixture{handler: handler, store: store, broker: broker}
}

func (f *adminFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *adminFixture) seedTree(t *testing.T) (*storage.Application, *storage.Process, *storage.Channel) {
	t.Helper()
	app := &storage.Application{ID: "app-1", Name: "erp", ClientSecret: "sec", IDToken: "tok"}
	require.NoError(t, f.store.CreateApplication(app))
	proc := &storage.Process{ID: "proc-1", ApplicationID: app.ID, Name: "orders"}
	require.NoError(t, f.store.CreateProcess(proc))
	ch := &storage.Channel{
		ID:          "ch-1",
		ProcessID:   proc.ID,
		Name:        "incoming",
		Direction:   storage.DirectionInbound,
		Destination: "QOrders",
	}
	require.NoError(t, f.store.CreateChannel(ch))
	f.broker.queues["QOrders"] = 0
	f.broker.users["tok"] = artemis.DefaultUserRole
	return app, proc, ch
}

func TestCreateApplication(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/applications", map[string]string{
		"name":        "erp",
		"description": "main system",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			ClientSecret string `json:"clientSecret"`
			IDToken      string `json:"id_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "erp", resp.Data.Name)
	assert.Len(t, resp.Data.ClientSecret, 32) // 16 random bytes, hex
	assert.Len(t, resp.Data.IDToken, 44)      // 32 random bytes, base64
	assert.NotContains(t, resp.Data.IDToken, "+")
	assert.NotContains(t, resp.Data.IDToken, "/")
	assert.NotContains(t, resp.Data.IDToken, "=")

	// the broker user carries the token as its name
	assert.Contains(t, f.broker.users, resp.Data.IDToken)
}

func TestCreateApplicationBrokerDownStillCreatesRecord(t *testing.T) {
	f := newAdminFixture(t)
	f.broker.createUserErr = true

	rec := f.do(t, http.MethodPost, "/admin/applications", map[string]string{"name": "erp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	apps, err := f.store.GetAllApplications()
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestCreateApplicationValidation(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/applications", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateApplicationKeepsCredentials(t *testing.T) {
	f := newAdminFixture(t)
	app, _, _ := f.seedTree(t)

	rec := f.do(t, http.MethodPut, "/admin/applications/"+app.ID, map[string]string{
		"name": "erp-renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.store.GetApplicationByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, "erp-renamed", stored.Name)
	assert.Equal(t, app.IDToken, stored.IDToken)
	assert.Equal(t, app.ClientSecret, stored.ClientSecret)
}

func TestDeleteApplicationStatusMapping(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newAdminFixture(t)
		rec := f.do(t, http.MethodDelete, "/admin/applications/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("blocked", func(t *testing.T) {
		f := newAdminFixture(t)
		app, _, _ := f.seedTree(t)
		f.broker.queues["QOrders"] = 5

		rec := f.do(t, http.MethodDelete, "/admin/applications/"+app.ID, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		var report cascade.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.False(t, report.Success)
		require.Len(t, report.UndeletedChannels, 1)
		assert.Contains(t, report.UndeletedChannels[0].Reason, "5")
	})

	t.Run("deleted", func(t *testing.T) {
		f := newAdminFixture(t)
		app, _, _ := f.seedTree(t)

		rec := f.do(t, http.MethodDelete, "/admin/applications/"+app.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var report cascade.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.Success)
	})
}

func TestDeleteProcessStatusMapping(t *testing.T) {
	f := newAdminFixture(t)
	_, proc, _ := f.seedTree(t)
	f.broker.queues["QOrders"] = 2

	rec := f.do(t, http.MethodDelete, "/admin/processes/"+proc.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.broker.queues["QOrders"] = 0
	rec = f.do(t, http.MethodDelete, "/admin/processes/"+proc.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/admin/processes/"+proc.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateChannelDefaultDestination(t *testing.T) {
	f := newAdminFixture(t)
	_, proc, _ := f.seedTree(t)

	rec := f.do(t, http.MethodPost, "/admin/channels", map[string]string{
		"processId": proc.ID,
		"name":      "plain",
		"direction": storage.DirectionOutbound,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp channelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, storage.DefaultDestination, resp.Data.Destination)
	assert.Empty(t, resp.Warnings)

	_, ok := f.broker.queues[storage.DefaultDestination]
	assert.True(t, ok)
}

func TestCreateChannelBrokerDownSurfacesWarning(t *testing.T) {
	f := newAdminFixture(t)
	_, proc, _ := f.seedTree(t)
	f.broker.createQueueErr = true

	rec := f.do(t, http.MethodPost, "/admin/channels", map[string]string{
		"processId":   proc.ID,
		"name":        "plain",
		"direction":   storage.DirectionInbound,
		"destination": "QNew",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp channelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Warnings)
}

func TestCreateChannelValidation(t *testing.T) {
	f := newAdminFixture(t)
	_, proc, _ := f.seedTree(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"missing name", map[string]string{"processId": proc.ID, "direction": storage.DirectionInbound}, http.StatusBadRequest},
		{"bad direction", map[string]string{"processId": proc.ID, "name": "x", "direction": "sideways"}, http.StatusBadRequest},
		{"unknown process", map[string]string{"processId": "ghost", "name": "x", "direction": storage.DirectionInbound}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/admin/channels", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDeleteChannelConflict(t *testing.T) {
	f := newAdminFixture(t)
	_, _, ch := f.seedTree(t)
	f.broker.queues["QOrders"] = 3

	rec := f.do(t, http.MethodDelete, "/admin/channels/"+ch.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "3")
}

func TestForceDeleteChannelBypassesConflict(t *testing.T) {
	f := newAdminFixture(t)
	_, _, ch := f.seedTree(t)
	f.broker.queues["QOrders"] = 3

	rec := f.do(t, http.MethodDelete, "/admin/channels/"+ch.ID+"/force", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	gone, err := f.store.GetChannelByID(ch.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateChannelRenameConflict(t *testing.T) {
	f := newAdminFixture(t)
	_, _, ch := f.seedTree(t)
	f.broker.queues["QOrders"] = 3

	rec := f.do(t, http.MethodPut, "/admin/channels/"+ch.ID, map[string]string{
		"name":        ch.Name,
		"direction":   ch.Direction,
		"destination": "QMoved",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := f.store.GetChannelByID(ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "QOrders", stored.Destination)
}

func TestUpdateChannelRename(t *testing.T) {
	f := newAdminFixture(t)
	_, _, ch := f.seedTree(t)

	rec := f.do(t, http.MethodPut, "/admin/channels/"+ch.ID, map[string]string{
		"name":        ch.Name,
		"direction":   ch.Direction,
		"destination": "QMoved",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, oldKept := f.broker.queues["QOrders"]
	assert.False(t, oldKept)
	_, newMade := f.broker.queues["QMoved"]
	assert.True(t, newMade)
}

func TestMaintenanceReconcile(t *testing.T) {
	f := newAdminFixture(t)
	f.seedTree(t)
	delete(f.broker.queues, "QOrders")
	delete(f.broker.users, "tok")

	rec := f.do(t, http.MethodPost, "/admin/maintenance/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool               `json:"success"`
		Summary reconciler.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Summary.UsersCreated)
	assert.Equal(t, 1, resp.Summary.QueuesCreated)

	_, ok := f.broker.queues["QOrders"]
	assert.True(t, ok)
	assert.Contains(t, f.broker.users, "tok")
}

func TestAdminUnknownPath(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/widgets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package artemis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-bus-app/config"
)

// fakeBroker emulates the management surface of an Artemis instance:
// the Jolokia endpoint and the user REST API.
type fakeBroker struct {
	addresses map[string]bool
	queues    map[string]int64 // queue name -> message count
	users     map[string]string

	searchCalls int
	execCalls   int
	noInstances bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		addresses: make(map[string]bool),
		queues:    make(map[string]int64),
		users:     make(map[string]string),
	}
}

func (f *fakeBroker) jolokiaHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/search/") {
		f.searchCalls++
		value := []string{`org.apache.activemq.artemis:broker="test-broker"`}
		if f.noInstances {
			value = nil
		}
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "value": value})
		return
	}

	var req jolokiaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	write := func(status int, value any, errMsg string) {
		json.NewEncoder(w).Encode(map[string]any{"status": status, "value": value, "error": errMsg})
	}

	switch req.Type {
	case "read":
		switch req.Attribute {
		case "QueueNames":
			names := make([]string, 0, len(f.queues))
			for n := range f.queues {
				names = append(names, n)
			}
			write(200, names, "")
		case "AddressNames":
			names := make([]string, 0, len(f.addresses))
			for n := range f.addresses {
				names = append(names, n)
			}
			write(200, names, "")
		case "MessageCount":
			for name, count := range f.queues {
				if strings.Contains(req.MBean, fmt.Sprintf("queue=%q", name)) {
					write(200, count, "")
					return
				}
			}
			write(404, nil, "queue mbean not found")
		default:
			write(400, nil, "unknown attribute")
		}
	case "exec":
		f.execCalls++
		switch {
		case strings.HasPrefix(req.Operation, "createAddress"):
			f.addresses[req.Arguments[0].(string)] = true
			write(200, nil, "")
		case strings.HasPrefix(req.Operation, "createQueue"):
			f.queues[req.Arguments[1].(string)] = 0
			write(200, nil, "")
		case strings.HasPrefix(req.Operation, "destroyQueue"):
			name := req.Arguments[0].(string)
			if _, ok := f.queues[name]; !ok {
				write(500, nil, "AMQ229017: Queue "+name+" does not exist")
				return
			}
			delete(f.queues, name)
			write(200, nil, "")
		default:
			write(400, nil, "unknown operation")
		}
	default:
		write(400, nil, "unknown request type")
	}
}

func (f *fakeBroker) userHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Artemis-Admin-User") != "admin" || r.Header.Get("X-Artemis-Admin-Pass") != "admin" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/users":
		type userEntry struct {
			Username string   `json:"username"`
			Roles    []string `json:"roles"`
		}
		users := make([]userEntry, 0, len(f.users))
		for name, role := range f.users {
			users = append(users, userEntry{Username: name, Roles: []string{role}})
		}
		json.NewEncoder(w).Encode(map[string]any{"users": users})
	case r.Method == http.MethodPost && r.URL.Path == "/users":
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.users[req.Username] = req.Role
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/users/"):
		name := strings.TrimPrefix(r.URL.Path, "/users/")
		if _, ok := f.users[name]; !ok {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		delete(f.users, name)
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeBroker) {
	t.Helper()
	fake := newFakeBroker()

	jolokia := httptest.NewServer(http.HandlerFunc(fake.jolokiaHandler))
	t.Cleanup(jolokia.Close)
	userAPI := httptest.NewServer(http.HandlerFunc(fake.userHandler))
	t.Cleanup(userAPI.Close)

	cfg := &config.ArtemisConfig{
		JolokiaURL: jolokia.URL,
		UserAPIURL: userAPI.URL,
		AdminUser:  "admin",
		AdminPass:  "admin",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, log), fake
}

func TestBrokerNameMemoized(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	name, err := client.BrokerName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-broker", name)

	_, err = client.BrokerName(ctx)
	require.NoError(t, err)
	_, err = client.QueueExists(ctx, "whatever")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.searchCalls)
}

func TestBrokerNameNoInstance(t *testing.T) {
	client, fake := newTestClient(t)
	fake.noInstances = true

	_, err := client.BrokerName(context.Background())
	require.ErrorIs(t, err, ErrNoBroker)
}

func TestCreateQueueIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.CreateQueue(ctx, "Office"))
	assert.True(t, fake.addresses["Office"])
	_, ok := fake.queues["Office"]
	assert.True(t, ok)

	execCalls := fake.execCalls
	require.NoError(t, client.CreateQueue(ctx, "Office"))
	assert.Equal(t, execCalls, fake.execCalls, "second create should issue no exec operations")
}

func TestQueueExists(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	exists, err := client.QueueExists(ctx, "Office")
	require.NoError(t, err)
	assert.False(t, exists)

	fake.queues["Office"] = 0
	exists, err = client.QueueExists(ctx, "Office")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestQueueExistsBrokerUnavailable(t *testing.T) {
	fake := newFakeBroker()
	jolokia := httptest.NewServer(http.HandlerFunc(fake.jolokiaHandler))
	cfg := &config.ArtemisConfig{JolokiaURL: jolokia.URL, AdminUser: "admin", AdminPass: "admin"}
	client := NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// discover first so the failure hits the existence read itself
	_, err := client.BrokerName(context.Background())
	require.NoError(t, err)

	jolokia.Close()
	_, err = client.QueueExists(context.Background(), "Office")
	assert.Error(t, err, "transport failure must not read as absence")
}

func TestMessageCount(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	fake.queues["Office"] = 5
	count, err := client.MessageCount(ctx, "Office")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	// a queue the broker does not know yields an unknown count
	_, err = client.MessageCount(ctx, "Missing")
	assert.Error(t, err)
}

func TestDeleteQueue(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	fake.queues["Office"] = 0
	require.NoError(t, client.DeleteQueue(ctx, "Office"))
	_, ok := fake.queues["Office"]
	assert.False(t, ok)

	// destroying an absent queue surfaces the broker error; callers
	// decide whether to ignore it
	err := client.DeleteQueue(ctx, "Office")
	assert.Error(t, err)
}

func TestUserLifecycle(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	user, err := client.FindUser(ctx, "tok123")
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, client.CreateUser(ctx, "tok123", "tok123", ""))
	assert.Equal(t, DefaultUserRole, fake.users["tok123"])

	user, err = client.FindUser(ctx, "tok123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "tok123", user.Username)
	assert.Equal(t, []string{DefaultUserRole}, user.Roles)

	require.NoError(t, client.DeleteUser(ctx, "tok123"))
	_, ok := fake.users["tok123"]
	assert.False(t, ok)

	// deleting again fails on the broker side; cascade treats it as
	// non-fatal
	err = client.DeleteUser(ctx, "tok123")
	assert.Error(t, err)
}

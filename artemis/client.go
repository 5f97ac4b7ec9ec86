package artemis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"golang.org/x/sync/singleflight"

	"mock-bus-app/config"
	"mock-bus-app/metrics"
)

// ErrNoBroker is returned when broker discovery finds no addressable
// Artemis instance.
var ErrNoBroker = errors.New("no artemis broker instance found")

var brokerNamePattern = regexp.MustCompile(`broker="([^"]+)"`)

// Client talks to the management plane of a single Artemis broker:
// queues and addresses via Jolokia, broker users via the user REST API.
// The discovered broker name is the only cached state; everything else
// is read from the broker on demand.
type Client struct {
	cfg    *config.ArtemisConfig
	http   *http.Client
	logger *slog.Logger

	mu         sync.Mutex
	brokerName string
	discovery  singleflight.Group
}

// NewClient creates a new Artemis management client.
func NewClient(cfg *config.ArtemisConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// BrokerName resolves the name of the managed broker instance via the
// Jolokia search endpoint. The first successful result is memoized for
// the lifetime of the client; concurrent first callers share one
// discovery round-trip.
func (c *Client) BrokerName(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.brokerName != "" {
		name := c.brokerName
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	v, err, _ := c.discovery.Do("broker", func() (any, error) {
		name, err := c.discoverBrokerName(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.brokerName = name
		c.mu.Unlock()
		c.logger.Info("artemis broker identified", "broker", name)
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) discoverBrokerName(ctx context.Context) (string, error) {
	url := c.cfg.JolokiaURL + "/search/org.apache.activemq.artemis:broker=*"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("could not create discovery request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AdminUser, c.cfg.AdminPass)

	var result struct {
		Value []string `json:"value"`
	}
	if err := c.doJSON(req, &result); err != nil {
		c.observe("discover", err)
		return "", fmt.Errorf("broker discovery failed: %w", err)
	}
	c.observe("discover", nil)

	for _, mbean := range result.Value {
		if m := brokerNamePattern.FindStringSubmatch(mbean); m != nil {
			return m[1], nil
		}
	}
	return "", ErrNoBroker
}

// doJSON performs the request and decodes the response body into out.
// A non-2xx status is an error.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("broker API returned non-2xx status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

// observe records the outcome of a management call in the broker
// request metrics.
func (c *Client) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.BrokerRequests.WithLabelValues(operation, outcome).Inc()
}

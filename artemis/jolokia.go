package artemis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// jolokiaRequest is the body of a Jolokia read or exec operation.
type jolokiaRequest struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean"`
	Attribute string `json:"attribute,omitempty"`
	Operation string `json:"operation,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
}

// jolokiaResponse covers both success and error envelopes. Jolokia
// reports operation failures with HTTP 200 and a non-200 status field.
type jolokiaResponse struct {
	Status int             `json:"status"`
	Value  json.RawMessage `json:"value"`
	Error  string          `json:"error"`
}

func (c *Client) brokerMBean(ctx context.Context) (string, error) {
	name, err := c.BrokerName(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("org.apache.activemq.artemis:broker=%q", name), nil
}

// execJolokia posts the request body and unmarshals the value field of a
// successful response into out (which may be nil for exec operations).
func (c *Client) execJolokia(ctx context.Context, body *jolokiaRequest, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not marshal jolokia request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.JolokiaURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not create jolokia request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.AdminUser, c.cfg.AdminPass)

	var jresp jolokiaResponse
	if err := c.doJSON(req, &jresp); err != nil {
		return err
	}
	if jresp.Status != http.StatusOK {
		if jresp.Error != "" {
			return fmt.Errorf("jolokia operation failed: %s", jresp.Error)
		}
		return fmt.Errorf("jolokia operation failed with status %d", jresp.Status)
	}

	if out == nil || jresp.Value == nil {
		return nil
	}
	if err := json.Unmarshal(jresp.Value, out); err != nil {
		return fmt.Errorf("could not decode jolokia value: %w", err)
	}
	return nil
}

func (c *Client) readStringList(ctx context.Context, attribute string) ([]string, error) {
	mbean, err := c.brokerMBean(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	err = c.execJolokia(ctx, &jolokiaRequest{
		Type:      "read",
		MBean:     mbean,
		Attribute: attribute,
	}, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", attribute, err)
	}
	return names, nil
}

// QueueExists reports whether a queue with the given name exists on the
// broker. Transport or auth failures are returned as errors, never as
// "does not exist".
func (c *Client) QueueExists(ctx context.Context, name string) (bool, error) {
	names, err := c.readStringList(ctx, "QueueNames")
	c.observe("queue_exists", err)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// AddressExists reports whether an address with the given name exists.
func (c *Client) AddressExists(ctx context.Context, name string) (bool, error) {
	names, err := c.readStringList(ctx, "AddressNames")
	c.observe("address_exists", err)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateQueue provisions a durable ANYCAST queue with the given name,
// creating the backing address first when needed. Both steps are
// idempotent: resources that already exist are left untouched.
func (c *Client) CreateQueue(ctx context.Context, name string) error {
	mbean, err := c.brokerMBean(ctx)
	if err != nil {
		return err
	}

	addressExists, err := c.AddressExists(ctx, name)
	if err != nil {
		return err
	}
	if !addressExists {
		err := c.execJolokia(ctx, &jolokiaRequest{
			Type:      "exec",
			MBean:     mbean,
			Operation: "createAddress(java.lang.String,java.lang.String)",
			Arguments: []any{name, "ANYCAST"},
		}, nil)
		c.observe("create_address", err)
		if err != nil {
			return fmt.Errorf("failed to create address %s: %w", name, err)
		}
		c.logger.Info("address created", "address", name, "routing_type", "ANYCAST")
	}

	queueExists, err := c.QueueExists(ctx, name)
	if err != nil {
		return err
	}
	if !queueExists {
		err := c.execJolokia(ctx, &jolokiaRequest{
			Type:      "exec",
			MBean:     mbean,
			Operation: "createQueue(java.lang.String,java.lang.String,java.lang.String,boolean)",
			Arguments: []any{name, name, nil, true}, // address, name, filter, durable
		}, nil)
		c.observe("create_queue", err)
		if err != nil {
			return fmt.Errorf("failed to create queue %s: %w", name, err)
		}
		c.logger.Info("queue created", "queue", name)
	}

	return nil
}

// DeleteQueue destroys the queue with the given name. Destroying an
// absent queue fails on the broker side; callers treat that as
// non-fatal.
func (c *Client) DeleteQueue(ctx context.Context, name string) error {
	mbean, err := c.brokerMBean(ctx)
	if err != nil {
		return err
	}

	err = c.execJolokia(ctx, &jolokiaRequest{
		Type:      "exec",
		MBean:     mbean,
		Operation: "destroyQueue(java.lang.String)",
		Arguments: []any{name},
	}, nil)
	c.observe("delete_queue", err)
	if err != nil {
		return fmt.Errorf("failed to delete queue %s: %w", name, err)
	}
	c.logger.Info("queue deleted", "queue", name)
	return nil
}

// MessageCount reads the current depth of the queue. When the read
// fails (broker unreachable, queue gone) the count is unknown and an
// error is returned; callers decide whether unknown blocks them.
func (c *Client) MessageCount(ctx context.Context, name string) (int64, error) {
	mbean, err := c.brokerMBean(ctx)
	if err != nil {
		return 0, err
	}

	queueMBean := fmt.Sprintf("%s,component=addresses,address=%q,queue=%q,routing-type=\"anycast\",subcomponent=queues", mbean, name, name)

	var count int64
	err = c.execJolokia(ctx, &jolokiaRequest{
		Type:      "read",
		MBean:     queueMBean,
		Attribute: "MessageCount",
	}, &count)
	c.observe("message_count", err)
	if err != nil {
		return 0, fmt.Errorf("failed to read message count for queue %s: %w", name, err)
	}
	return count, nil
}

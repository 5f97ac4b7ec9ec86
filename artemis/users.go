package artemis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultUserRole is assigned to broker users created without an
// explicit role.
const DefaultUserRole = "amq"

// User is a broker-side login as reported by the user API.
type User struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (c *Client) userRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal user request: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.UserAPIURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("could not create user request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Artemis-Admin-User", c.cfg.AdminUser)
	req.Header.Set("X-Artemis-Admin-Pass", c.cfg.AdminPass)
	return req, nil
}

// FindUser looks up a broker user by username. Absence from the list
// response is "not found" and returns nil without an error.
func (c *Client) FindUser(ctx context.Context, username string) (*User, error) {
	req, err := c.userRequest(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Users []User `json:"users"`
	}
	err = c.doJSON(req, &result)
	c.observe("find_user", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list broker users: %w", err)
	}

	for i := range result.Users {
		if result.Users[i].Username == username {
			return &result.Users[i], nil
		}
	}
	return nil, nil
}

// CreateUser provisions a broker login. An empty role defaults to
// DefaultUserRole.
func (c *Client) CreateUser(ctx context.Context, username, password, role string) error {
	if role == "" {
		role = DefaultUserRole
	}

	req, err := c.userRequest(ctx, http.MethodPost, "/users", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	})
	if err != nil {
		return err
	}

	err = c.doJSON(req, nil)
	c.observe("create_user", err)
	if err != nil {
		return fmt.Errorf("failed to create broker user %s: %w", username, err)
	}
	c.logger.Info("broker user created", "username", username, "role", role)
	return nil
}

// DeleteUser removes a broker login. Callers treat absence as
// non-fatal.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	req, err := c.userRequest(ctx, http.MethodDelete, "/users/"+url.PathEscape(username), nil)
	if err != nil {
		return err
	}

	err = c.doJSON(req, nil)
	c.observe("delete_user", err)
	if err != nil {
		return fmt.Errorf("failed to delete broker user %s: %w", username, err)
	}
	c.logger.Info("broker user deleted", "username", username)
	return nil
}

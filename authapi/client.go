package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealsweep/models"
)

// ErrUnauthorized means the backend rejected the stored JWT; callers
// clear local state and require a fresh login.
var ErrUnauthorized = errors.New("session token rejected")

// Client talks to the dealsweep backend: login, register, verify and
// per-run session logging.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

type loginResponse struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
}

func (r *loginResponse) errorMessage() string {
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return "authentication failed"
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, status, err := c.post(ctx, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if status >= 400 || resp.Token == "" {
		return "", errors.New(resp.errorMessage())
	}
	return resp.Token, nil
}

// Register creates an account; it stays unusable until an admin approves it.
func (c *Client) Register(ctx context.Context, firstName, lastName, email, password string) error {
	body, status, err := c.post(ctx, "/auth/register", "", map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
		"password":  password,
	})
	if err != nil {
		return err
	}
	if status >= 400 {
		var resp loginResponse
		if err := json.Unmarshal(body, &resp); err == nil {
			return errors.New(resp.errorMessage())
		}
		return fmt.Errorf("registration failed with status %d", status)
	}
	return nil
}

type verifyResponse struct {
	User *models.User `json:"user"`
}

// Verify checks a stored token and returns the user behind it.
// ErrUnauthorized means the token is no longer valid.
func (c *Client) Verify(ctx context.Context, jwt string) (*models.User, error) {
	body, status, err := c.post(ctx, "/auth/verify", jwt, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, ErrUnauthorized
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if resp.User == nil {
		return nil, ErrUnauthorized
	}
	return resp.User, nil
}

// LogSession reports one finished run to the backend. Best effort: the
// run outcome does not depend on this call succeeding.
func (c *Client) LogSession(ctx context.Context, jwt string, dataCount int, status models.RunStatus) error {
	_, code, err := c.post(ctx, "/scraping/log", jwt, map[string]any{
		"dataCount": dataCount,
		"status":    status,
	})
	if err != nil {
		return err
	}
	if code >= 400 {
		return fmt.Errorf("session log rejected with status %d", code)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, jwt string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if jwt != "" {
		req.Header.Set("Authorization", "Bearer "+jwt)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

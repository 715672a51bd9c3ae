// Package client implements the HTTP contract of the remote mail service:
// authentication, mailbox listing and sending. All state lives elsewhere;
// the client is a stateless transport wrapper.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"miracmail/config"
	"miracmail/models"
	"miracmail/utils"
)

// AuthHeader is the header the mail service expects the session token in.
const AuthHeader = "x-auth-token"

// Client is a mail service API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new mail service client
func NewClient(cfg config.MailConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// tokenResponse is the success shape of the login and register endpoints.
type tokenResponse struct {
	Token string `json:"token"`
}

// errorResponse is the service's error shape.
type errorResponse struct {
	Msg string `json:"msg"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates an account and returns its session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp tokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", "", registerRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// FetchUser returns the profile of the token's owner.
func (c *Client) FetchUser(ctx context.Context, token string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/user", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchFolder lists a folder's messages in server order (newest first).
func (c *Client) FetchFolder(ctx context.Context, token string, folder models.Folder) ([]models.Email, error) {
	path := "/api/emails"
	if folder == models.FolderSent {
		path = "/api/emails/sent"
	}
	var emails []models.Email
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// Send submits a draft for delivery.
func (c *Client) Send(ctx context.Context, token string, draft models.Draft) error {
	return c.doRequest(ctx, http.MethodPost, "/api/emails/send", token, draft, nil)
}

// doRequest makes an HTTP request to the mail service and decodes the
// response into out (when non-nil). Failures are classified per the error
// taxonomy: transport errors are network errors, a 401 is an auth error and
// any other non-2xx is a server error carrying the service's message.
func (c *Client) doRequest(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NetworkError("Could not reach the mail service", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.NetworkError("Could not read the mail service response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serviceMessage(data)
		if resp.StatusCode == http.StatusUnauthorized {
			if msg == "" {
				msg = "Invalid credentials or session"
			}
			return utils.AuthError(msg, nil)
		}
		if msg == "" {
			msg = "Mail service error"
		}
		return utils.ServerError(resp.StatusCode, msg, fmt.Errorf("status %d: %s", resp.StatusCode, data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return utils.ServerError(resp.StatusCode, "Unexpected mail service response", err)
		}
	}
	return nil
}

func serviceMessage(data []byte) string {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		return ""
	}
	return e.Msg
}

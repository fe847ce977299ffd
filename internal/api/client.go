// ABOUTME: Thin HTTP client for the remote messenger endpoint
// ABOUTME: POSTs JSON bodies to a single URL dispatching on an action query parameter

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the remote messenger endpoint. The endpoint exposes one
// URL; the operation is selected by the action query parameter. Responses
// are passed through as raw JSON without further contract. This is a
// placeholder integration, not a source of truth for the local stores.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the bearer token attached to subsequent requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do POSTs body as JSON to baseURL/?action=<action> and returns the raw
// response body.
func (c *Client) do(ctx context.Context, action string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/?action=%s", c.baseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", action, err)
	}
	return json.RawMessage(raw), nil
}

// Login authenticates against the remote endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (json.RawMessage, error) {
	return c.do(ctx, "login", map[string]any{
		"username": username,
		"password": password,
	})
}

// Register creates an account on the remote endpoint.
func (c *Client) Register(ctx context.Context, email, username, displayName, password string) (json.RawMessage, error) {
	return c.do(ctx, "register", map[string]any{
		"email":       email,
		"username":    username,
		"displayName": displayName,
		"password":    password,
	})
}

// GetChats fetches the conversation list for a user.
func (c *Client) GetChats(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, "get_chats", map[string]any{
		"userId": userID,
	})
}

// GetMessages fetches the message list for a conversation.
func (c *Client) GetMessages(ctx context.Context, chatID string) (json.RawMessage, error) {
	return c.do(ctx, "get_messages", map[string]any{
		"chatId": chatID,
	})
}

// SendMessage posts a message to a conversation.
func (c *Client) SendMessage(ctx context.Context, chatID, senderID, content, kind, mediaURL string) (json.RawMessage, error) {
	body := map[string]any{
		"chatId":   chatID,
		"senderId": senderID,
		"content":  content,
		"type":     kind,
	}
	if mediaURL != "" {
		body["mediaUrl"] = mediaURL
	}
	return c.do(ctx, "send_message", body)
}

// UpdateProfile sends partial profile updates for a user.
func (c *Client) UpdateProfile(ctx context.Context, userID string, updates map[string]any) (json.RawMessage, error) {
	body := map[string]any{"userId": userID}
	for k, v := range updates {
		body[k] = v
	}
	return c.do(ctx, "update_profile", body)
}

// SearchUsers searches the remote user directory.
func (c *Client) SearchUsers(ctx context.Context, query, userID string) (json.RawMessage, error) {
	return c.do(ctx, "search_users", map[string]any{
		"query":  query,
		"userId": userID,
	})
}

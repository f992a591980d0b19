package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lumeva/creditcore/pkg/clients"
	"go.uber.org/zap"
)

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type tokenRequest struct {
	UserID int64 `json:"user_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Client talks to the video provider's room API. Room creation is guarded
// upstream by a per-session claim, so it never retries blindly.
type Client struct {
	baseURL string
	apiKey  string
	client  clients.HTTPClientI
}

func NewClient(baseURL, apiKey string, client clients.HTTPClientI) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (c *Client) CreateRoom(ctx context.Context, sessionID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"name": fmt.Sprintf("session-%d", sessionID)})
	if err != nil {
		return "", err
	}

	statusCode, respBody, _, err := c.client.Post(c.baseURL+"/v1/rooms", c.headers(), body)
	if err != nil {
		return "", fmt.Errorf("room provider unreachable: %w", err)
	}
	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		zap.L().Error("Room creation failed", zap.Int64("sessionID", sessionID), zap.Int("status", statusCode))
		return "", fmt.Errorf("room provider returned %d", statusCode)
	}

	var room roomResponse
	if err := json.Unmarshal(respBody, &room); err != nil {
		return "", fmt.Errorf("failed to parse room response: %w", err)
	}
	return room.URL, nil
}

func (c *Client) DeleteRoom(ctx context.Context, roomURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := roomName(roomURL)
	if name == "" {
		return fmt.Errorf("cannot derive room name from %q", roomURL)
	}

	statusCode, _, _, err := c.client.Delete(c.baseURL+"/v1/rooms/"+url.PathEscape(name), c.headers())
	if err != nil {
		return fmt.Errorf("room provider unreachable: %w", err)
	}
	if statusCode != http.StatusOK && statusCode != http.StatusNoContent && statusCode != http.StatusNotFound {
		return fmt.Errorf("room provider returned %d", statusCode)
	}
	return nil
}

func (c *Client) IssueToken(ctx context.Context, roomURL string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := roomName(roomURL)
	if name == "" {
		return "", fmt.Errorf("cannot derive room name from %q", roomURL)
	}

	body, err := json.Marshal(tokenRequest{UserID: userID})
	if err != nil {
		return "", err
	}

	statusCode, respBody, _, err := c.client.Post(c.baseURL+"/v1/rooms/"+url.PathEscape(name)+"/tokens", c.headers(), body)
	if err != nil {
		return "", fmt.Errorf("room provider unreachable: %w", err)
	}
	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		return "", fmt.Errorf("room provider returned %d", statusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	return token.Token, nil
}

func (c *Client) headers() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+c.apiKey)
	return headers
}

// roomName is the last path segment of the room URL.
func roomName(roomURL string) string {
	trimmed := strings.TrimRight(roomURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnauthorized = errors.New("discord rejected the bot token")
	ErrNotFound     = errors.New("discord resource not found")
	ErrBadStatus    = errors.New("discord returned an unexpected status")
)

// Embed is the subset of Discord's embed object the mirror renders
type Embed struct {
	Title       string `json:"title"`
	Color       int    `json:"color"`
	Description string `json:"description"`
	Footer      Footer `json:"footer"`
}

// Footer is the embed footer line
type Footer struct {
	Text string `json:"text"`
}

// ThreadResult identifies a created forum thread and its starter message.
// Discord's create-thread response carries only the thread channel object;
// the starter message id is assumed equal to the thread id. That assumption
// is unverified against the API contract and treated as best-effort: if an
// edit against it 404s, the mirror drops the mapping and recreates the post.
type ThreadResult struct {
	ThreadID  string
	MessageID string
}

// Client speaks the raw Discord REST API used by the forum mirror
type Client struct {
	baseURL  string
	botToken string
	httpc    *http.Client
}

// NewClient creates a Discord REST client. baseURL is overridable for tests.
func NewClient(baseURL, botToken string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping verifies the bot token by fetching the bot's own user
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/users/@me", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
}

// CreateForumPost starts a new thread in the forum channel with an embed as
// its starter message
func (c *Client) CreateForumPost(ctx context.Context, channelID, title string, embed Embed) (*ThreadResult, error) {
	body := map[string]any{
		"name": title,
		"message": map[string]any{
			"content": "",
			"embeds":  []Embed{embed},
		},
	}

	resp, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/threads", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.statusError(resp)
	}

	var thread struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&thread); err != nil {
		return nil, fmt.Errorf("failed to decode thread response: %w", err)
	}

	return &ThreadResult{ThreadID: thread.ID, MessageID: thread.ID}, nil
}

// DeleteChannel deletes a thread (threads are channels in the Discord API)
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/channels/"+channelID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusError(resp)
	}
	return nil
}

// UpdateMessage replaces the embed of an existing message
func (c *Client) UpdateMessage(ctx context.Context, channelID, messageID string, embed Embed) error {
	body := map[string]any{"embeds": []Embed{embed}}

	resp, err := c.do(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

// UpdateThreadName renames a thread channel
func (c *Client) UpdateThreadName(ctx context.Context, channelID, newName string) error {
	body := map[string]any{"name": newName}

	resp, err := c.do(ctx, http.MethodPatch, "/channels/"+channelID, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+c.botToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) statusError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, string(payload))
	}
	return fmt.Errorf("%w: %d %s", ErrBadStatus, resp.StatusCode, string(payload))
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kengpt/kengpt/pkg/chat"
)

// The source client left a request outstanding indefinitely on a hung
// connection; every call here carries a context and the transport has a
// hard timeout.
const defaultHTTPTimeout = 120 * time.Second

// Client talks to the chat backend over its HTTP contract:
// POST /api/chat, GET /api/chat/models, GET /api/chat/system,
// POST /api/speak.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a backend client rooted at baseURL. A zero timeout
// selects the default; proxy may be empty.
func NewClient(baseURL, proxy string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &http.Client{Timeout: timeout}

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// SubmitChat posts a user request and returns the assistant's reply.
// Non-2xx responses and transport failures surface as errors; the caller
// owns what happens to conversation state.
func (c *Client) SubmitChat(ctx context.Context, request chat.Message) (chat.Message, error) {
	body, err := c.postJSON(ctx, "/api/chat", request)
	if err != nil {
		return chat.Message{}, err
	}

	var response chat.Message
	if err := json.Unmarshal(body, &response); err != nil {
		return chat.Message{}, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if response.Role != chat.RoleAssistant {
		return chat.Message{}, fmt.Errorf("chat response role is %q, expected %q", response.Role, chat.RoleAssistant)
	}
	return response, nil
}

// ListModels fetches the identifiers the backend can serve. Callers treat
// failure as non-fatal and fall back to an empty list.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	body, err := c.getRaw(ctx, "/api/chat/models")
	if err != nil {
		return nil, err
	}

	var models []string
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("unmarshal model list: %w", err)
	}
	return models, nil
}

// SystemStatus fetches the backend's self-reported runtime state. Used by
// the optional status poll.
func (c *Client) SystemStatus(ctx context.Context) (chat.System, error) {
	body, err := c.getRaw(ctx, "/api/chat/system")
	if err != nil {
		return chat.System{}, err
	}

	var system chat.System
	if err := json.Unmarshal(body, &system); err != nil {
		return chat.System{}, fmt.Errorf("unmarshal system status: %w", err)
	}
	return system, nil
}

var speechUnspeakableRE = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// SanitizeSpeech drops characters the synthesizer cannot voice (emoji,
// markup, punctuation runs).
func SanitizeSpeech(text string) string {
	return speechUnspeakableRE.ReplaceAllString(text, "")
}

// Speak submits text for synthesis and returns MP3 bytes. Failures are
// the caller's to contain; speech is an auxiliary feature.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	payload := map[string]string{"text": SanitizeSpeech(text)}
	return c.postJSON(ctx, "/api/speak", payload)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("backend base URL not configured")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path)
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("backend base URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("backend request failed:\n  Path:   %s\n  Status: %d\n  Body:   %s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

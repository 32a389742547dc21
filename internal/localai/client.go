package localai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rozeraf/autocommit/internal/ai"
)

// Client speaks the Ollama-style local inference wire shape. No
// credentials are required.
type Client struct {
	d    ai.Descriptor
	http *http.Client
}

func New(d ai.Descriptor) *Client {
	if d.BaseURL == "" {
		d.BaseURL = "http://localhost:11434"
	}
	d.BaseURL = strings.TrimRight(d.BaseURL, "/")
	return &Client{
		d: d,
		http: &http.Client{
			Timeout: 120 * time.Second, // local models can be slow to warm up
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64 `json:"temperature"`
}

type chatReq struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options"`
}

type chatResp struct {
	Message message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *Client) Describe() ai.Descriptor { return c.d }

func (c *Client) RequiredCredentials() []string { return nil }

func (c *Client) CheckConnectivity(ctx context.Context) bool {
	host, port := ai.HostPort(c.d.BaseURL)
	return ai.CheckTCP(ctx, host, port, 0)
}

func (c *Client) Generate(ctx context.Context, userContent, systemPrompt string) (string, error) {
	payload, err := json.Marshal(chatReq{
		Model: c.d.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Stream:  false,
		Options: options{Temperature: c.d.Temperature},
	})
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.d.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(ai.FailureNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", c.fail(ai.ClassifyStatus(resp.StatusCode),
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", c.fail(ai.FailureMalformed, "decode response", err)
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", c.fail(ai.FailureMalformed, "empty response content", nil)
	}
	return out.Message.Content, nil
}

func (c *Client) fail(class ai.FailureClass, msg string, err error) error {
	return &ai.ProviderError{Provider: c.d.Name, Class: class, Msg: msg, Err: err}
}

package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rozeraf/autocommit/internal/ai"
)

const (
	referer = "https://github.com/rozeraf/autocommit"
	title   = "autocommit"
)

// Client speaks the OpenRouter wire shape: OpenAI-compatible completions
// plus a public /models endpoint for live context-length discovery.
type Client struct {
	d    ai.Descriptor
	http *http.Client
}

func New(d ai.Descriptor) *Client {
	if d.BaseURL == "" {
		d.BaseURL = "https://openrouter.ai/api/v1"
	}
	return &Client{
		d: d,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ModelInfo is the slice of OpenRouter's model listing we care about.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResp struct {
	Data []ModelInfo `json:"data"`
}

func (c *Client) Describe() ai.Descriptor { return c.d }

func (c *Client) RequiredCredentials() []string {
	if c.d.CredentialEnv == "" {
		return []string{"OPENROUTER_API_KEY"}
	}
	return []string{c.d.CredentialEnv}
}

func (c *Client) CheckConnectivity(ctx context.Context) bool {
	host, port := ai.HostPort(c.d.BaseURL)
	return ai.CheckTCP(ctx, host, port, 0)
}

// ModelInfo looks the configured model up on the /models endpoint so the
// compressor can budget against the live context length instead of the
// configured default.
func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	url := strings.TrimRight(c.d.BaseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.fail(ai.FailureMalformed, "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(ai.FailureNetwork, "models request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(ai.ClassifyStatus(resp.StatusCode), fmt.Sprintf("models status %d", resp.StatusCode), nil)
	}
	var out modelsResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, c.fail(ai.FailureMalformed, "decode models response", err)
	}
	for _, m := range out.Data {
		if m.ID == c.d.Model {
			return &m, nil
		}
	}
	return nil, c.fail(ai.FailureMalformed, fmt.Sprintf("model %q not listed", c.d.Model), nil)
}

func (c *Client) Generate(ctx context.Context, userContent, systemPrompt string) (string, error) {
	url := strings.TrimRight(c.d.BaseURL, "/") + "/chat/completions"

	payload, err := json.Marshal(chatReq{
		Model: c.d.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: c.d.Temperature,
		MaxTokens:   c.d.MaxTokens,
	})
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv(c.RequiredCredentials()[0]))
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", title)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(ai.FailureNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", c.fail(ai.ClassifyStatus(resp.StatusCode),
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))), nil)
	}

	var out chatResp
	if err := json.Unmarshal(b, &out); err != nil {
		return "", c.fail(ai.FailureMalformed, "decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", c.fail(ai.FailureMalformed, "empty choices", nil)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) fail(class ai.FailureClass, msg string, err error) error {
	return &ai.ProviderError{Provider: c.d.Name, Class: class, Msg: msg, Err: err}
}

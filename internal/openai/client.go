package openai

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

// Client speaks the OpenAI chat-completions wire shape. Any
// OpenAI-compatible endpoint works through BaseURL.
type Client struct {
	d    ai.Descriptor
	http *http.Client
}

func New(d ai.Descriptor) *Client {
	if d.BaseURL == "" {
		d.BaseURL = "https://api.openai.com/v1"
	}
	return &Client{
		d: d,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
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
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Describe() ai.Descriptor { return c.d }

func (c *Client) RequiredCredentials() []string {
	if c.d.CredentialEnv == "" {
		return nil
	}
	return []string{c.d.CredentialEnv}
}

func (c *Client) CheckConnectivity(ctx context.Context) bool {
	host, port := ai.HostPort(c.d.BaseURL)
	return ai.CheckTCP(ctx, host, port, 0)
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
	if key := os.Getenv(c.d.CredentialEnv); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

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
	if out.Error != nil {
		return "", c.fail(ai.FailureMalformed, fmt.Sprintf("%s (%s)", out.Error.Message, out.Error.Type), nil)
	}
	if len(out.Choices) == 0 {
		return "", c.fail(ai.FailureMalformed, "empty choices", nil)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) fail(class ai.FailureClass, msg string, err error) error {
	return &ai.ProviderError{Provider: c.d.Name, Class: class, Msg: msg, Err: err}
}

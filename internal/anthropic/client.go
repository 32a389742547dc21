package anthropic

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

const apiVersion = "2023-06-01"

// Client speaks the Anthropic messages wire shape: the system prompt is
// top-level and the reply text lives in content[0].text.
type Client struct {
	d    ai.Descriptor
	http *http.Client
}

func New(d ai.Descriptor) *Client {
	if d.BaseURL == "" {
		d.BaseURL = "https://api.anthropic.com/v1"
	}
	return &Client{
		d: d,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageReq struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
}

type messageResp struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) Describe() ai.Descriptor { return c.d }

func (c *Client) RequiredCredentials() []string {
	if c.d.CredentialEnv == "" {
		return []string{"ANTHROPIC_API_KEY"}
	}
	return []string{c.d.CredentialEnv}
}

func (c *Client) CheckConnectivity(ctx context.Context) bool {
	host, port := ai.HostPort(c.d.BaseURL)
	return ai.CheckTCP(ctx, host, port, 0)
}

func (c *Client) Generate(ctx context.Context, userContent, systemPrompt string) (string, error) {
	maxTokens := c.d.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload, err := json.Marshal(messageReq{
		Model:       c.d.Model,
		System:      strings.TrimSpace(systemPrompt),
		Messages:    []message{{Role: "user", Content: userContent}},
		MaxTokens:   maxTokens,
		Temperature: c.d.Temperature,
	})
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "marshal request", err)
	}

	url := strings.TrimRight(c.d.BaseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", c.fail(ai.FailureMalformed, "build request", err)
	}
	req.Header.Set("x-api-key", os.Getenv(c.RequiredCredentials()[0]))
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("content-type", "application/json")

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

	var out messageResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", c.fail(ai.FailureMalformed, "decode response", err)
	}
	if len(out.Content) == 0 {
		return "", c.fail(ai.FailureMalformed, "empty response content", nil)
	}
	return out.Content[0].Text, nil
}

func (c *Client) fail(class ai.FailureClass, msg string, err error) error {
	return &ai.ProviderError{Provider: c.d.Name, Class: class, Msg: msg, Err: err}
}

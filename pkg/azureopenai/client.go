// Package azureopenai is a minimal chat-completions client for an Azure
// OpenAI deployment. It performs exactly one HTTP request per call with
// a bounded timeout and no retries, so every failure maps to exactly one
// skipped prompt in the batch log.
package azureopenai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultAPIVersion = "2024-12-01-preview"

// Client performs chat completions against an Azure OpenAI deployment.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// ChatCompletionRequest is the request body for
// POST /openai/deployments/{deployment}/chat/completions.
type ChatCompletionRequest struct {
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Stream           bool      `json:"stream"`
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the completion response. Model carries the
// identifier of the underlying model the deployment resolved to, which
// for a model-router deployment is the routing decision itself.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Option configures the client.
type Option func(*httpClient)

// WithAPIVersion overrides the default api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(c *httpClient) {
		c.apiVersion = version
	}
}

// WithTimeout overrides the default 60s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	endpoint   string
	deployment string
	apiKey     string
	apiVersion string
	http       *http.Client
}

// NewClient creates a client bound to one endpoint and deployment.
func NewClient(endpoint, deployment, apiKey string, opts ...Option) Client {
	c := &httpClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiKey:     apiKey,
		apiVersion: defaultAPIVersion,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "azureopenai: marshal request")
	}

	url := c.endpoint + "/openai/deployments/" + c.deployment + "/chat/completions?api-version=" + c.apiVersion
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "azureopenai: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "azureopenai: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "azureopenai: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("azureopenai: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "azureopenai: unmarshal response")
	}

	return &result, nil
}

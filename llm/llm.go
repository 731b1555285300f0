// Package llm talks to an OpenAI-compatible chat completions endpoint and
// layers model fallback on top of it.
package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"storelens/config"
	"storelens/oops"

	"github.com/goccy/go-json"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Options struct {
	Temperature float64
	ForceJson   bool
}

type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Client is one call shape over interchangeable model identifiers.
type Client interface {
	Complete(ctx context.Context, model string, messages []Message, opts Options) (string, error)
}

// ClientFunc adapts a function to Client, mostly for tests.
type ClientFunc func(ctx context.Context, model string, messages []Message, opts Options) (string, error)

func (f ClientFunc) Complete(
	ctx context.Context, model string, messages []Message, opts Options,
) (string, error) {
	return f(ctx, model, messages, opts)
}

type ApiClient struct {
	ApiUrl string
	ApiKey string
	Client *http.Client
}

func NewApiClient() *ApiClient {
	var client http.Client
	client.Timeout = 2 * time.Minute
	return &ApiClient{
		ApiUrl: config.Cfg.Oracle.ApiUrl,
		ApiKey: config.Cfg.Oracle.ApiKey,
		Client: &client,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	FinishReason string      `json:"finish_reason"`
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *ApiClient) Complete(
	ctx context.Context, model string, messages []Message, opts Options,
) (string, error) {
	chatReq := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		Stream:      false,
	}
	if opts.ForceJson {
		chatReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(&chatReq)
	if err != nil {
		return "", oops.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ApiUrl, bytes.NewReader(reqBody))
	if err != nil {
		return "", oops.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.ApiKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", oops.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", oops.Newf("model %s returned status %d: %s", model, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", oops.Wrapf(err, "model %s returned unparseable body", model)
	}
	if len(chatResp.Choices) == 0 {
		return "", oops.Newf("model %s returned no choices", model)
	}

	return chatResp.Choices[0].Message.Content, nil
}

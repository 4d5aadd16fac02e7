package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"tmrelay/internal/models"
	"tmrelay/internal/upstream"
)

// ChatCompletionCreator is the part of *openai.Client the provider needs.
type ChatCompletionCreator interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenRouterOptions configures NewOpenRouterProvider.
type OpenRouterOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	Referer    string
	Title      string
	HTTPClient *http.Client
}

// OpenRouterProvider implements Summarizer against OpenRouter's
// OpenAI-compatible chat completions endpoint.
type OpenRouterProvider struct {
	client ChatCompletionCreator
	model  string
}

// NewOpenRouterProvider creates a provider backed by a go-openai client.
func NewOpenRouterProvider(opts OpenRouterOptions) *OpenRouterProvider {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	clientCfg.BaseURL = opts.BaseURL

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	headers := map[string]string{}
	if opts.Referer != "" {
		headers["HTTP-Referer"] = opts.Referer
	}
	if opts.Title != "" {
		headers["X-Title"] = opts.Title
	}
	clientCfg.HTTPClient = &capturingDoer{next: httpClient, headers: headers}

	return NewOpenRouterProviderWithClient(openai.NewClientWithConfig(clientCfg), opts.Model)
}

// NewOpenRouterProviderWithClient wraps an existing completion client.
func NewOpenRouterProviderWithClient(client ChatCompletionCreator, model string) *OpenRouterProvider {
	return &OpenRouterProvider{client: client, model: model}
}

// Name returns the provider name.
func (p *OpenRouterProvider) Name() string { return "openrouter" }

// ModelName returns the specific model identifier.
func (p *OpenRouterProvider) ModelName() string { return p.model }

// Summarize sends prompt as a single user message.
func (p *OpenRouterProvider) Summarize(ctx context.Context, prompt string) upstream.Outcome[models.Completion] {
	capture := &responseCapture{}
	ctx = context.WithValue(ctx, captureKey{}, capture)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return classifyCompletionError(err, capture)
	}
	return upstream.Success(completionFromResponse(resp, p.model))
}

func completionFromResponse(resp openai.ChatCompletionResponse, model string) models.Completion {
	out := models.Completion{
		Model: model,
		Usage: models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out
}

func classifyCompletionError(err error, capture *responseCapture) upstream.Outcome[models.Completion] {
	if capture.failed() {
		return upstream.HTTPError[models.Completion](capture.status, capture.body)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		body, _ := json.Marshal(map[string]*openai.APIError{"error": apiErr})
		return upstream.HTTPError[models.Completion](apiErr.HTTPStatusCode, body)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return upstream.HTTPError[models.Completion](reqErr.HTTPStatusCode, []byte(reqErr.Error()))
	}

	if upstream.IsNetworkError(err) {
		return upstream.NetworkError[models.Completion](upstream.StripURL(err))
	}

	// A 2xx answer that go-openai could not decode is a malformed success.
	if capture.succeeded() {
		return upstream.Success(models.Completion{})
	}
	return upstream.Failure[models.Completion](err)
}

type captureKey struct{}

// responseCapture records the status and, for failures, the raw body of the
// response to one completion request.
type responseCapture struct {
	status int
	body   []byte
}

func (c *responseCapture) failed() bool {
	return c.status != 0 && (c.status < http.StatusOK || c.status >= http.StatusBadRequest)
}

func (c *responseCapture) succeeded() bool {
	return c.status >= http.StatusOK && c.status < http.StatusBadRequest
}

// capturingDoer adds provider headers and keeps a copy of failed response
// bodies so they can be forwarded verbatim.
type capturingDoer struct {
	next    *http.Client
	headers map[string]string
}

func (d *capturingDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.next.Do(req)
	if err != nil {
		return nil, err
	}

	capture, ok := req.Context().Value(captureKey{}).(*responseCapture)
	if !ok {
		return resp, nil
	}
	capture.status = resp.StatusCode
	if capture.failed() {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading completion error response: %w", readErr)
		}
		capture.body = body
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return resp, nil
}

var _ Summarizer = (*OpenRouterProvider)(nil)

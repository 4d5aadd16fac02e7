package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"tmrelay/internal/upstream"
)

// TMSearchClient queries the tmsearch.ai trademark search API.
type TMSearchClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

// NewTMSearchClient creates a search client. A nil httpClient uses http.DefaultClient.
func NewTMSearchClient(baseURL, apiKey string, httpClient *http.Client) (*TMSearchClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TMSearchClient{
		baseURL:    u,
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// Name returns the provider name.
func (c *TMSearchClient) Name() string { return "tmsearch" }

// Search issues one GET for keyword and returns the raw response body.
func (c *TMSearchClient) Search(ctx context.Context, keyword string) upstream.Outcome[[]byte] {
	u := *c.baseURL
	q := u.Query()
	q.Set("keyword", keyword)
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return upstream.Failure[[]byte](upstream.StripURL(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if upstream.IsNetworkError(err) {
			return upstream.NetworkError[[]byte](upstream.StripURL(err))
		}
		return upstream.Failure[[]byte](upstream.StripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return upstream.NetworkError[[]byte](fmt.Errorf("reading search response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return upstream.HTTPError[[]byte](resp.StatusCode, body)
	}
	return upstream.Success(body)
}

var _ SearchProvider = (*TMSearchClient)(nil)

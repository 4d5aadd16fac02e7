package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"tmrelay/internal/costtracker"
	"tmrelay/internal/logging"
	"tmrelay/internal/models"
	"tmrelay/internal/upstream"
)

const (
	SuggestionNoResults        = "No trademark results found for your query."
	SuggestionUnexpectedFormat = "Unexpected response format from OpenRouter."
	SuggestionAnalysisFailed   = "Error analyzing with OpenRouter."

	MessageNoResponse     = "No response received from OpenRouter"
	MessageSearchFallback = "Error fetching data from TM AI API"

	promptTemplate = "User Query: %s\nTM AI Results: %s\nAnalyze the TM AI results in the context of the user query. Suggest improvements to the query or summarize the results."
)

// RelayError is a failure that must be reported to the caller with Status.
// Body, when set, is an upstream error body forwarded as-is.
type RelayError struct {
	Status  int
	Message string
	Body    []byte

	// Suggestion is the finalized suggestion at the time of failure.
	Suggestion string
	Cause      error
}

func (e *RelayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Body)
}

func (e *RelayError) Unwrap() error { return e.Cause }

// Payload is the value rendered under the "error" key of the response body.
func (e *RelayError) Payload() any {
	if len(e.Body) == 0 {
		return e.Message
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// RelayService runs one search and, when there are results, one summarization.
type RelayService struct {
	search      SearchProvider
	summarizer  Summarizer
	costTracker costtracker.CostTracker
	maxResults  int
}

func NewRelayService(search SearchProvider, summarizer Summarizer, tracker costtracker.CostTracker, maxResults int) *RelayService {
	return &RelayService{
		search:      search,
		summarizer:  summarizer,
		costTracker: tracker,
		maxResults:  maxResults,
	}
}

// Relay searches for keyword and attaches a suggestion. Errors meant for the
// caller are *RelayError.
func (s *RelayService) Relay(ctx context.Context, keyword string) (*models.RelayResponse, error) {
	logger := logging.FromContext(ctx).WithField("keyword", keyword)

	results, err := s.fetchResults(ctx, keyword)
	if err != nil {
		recordRelay("search_error")
		logger.WithError(err).Error("TM AI search failed")
		return nil, err
	}

	resp := &models.RelayResponse{Results: results}
	if len(results) == 0 {
		resp.Suggestion = SuggestionNoResults
		recordRelay("no_results")
		return resp, nil
	}

	suggestion, err := s.suggest(ctx, keyword, results)
	if err != nil {
		recordRelay("summarization_error")
		logger.WithError(err).Error("OpenRouter summarization failed")
		return nil, err
	}
	resp.Suggestion = suggestion
	recordRelay("ok")
	return resp, nil
}

func (s *RelayService) fetchResults(ctx context.Context, keyword string) ([]json.RawMessage, error) {
	start := time.Now()
	out := s.search.Search(ctx, keyword)
	observeUpstream(s.search.Name(), start, out.Kind)

	switch out.Kind {
	case upstream.KindSuccess:
		return parseSearchResults(out.Value)
	case upstream.KindHTTPError:
		logging.FromContext(ctx).WithFields(map[string]any{
			"status": out.Status,
			"body":   string(out.Body),
		}).Error("TM AI API error response")
		return nil, &RelayError{
			Status:  http.StatusInternalServerError,
			Message: searchErrorMessage(out.Status, out.Body),
		}
	case upstream.KindNetworkError, upstream.KindFailure:
		msg := MessageSearchFallback
		if out.Err != nil && out.Err.Error() != "" {
			msg = fmt.Sprintf("%s: %v", MessageSearchFallback, out.Err)
		}
		cause := out.Err
		if out.Kind == upstream.KindNetworkError {
			cause = fmt.Errorf("%w: %w", models.ErrUpstreamUnreachable, out.Err)
		}
		return nil, &RelayError{Status: http.StatusInternalServerError, Message: msg, Cause: cause}
	default:
		return nil, fmt.Errorf("unhandled search outcome %s", out.Kind)
	}
}

// parseSearchResults extracts the "result" array. Anything other than an
// array yields no results.
func parseSearchResults(body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, &RelayError{
			Status:  http.StatusInternalServerError,
			Message: "TM AI API returned an invalid JSON body",
		}
	}

	results := []json.RawMessage{}
	field := gjson.GetBytes(body, "result")
	if !field.IsArray() {
		return results, nil
	}
	for _, item := range field.Array() {
		results = append(results, json.RawMessage(item.Raw))
	}
	return results, nil
}

// searchErrorMessage prefers the provider's "message" field and falls back
// to the status code.
func searchErrorMessage(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return fmt.Sprintf("TM AI API responded with status: %d", status)
}

func (s *RelayService) suggest(ctx context.Context, keyword string, results []json.RawMessage) (string, error) {
	batch := results[:min(len(results), s.maxResults)]
	prompt, err := BuildPrompt(keyword, batch)
	if err != nil {
		return "", &RelayError{
			Status:     http.StatusInternalServerError,
			Message:    err.Error(),
			Suggestion: SuggestionAnalysisFailed,
			Cause:      err,
		}
	}

	start := time.Now()
	out := s.summarizer.Summarize(ctx, prompt)
	observeUpstream(s.summarizer.Name(), start, out.Kind)

	switch out.Kind {
	case upstream.KindSuccess:
		if s.costTracker != nil {
			s.costTracker.RecordUsage(ctx, "summarization", out.Value.Model, out.Value.Usage)
		}
		if out.Value.Text == "" {
			logging.FromContext(ctx).Warn("Unexpected OpenRouter response: no choice with message content")
			return SuggestionUnexpectedFormat, nil
		}
		return out.Value.Text, nil
	case upstream.KindHTTPError:
		status := out.Status
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}
		logging.FromContext(ctx).WithFields(map[string]any{
			"status": out.Status,
			"body":   string(out.Body),
		}).Error("OpenRouter error response")
		return "", &RelayError{
			Status:     status,
			Message:    fmt.Sprintf("OpenRouter responded with status: %d", out.Status),
			Body:       out.Body,
			Suggestion: SuggestionAnalysisFailed,
		}
	case upstream.KindNetworkError:
		return "", &RelayError{
			Status:     http.StatusInternalServerError,
			Message:    MessageNoResponse,
			Suggestion: SuggestionAnalysisFailed,
			Cause:      fmt.Errorf("%w: %w", models.ErrUpstreamUnreachable, out.Err),
		}
	case upstream.KindFailure:
		msg := "Error analyzing with OpenRouter"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		return "", &RelayError{
			Status:     http.StatusInternalServerError,
			Message:    msg,
			Suggestion: SuggestionAnalysisFailed,
			Cause:      out.Err,
		}
	default:
		return "", fmt.Errorf("unhandled summarization outcome %s", out.Kind)
	}
}

// BuildPrompt renders the summarization prompt. Results are encoded as compact
// JSON without HTML escaping.
func BuildPrompt(keyword string, results []json.RawMessage) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return "", fmt.Errorf("encoding results for prompt: %w", err)
	}
	return fmt.Sprintf(promptTemplate, keyword, strings.TrimSuffix(buf.String(), "\n")), nil
}

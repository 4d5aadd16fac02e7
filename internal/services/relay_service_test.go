package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmrelay/internal/costtracker"
	"tmrelay/internal/models"
	"tmrelay/internal/upstream"
)

type fakeSearch struct {
	outcome  upstream.Outcome[[]byte]
	keywords []string
}

func (f *fakeSearch) Name() string { return "fake-search" }

func (f *fakeSearch) Search(ctx context.Context, keyword string) upstream.Outcome[[]byte] {
	f.keywords = append(f.keywords, keyword)
	return f.outcome
}

type fakeSummarizer struct {
	outcome upstream.Outcome[models.Completion]
	prompts []string
}

func (f *fakeSummarizer) Name() string      { return "fake-summarizer" }
func (f *fakeSummarizer) ModelName() string { return "fake-model" }

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string) upstream.Outcome[models.Completion] {
	f.prompts = append(f.prompts, prompt)
	return f.outcome
}

func searchBody(n int) []byte {
	records := make([]string, n)
	for i := range records {
		records[i] = fmt.Sprintf(`{"mark":"MARK-%d"}`, i)
	}
	return []byte(`{"result":[` + strings.Join(records, ",") + `]}`)
}

func promptResults(t *testing.T, prompt string) []map[string]any {
	t.Helper()
	start := strings.Index(prompt, "TM AI Results: ")
	end := strings.Index(prompt, "\nAnalyze the TM AI results")
	require.True(t, start >= 0 && end > start, "prompt does not follow the template: %q", prompt)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(prompt[start+len("TM AI Results: "):end]), &records))
	return records
}

func newRelay(search *fakeSearch, summarizer *fakeSummarizer) *RelayService {
	return NewRelayService(search, summarizer, costtracker.New(nil), 10)
}

func TestRelay_ZeroResultsSkipsSummarization(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success([]byte(`{"result":[]}`))}
	summarizer := &fakeSummarizer{}

	resp, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, SuggestionNoResults, resp.Suggestion)
	assert.Empty(t, summarizer.prompts)
	assert.Equal(t, []string{"acme"}, search.keywords)
}

func TestRelay_NonArrayResultIsEmpty(t *testing.T) {
	bodies := map[string]string{
		"null":          `{"result":null}`,
		"object":        `{"result":{"mark":"ACME"}}`,
		"string":        `{"result":"ACME"}`,
		"missing field": `{"data":[1,2,3]}`,
		"top level":     `[{"mark":"ACME"}]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			summarizer := &fakeSummarizer{}
			relay := newRelay(&fakeSearch{outcome: upstream.Success([]byte(body))}, summarizer)

			resp, err := relay.Relay(context.Background(), "acme")

			require.NoError(t, err)
			assert.Equal(t, []json.RawMessage{}, resp.Results)
			assert.Equal(t, SuggestionNoResults, resp.Suggestion)
			assert.Empty(t, summarizer.prompts)
		})
	}
}

func TestRelay_TruncatesResultsSentToSummarizer(t *testing.T) {
	tests := []struct {
		name     string
		results  int
		wantSent int
	}{
		{name: "one", results: 1, wantSent: 1},
		{name: "exactly ten", results: 10, wantSent: 10},
		{name: "more than ten", results: 15, wantSent: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summarizer := &fakeSummarizer{outcome: upstream.Success(models.Completion{Text: "ok"})}
			relay := newRelay(&fakeSearch{outcome: upstream.Success(searchBody(tt.results))}, summarizer)

			resp, err := relay.Relay(context.Background(), "acme")

			require.NoError(t, err)
			assert.Len(t, resp.Results, tt.results, "all results are returned to the caller")
			require.Len(t, summarizer.prompts, 1)
			sent := promptResults(t, summarizer.prompts[0])
			assert.Len(t, sent, tt.wantSent)
			assert.Equal(t, "MARK-0", sent[0]["mark"])
		})
	}
}

func TestRelay_SuccessfulSummary(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success([]byte(`{"result":[{"mark":"ACME"}]}`))}
	summarizer := &fakeSummarizer{outcome: upstream.Success(models.Completion{
		Text:  "Consider broadening your query.",
		Model: "fake-model",
		Usage: models.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})}

	resp, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	require.NoError(t, err)
	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"mark":"ACME"}],"suggestion":"Consider broadening your query."}`, string(encoded))

	require.Len(t, summarizer.prompts, 1)
	assert.Equal(t,
		"User Query: acme\nTM AI Results: [{\"mark\":\"ACME\"}]\nAnalyze the TM AI results in the context of the user query. Suggest improvements to the query or summarize the results.",
		summarizer.prompts[0])
}

func TestRelay_EmptyCompletionFallsBack(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success([]byte(`{"result":[{"mark":"ACME"}]}`))}
	summarizer := &fakeSummarizer{outcome: upstream.Success(models.Completion{})}

	resp, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	require.NoError(t, err)
	assert.Equal(t, SuggestionUnexpectedFormat, resp.Suggestion)
	assert.Len(t, resp.Results, 1)
}

func TestRelay_SearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		outcome upstream.Outcome[[]byte]
		wantMsg string
	}{
		{
			name:    "not found with message",
			outcome: upstream.HTTPError[[]byte](http.StatusNotFound, []byte(`{"message":"not found"}`)),
			wantMsg: "not found",
		},
		{
			name:    "error body without message",
			outcome: upstream.HTTPError[[]byte](http.StatusBadGateway, []byte(`<html>bad gateway</html>`)),
			wantMsg: "TM AI API responded with status: 502",
		},
		{
			name:    "empty message",
			outcome: upstream.HTTPError[[]byte](http.StatusForbidden, []byte(`{"message":""}`)),
			wantMsg: "TM AI API responded with status: 403",
		},
		{
			name:    "unreachable",
			outcome: upstream.NetworkError[[]byte](errors.New("dial tcp: connection refused")),
			wantMsg: "Error fetching data from TM AI API: dial tcp: connection refused",
		},
		{
			name:    "invalid success body",
			outcome: upstream.Success([]byte(`not json`)),
			wantMsg: "TM AI API returned an invalid JSON body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summarizer := &fakeSummarizer{}
			relay := newRelay(&fakeSearch{outcome: tt.outcome}, summarizer)

			resp, err := relay.Relay(context.Background(), "acme")

			assert.Nil(t, resp)
			var relayErr *RelayError
			require.ErrorAs(t, err, &relayErr)
			assert.Equal(t, http.StatusInternalServerError, relayErr.Status)
			assert.Equal(t, tt.wantMsg, relayErr.Payload())
			assert.Empty(t, summarizer.prompts)
		})
	}
}

func TestRelay_SummarizationHTTPErrorForwardsUpstream(t *testing.T) {
	body := []byte(`{"error":{"message":"Rate limit exceeded","code":429}}`)
	search := &fakeSearch{outcome: upstream.Success(searchBody(3))}
	summarizer := &fakeSummarizer{outcome: upstream.HTTPError[models.Completion](http.StatusTooManyRequests, body)}

	resp, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	assert.Nil(t, resp)
	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusTooManyRequests, relayErr.Status)
	assert.Equal(t, json.RawMessage(body), relayErr.Payload())
	assert.Equal(t, SuggestionAnalysisFailed, relayErr.Suggestion)
}

func TestRelay_SummarizationHTTPErrorPlainBody(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success(searchBody(1))}
	summarizer := &fakeSummarizer{outcome: upstream.HTTPError[models.Completion](http.StatusServiceUnavailable, []byte("upstream down"))}

	_, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusServiceUnavailable, relayErr.Status)
	assert.Equal(t, "upstream down", relayErr.Payload())
}

func TestRelay_SummarizationUnreachable(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success(searchBody(1))}
	summarizer := &fakeSummarizer{outcome: upstream.NetworkError[models.Completion](context.DeadlineExceeded)}

	_, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusInternalServerError, relayErr.Status)
	assert.Equal(t, MessageNoResponse, relayErr.Payload())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, models.ErrUpstreamUnreachable)
}

func TestRelay_SummarizationOtherFailure(t *testing.T) {
	search := &fakeSearch{outcome: upstream.Success(searchBody(1))}
	summarizer := &fakeSummarizer{outcome: upstream.Failure[models.Completion](errors.New("request build failed"))}

	_, err := newRelay(search, summarizer).Relay(context.Background(), "acme")

	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusInternalServerError, relayErr.Status)
	assert.Equal(t, "request build failed", relayErr.Payload())
}

func TestBuildPrompt_NoHTMLEscaping(t *testing.T) {
	prompt, err := BuildPrompt("a&b", []json.RawMessage{json.RawMessage(`{ "mark" : "<A&B>" }`)})

	require.NoError(t, err)
	assert.Contains(t, prompt, "User Query: a&b\n")
	assert.Contains(t, prompt, `TM AI Results: [{"mark":"<A&B>"}]`)
}

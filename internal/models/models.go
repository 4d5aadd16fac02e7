package models

import "encoding/json"

// SearchQuery is the inbound request for a single relay run.
type SearchQuery struct {
	Keyword string `form:"keyword" json:"keyword"`
}

// RelayResponse is the payload returned to the caller on success.
// Results are opaque provider records kept in their original order.
type RelayResponse struct {
	Results    []json.RawMessage `json:"results"`
	Suggestion string            `json:"suggestion"`
}

// Usage holds token counts reported by the summarization provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the decoded part of a chat completion the relay cares about.
// Text is empty when the provider answered with an unexpected shape.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

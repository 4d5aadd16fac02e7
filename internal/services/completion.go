package services

import (
	"context"

	"tmrelay/internal/models"
	"tmrelay/internal/upstream"
)

// SearchProvider fetches the raw JSON body of a trademark search.
type SearchProvider interface {
	Search(ctx context.Context, keyword string) upstream.Outcome[[]byte]
	Name() string // Provider name (e.g., "tmsearch")
}

// Summarizer sends a single user prompt to a chat completion API.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) upstream.Outcome[models.Completion]
	Name() string      // Provider name (e.g., "openrouter")
	ModelName() string // Specific model used
}

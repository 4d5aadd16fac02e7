package costtracker

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"tmrelay/internal/config"
	"tmrelay/internal/metrics"
	"tmrelay/internal/models"
)

// CostEvent represents a single AI usage event and its cost.
type CostEvent struct {
	Operation string // e.g. "summarization"
	Model     string
	Usage     models.Usage
	AmountUSD float64
}

// CostTracker provides methods to record and report costs.
type CostTracker interface {
	RecordUsage(ctx context.Context, operation, model string, usage models.Usage) CostEvent
	TotalCost(ctx context.Context) float64
}

// New returns a tracker that prices usage with the configured per-token rates
// and exports token and cost counters.
func New(pricing map[string]config.PricingInfo) CostTracker {
	return &pricedCostTracker{pricing: pricing}
}

type pricedCostTracker struct {
	pricing map[string]config.PricingInfo

	mu    sync.Mutex
	total float64
}

func (p *pricedCostTracker) RecordUsage(ctx context.Context, operation, model string, usage models.Usage) CostEvent {
	event := CostEvent{Operation: operation, Model: model, Usage: usage}
	if usage.TotalTokens == 0 && usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return event
	}

	metrics.LLMTokens.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokens.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))

	price, ok := p.pricing[model]
	if !ok {
		log.Debugf("Pricing info not found for model '%s'. Cannot record cost for %s.", model, operation)
		return event
	}

	event.AmountUSD = float64(usage.PromptTokens)*price.InputPerToken +
		float64(usage.CompletionTokens)*price.OutputPerToken
	metrics.LLMCost.WithLabelValues(model).Add(event.AmountUSD)

	p.mu.Lock()
	p.total += event.AmountUSD
	p.mu.Unlock()

	log.WithFields(log.Fields{
		"operation":     operation,
		"model":         model,
		"input_tokens":  usage.PromptTokens,
		"output_tokens": usage.CompletionTokens,
		"cost_usd":      event.AmountUSD,
	}).Debug("Recorded AI usage")
	return event
}

func (p *pricedCostTracker) TotalCost(ctx context.Context) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

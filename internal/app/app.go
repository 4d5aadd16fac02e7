package app

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"tmrelay/internal/config"
	"tmrelay/internal/costtracker"
	"tmrelay/internal/services"
)

type App struct {
	Config *config.Config

	HTTPClient   *http.Client
	SearchClient services.SearchProvider
	Summarizer   services.Summarizer
	CostTracker  costtracker.CostTracker

	RelayService *services.RelayService
}

// NewApp validates cfg and wires the upstream clients into the relay.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{Config: cfg}
	app.initHTTPClient()
	if err := app.initSearchClient(); err != nil {
		return nil, err
	}
	app.initSummarizer()
	app.initRelayService()

	log.WithFields(log.Fields{
		"search_url":        cfg.Search.BaseURL,
		"summarization_url": cfg.Summarization.BaseURL,
		"model":             cfg.Summarization.Model,
		"max_results":       cfg.Summarization.MaxResults,
	}).Info("Application initialization complete.")
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initHTTPClient() {
	// One client shared by both providers; zero timeout keeps net/http defaults.
	a.HTTPClient = &http.Client{Timeout: a.Config.HTTP.Timeout}
}

func (a *App) initSearchClient() error {
	sc, err := services.NewTMSearchClient(a.Config.Search.BaseURL, a.Config.Search.APIKey, a.HTTPClient)
	if err != nil {
		return fmt.Errorf("init search client: %w", err)
	}
	a.SearchClient = sc
	return nil
}

func (a *App) initSummarizer() {
	cfg := a.Config.Summarization
	a.Summarizer = services.NewOpenRouterProvider(services.OpenRouterOptions{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Referer:    cfg.Referer,
		Title:      cfg.Title,
		HTTPClient: a.HTTPClient,
	})
	log.Infof("Initialized OpenRouter summarization provider (Model: %s)", cfg.Model)
}

func (a *App) initRelayService() {
	a.CostTracker = costtracker.New(a.Config.Pricing)
	a.RelayService = services.NewRelayService(a.SearchClient, a.Summarizer, a.CostTracker, a.Config.Summarization.MaxResults)
}

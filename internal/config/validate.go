package config

import (
	"fmt"
	"net/url"
	"strings"

	"tmrelay/internal/models"
)

/*
Validate checks the configuration once at startup so that a missing credential
or a broken endpoint is reported before the first request instead of during it:
- Both provider API keys
- Provider base URLs
- Summarization model and result limit
- Server port and CORS origins
- Pricing (if present)
*/
func (c *Config) Validate() error {
	if c.Search.APIKey == "" {
		return fmt.Errorf("%w: search.api_key (TM_AI_API_KEY) is required", models.ErrMissingAPIKey)
	}
	if c.Summarization.APIKey == "" {
		return fmt.Errorf("%w: summarization.api_key (OPENROUTER_API_KEY) is required", models.ErrMissingAPIKey)
	}

	if err := validateBaseURL("search.base_url", c.Search.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("summarization.base_url", c.Summarization.BaseURL); err != nil {
		return err
	}

	if c.Summarization.Model == "" {
		return fmt.Errorf("%w: summarization.model is required", models.ErrInvalidConfig)
	}
	if c.Summarization.MaxResults <= 0 {
		return fmt.Errorf("%w: summarization.max_results must be a positive integer", models.ErrInvalidConfig)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is required", models.ErrInvalidConfig)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("%w: http.timeout must not be negative", models.ErrInvalidConfig)
	}

	for _, origin := range c.CORS.AllowOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("%w: cors.allow_origins entry %q must be \"*\" or an http(s) origin", models.ErrInvalidConfig, origin)
		}
	}

	for model, price := range c.Pricing {
		if price.InputPerToken < 0 || price.OutputPerToken < 0 {
			return fmt.Errorf("%w: pricing for model '%s' has negative token cost", models.ErrInvalidConfig, model)
		}
	}

	return nil
}

func validateBaseURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s is required", models.ErrInvalidConfig, key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL, got %q", models.ErrInvalidConfig, key, raw)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PricingInfo holds cost details per token for a specific model.
type PricingInfo struct {
	InputPerToken  float64 `mapstructure:"input_per_token"`
	OutputPerToken float64 `mapstructure:"output_per_token"`
}

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Search struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"search"`

	Summarization struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Model      string `mapstructure:"model"`
		MaxResults int    `mapstructure:"max_results"`
		Referer    string `mapstructure:"referer"` // sent as HTTP-Referer for OpenRouter attribution
		Title      string `mapstructure:"title"`   // sent as X-Title
	} `mapstructure:"summarization"`

	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"` // zero means no client timeout
	} `mapstructure:"http"`

	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	// Pricing: map[model] = struct{input_per_token, output_per_token}
	Pricing map[string]PricingInfo `mapstructure:"pricing"`
}

const (
	DefaultSearchBaseURL        = "https://tmsearch.ai/api/search/"
	DefaultSummarizationBaseURL = "https://openrouter.ai/api/v1"
	DefaultSummarizationModel   = "openai/gpt-3.5-turbo"
	DefaultMaxResults           = 10
	DefaultPort                 = "5000"
)

// LoadConfig reads .env (if any), config.yaml (if any) and the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	// The relay has always been configured through these plain variable names.
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("search.api_key", "TM_AI_API_KEY")
	_ = v.BindEnv("summarization.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("summarization.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("http.timeout", "HTTP_TIMEOUT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the config file doesn't exist, env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("search.base_url", DefaultSearchBaseURL)
	v.SetDefault("summarization.base_url", DefaultSummarizationBaseURL)
	v.SetDefault("summarization.model", DefaultSummarizationModel)
	v.SetDefault("summarization.max_results", DefaultMaxResults)
	v.SetDefault("http.timeout", "0s")
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

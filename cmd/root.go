package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tmrelay/internal/app"
	"tmrelay/internal/config"
	"tmrelay/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tmrelay",
	Short: "Trademark search relay",
	Long: `tmrelay forwards a keyword to the tmsearch.ai trademark search API and asks an
OpenRouter model to summarize the top results.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logging.Setup(cfg.Log.Level, cfg.Log.Format)

		ctx := context.WithValue(cmd.Context(), configKey, cfg)

		// doctor reports on configuration problems instead of failing on them.
		if cmd.Name() != "doctor" {
			appInstance, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			ctx = context.WithValue(ctx, appKey, appInstance)
		}
		cmd.SetContext(ctx)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const (
	appKey    contextKey = "app"
	configKey contextKey = "config"
)

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not found in context")
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Print the effective configuration and check it for problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Listen address:      %s:%s\n", cfg.Server.Addr, cfg.Server.Port)
		fmt.Fprintf(out, "Search URL:          %s\n", cfg.Search.BaseURL)
		fmt.Fprintf(out, "Search API key:      %s\n", maskSecret(cfg.Search.APIKey))
		fmt.Fprintf(out, "Summarization URL:   %s\n", cfg.Summarization.BaseURL)
		fmt.Fprintf(out, "Summarization key:   %s\n", maskSecret(cfg.Summarization.APIKey))
		fmt.Fprintf(out, "Model:               %s\n", cfg.Summarization.Model)
		fmt.Fprintf(out, "Max results:         %d\n", cfg.Summarization.MaxResults)
		fmt.Fprintf(out, "HTTP timeout:        %s\n", cfg.HTTP.Timeout)
		fmt.Fprintf(out, "CORS origins:        %s\n", strings.Join(cfg.CORS.AllowOrigins, ", "))

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration check failed: %w", err)
		}
		fmt.Fprintln(out, "Configuration OK.")
		return nil
	},
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/config"
	"github.com/streamlit-community/component-directory/internal/enrich"
	"github.com/streamlit-community/component-directory/internal/httpclient"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch external metrics for the catalog",
	Long: `Fetch GitHub, PyPI and pypistats metrics for every catalog component.

Enrichment is best-effort: a failed fetch keeps the previous values and marks
the affected metrics bucket stale. Metrics fetched within the refresh window
are not refetched. A GitHub token is read from GH_TOKEN, GH_API_TOKEN or
GITHUB_TOKEN.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration error", "error", err)
			os.Exit(exitConfig)
		}

		if window, err := cmd.Flags().GetDuration("refresh-older-than"); err == nil && window > 0 {
			cfg.Enrich.RefreshOlderThan = window
		}

		os.Exit(runEnrich(context.Background(), cfg))
	},
}

func init() {
	enrichCmd.Flags().Duration("refresh-older-than", 0,
		"Refetch metrics older than this window (overrides configuration)")
}

// runEnrich enriches the compiled catalog in place. The returned value is the
// process exit code.
func runEnrich(ctx context.Context, cfg *config.Config) int {
	compiled, err := catalog.Load(cfg.CompiledPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}

	engine := enrich.NewEngine(cfg.Enrich.Concurrency,
		enrich.NewGitHubEnricher(newGitHubClient(ctx), cfg.Enrich.GitHubAPIBase),
		enrich.NewPyPIEnricher(httpclient.NewDefaultClient(0), cfg.Enrich.PyPIAPIBase),
		enrich.NewPyPIStatsEnricher(httpclient.NewDefaultClient(0), cfg.Enrich.PyPIStatsAPIBase),
	)

	summary := engine.Run(ctx, compiled, cfg.Enrich.RefreshOlderThan)

	if err := compiled.Validate(); err != nil {
		slog.Error("Enriched catalog failed validation", "error", err)
		return exitViolations
	}
	if err := catalog.Save(cfg.CompiledPath, compiled); err != nil {
		slog.Error("Failed to write catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}

	slog.Info("Enrichment complete",
		"fetched", summary.Fetched,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return exitOK
}

// newGitHubClient builds the GitHub HTTP client, authenticated when a token
// is present in the environment.
func newGitHubClient(ctx context.Context) httpclient.Client {
	token := enrich.GitHubTokenFromEnv()
	if token == "" {
		slog.Warn("No GitHub token found, unauthenticated requests are heavily rate-limited")
		return httpclient.NewDefaultClient(0)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	authClient := oauth2.NewClient(ctx, src)
	authClient.Timeout = httpclient.DefaultTimeout

	return httpclient.NewDefaultClient(0, httpclient.WithHTTPClient(authClient))
}

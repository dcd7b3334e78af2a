package app

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/config"
	"github.com/streamlit-community/component-directory/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Compute ranking scores for the catalog",
	Long: `Compute a ranking score for every catalog component from its metrics.

The weights and recency half-life are read from the ranking config file
(JSON with comments allowed); built-in defaults apply when the file is
missing.`,
	Run: func(_ *cobra.Command, _ []string) {
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration error", "error", err)
			os.Exit(exitConfig)
		}

		os.Exit(runRank(cfg))
	},
}

// runRank attaches ranking blocks to the compiled catalog. The returned value
// is the process exit code.
func runRank(cfg *config.Config) int {
	rankCfg, err := ranking.LoadConfig(cfg.RankingConfigPath)
	if err != nil {
		slog.Error("Failed to load ranking config", "path", cfg.RankingConfigPath, "error", err)
		return exitConfig
	}

	compiled, err := catalog.Load(cfg.CompiledPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}

	ranked := ranking.Apply(compiled, rankCfg, time.Now().UTC())

	if err := catalog.Save(cfg.CompiledPath, compiled); err != nil {
		slog.Error("Failed to write catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}

	slog.Info("Ranking complete", "components", ranked, "halfLifeDays", rankCfg.HalfLifeDays)
	return exitOK
}

package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/config"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile submissions into the catalog artifact",
	Long: `Compile every valid submission into the aggregate catalog artifact.

Metrics from the previous artifact are carried forward so a rebuild never
loses last-known-good enrichment data. With --skip-invalid, listings that
fail compilation are dropped from the artifact instead of failing the build.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration error", "error", err)
			os.Exit(exitConfig)
		}

		skipInvalid, err := cmd.Flags().GetBool("skip-invalid")
		if err != nil {
			slog.Error("Error retrieving skip-invalid flag", "error", err)
			os.Exit(exitConfig)
		}

		os.Exit(runBuild(cfg, skipInvalid))
	},
}

func init() {
	buildCmd.Flags().Bool("skip-invalid", false, "Drop invalid listings instead of failing the build")
}

// runBuild compiles the catalog and writes it to the configured path. The
// returned value is the process exit code.
func runBuild(cfg *config.Config, skipInvalid bool) int {
	previous, err := catalog.Load(cfg.CompiledPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("Failed to load previous catalog", "path", cfg.CompiledPath, "error", err)
			return exitConfig
		}
		slog.Info("No previous catalog, building from scratch", "path", cfg.CompiledPath)
	}

	var opts []catalog.BuilderOption
	if skipInvalid {
		opts = append(opts, catalog.WithSkipInvalid())
	}

	compiled, buildErrs, err := catalog.NewBuilder(opts...).Build(cfg.ListingsDir, previous)
	if err != nil {
		slog.Error("Build could not run", "dir", cfg.ListingsDir, "error", err)
		return exitConfig
	}

	for _, be := range buildErrs {
		fmt.Println(be.String())
	}
	if len(buildErrs) > 0 && !skipInvalid {
		slog.Error("Build failed", "errors", len(buildErrs))
		return exitViolations
	}

	if err := compiled.Validate(); err != nil {
		slog.Error("Compiled catalog failed validation", "error", err)
		return exitViolations
	}

	if err := catalog.Save(cfg.CompiledPath, compiled); err != nil {
		slog.Error("Failed to write catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}

	slog.Info("Catalog built",
		"path", cfg.CompiledPath,
		"components", len(compiled.Components),
		"skipped", len(buildErrs))
	return exitOK
}

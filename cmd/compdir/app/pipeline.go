package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/config"
	"github.com/streamlit-community/component-directory/internal/status"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run validate, build, enrich and rank in sequence",
	Long: `Run the full publication pipeline: validate the submissions, compile the
catalog, enrich it with external metrics and compute rankings.

The pipeline stops at the first failing step. Each run is recorded in the
status file with a unique run id and per-step outcomes. --skip-enrich skips
the network-bound enrichment step; the artifact keeps its carried-forward
metrics.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration error", "error", err)
			os.Exit(exitConfig)
		}

		skipEnrich, err := cmd.Flags().GetBool("skip-enrich")
		if err != nil {
			slog.Error("Error retrieving skip-enrich flag", "error", err)
			os.Exit(exitConfig)
		}

		os.Exit(runPipeline(context.Background(), cfg, skipEnrich))
	},
}

func init() {
	pipelineCmd.Flags().Bool("skip-enrich", false, "Skip the enrichment step")
}

// runPipeline executes the publication steps in order, persisting a run
// record after every step. The returned value is the process exit code.
func runPipeline(ctx context.Context, cfg *config.Config, skipEnrich bool) int {
	run := status.NewRunStatus()
	persistence := status.NewFilePersistence(cfg.StatusPath)
	slog.Info("Pipeline run started", "run_id", run.RunID)

	code := exitOK
	steps := []struct {
		name string
		skip bool
		fn   func() int
	}{
		{name: "validate", fn: func() int { return runValidate(cfg, cfg.ListingsDir) }},
		{name: "build", fn: func() int { return runBuild(cfg, false) }},
		{name: "enrich", skip: skipEnrich, fn: func() int { return runEnrich(ctx, cfg) }},
		{name: "rank", fn: func() int { return runRank(cfg) }},
		{name: "verify", fn: func() int { return verifyArtifact(cfg) }},
	}

	for _, step := range steps {
		if step.skip {
			run.Record(step.name, status.StepSkipped, "")
			continue
		}
		if stepCode := step.fn(); stepCode != exitOK {
			run.Record(step.name, status.StepFailed, fmt.Sprintf("exit code %d", stepCode))
			code = stepCode
			break
		}
		run.Record(step.name, status.StepOK, "")
	}

	run.Finish()
	if err := persistence.Save(ctx, run); err != nil {
		slog.Error("Failed to persist run status", "path", cfg.StatusPath, "error", err)
		if code == exitOK {
			code = exitConfig
		}
	}

	if run.Success {
		slog.Info("Pipeline run complete", "run_id", run.RunID)
	} else {
		slog.Error("Pipeline run failed", "run_id", run.RunID)
	}
	return code
}

// verifyArtifact re-validates the published artifact as the last pipeline
// step, so a bug in any earlier step cannot ship a broken catalog.
func verifyArtifact(cfg *config.Config) int {
	compiled, err := catalog.Load(cfg.CompiledPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CompiledPath, "error", err)
		return exitConfig
	}
	if err := compiled.Validate(); err != nil {
		slog.Error("Compiled catalog failed validation", "error", err)
		return exitViolations
	}
	return exitOK
}

package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/streamlit-community/component-directory/internal/config"
	"github.com/streamlit-community/component-directory/internal/policy"
	"github.com/streamlit-community/component-directory/internal/validators"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate component submission files",
	Long: `Validate every component submission document in the listings directory.

Each document is checked against the submission schema, the URL content
policy, and cross-document uniqueness of the GitHub repository identity.
All violations across all files are reported in a single run.

Exit codes: 0 when every document is valid, 1 when any violation is found,
2 on configuration errors (e.g. missing listings directory).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration error", "error", err)
			os.Exit(exitConfig)
		}

		dir := cfg.ListingsDir
		if flagDir, err := cmd.Flags().GetString("dir"); err == nil && flagDir != "" {
			dir = flagDir
		}
		if len(args) == 1 {
			dir = args[0]
		}

		os.Exit(runValidate(cfg, dir))
	},
}

func init() {
	validateCmd.Flags().String("dir", "", "Listings directory (overrides configuration)")
}

// runValidate validates the corpus under dir and reports the result. The
// returned value is the process exit code.
func runValidate(cfg *config.Config, dir string) int {
	runner := validators.NewRunner(newPolicyChecker(cfg))

	report, err := runner.Run(dir)
	if err != nil {
		slog.Error("Validation could not run", "dir", dir, "error", err)
		return exitConfig
	}

	printReport(report)

	if !report.Valid() {
		slog.Error("Validation failed",
			"files", len(report.Results),
			"invalid_files", report.InvalidFiles(),
			"violations", report.TotalViolations())
		return exitViolations
	}

	slog.Info("Validation passed", "files", len(report.Results))
	return exitOK
}

// newPolicyChecker applies the configuration overrides to the content policy.
func newPolicyChecker(cfg *config.Config) *policy.Checker {
	var opts []policy.Option
	if cfg.Policy.MaxDocumentBytes != 0 {
		opts = append(opts, policy.WithMaxDocumentBytes(cfg.Policy.MaxDocumentBytes))
	}
	if len(cfg.Policy.DeniedImageHosts) > 0 {
		opts = append(opts, policy.WithDeniedImageHosts(cfg.Policy.DeniedImageHosts...))
	}
	return policy.New(opts...)
}

// printReport writes per-file diagnostics and a summary table to stdout.
func printReport(report *validators.Report) {
	for _, result := range report.Results {
		for _, v := range result.Violations {
			fmt.Printf("%s: %s: [%s] %s\n", result.File, v.Path, v.Category, v.Message)
		}
	}
	if report.TotalViolations() > 0 {
		fmt.Println()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("File", "Violations", "Status")
	for _, result := range report.Results {
		status := "ok"
		if !result.Valid() {
			status = "invalid"
		}
		_ = table.Append([]string{result.File, strconv.Itoa(len(result.Violations)), status})
	}
	if err := table.Render(); err != nil {
		slog.Error("Failed to render summary table", "error", err)
	}
}

package validators

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/streamlit-community/component-directory/internal/listing"
	"github.com/streamlit-community/component-directory/internal/policy"
	"github.com/streamlit-community/component-directory/internal/schema"
)

// slugPattern is the URL-safe naming rule for listing files.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*\.json$`)

// Runner validates every listing document in a corpus directory. Validation
// is a pure, synchronous, single-pass function of the input corpus; the only
// cross-document state is the uniqueness accumulator built during the run.
type Runner struct {
	policy *policy.Checker
}

// NewRunner creates a corpus runner using the given policy checker.
func NewRunner(policyChecker *policy.Checker) *Runner {
	return &Runner{policy: policyChecker}
}

// Run validates all *.json documents under dir and returns the aggregated
// report. A single document's failure never stops processing of the others.
// A returned error indicates a configuration problem (missing or unreadable
// corpus directory), not a validation failure.
func (r *Runner) Run(dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	report := &Report{Results: make([]FileResult, 0, len(files))}

	// Uniqueness accumulator: normalized repo key -> file names.
	byRepoKey := make(map[string][]string)
	resultIndex := make(map[string]int, len(files))

	for _, name := range files {
		result := FileResult{File: name}

		if !slugPattern.MatchString(name) {
			result.Violations = append(result.Violations, Violation{
				Category: CategoryPolicy,
				Path:     "$",
				Message:  "file name must be a lowercase URL-safe slug ending in .json",
			})
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			result.Violations = append(result.Violations, Violation{
				Category: CategoryMalformed,
				Path:     "$",
				Message:  fmt.Sprintf("could not read file: %v", err),
			})
			resultIndex[name] = len(report.Results)
			report.Results = append(report.Results, result)
			continue
		}

		schemaIssues, err := schema.Check(data)
		if err != nil {
			// Malformed JSON is a document-level fatal violation for this
			// file; policy checks need the raw fields and are skipped too.
			result.Violations = append(result.Violations, Violation{
				Category: CategoryMalformed,
				Path:     "$",
				Message:  err.Error(),
			})
			resultIndex[name] = len(report.Results)
			report.Results = append(report.Results, result)
			continue
		}
		for _, issue := range schemaIssues {
			result.Violations = append(result.Violations, Violation{
				Category: CategorySchema,
				Path:     issue.Path,
				Message:  issue.Message,
			})
		}

		for _, issue := range r.policy.Check(data) {
			result.Violations = append(result.Violations, Violation{
				Category: CategoryPolicy,
				Path:     issue.Path,
				Message:  issue.Message,
			})
		}

		// Feed the uniqueness accumulator with whatever parses as a GitHub
		// repo URL; the policy checker already reported malformed ones.
		if doc, err := listing.Parse(data); err == nil && doc.Links.GitHub != "" {
			if key, err := listing.RepoKey(doc.Links.GitHub); err == nil {
				byRepoKey[key] = append(byRepoKey[key], name)
			}
		}

		resultIndex[name] = len(report.Results)
		report.Results = append(report.Results, result)
	}

	// Corpus-level uniqueness: flag every member of a duplicate group.
	for key, group := range byRepoKey {
		if len(group) < 2 {
			continue
		}
		for _, name := range group {
			others := make([]string, 0, len(group)-1)
			for _, other := range group {
				if other != name {
					others = append(others, other)
				}
			}
			idx := resultIndex[name]
			report.Results[idx].Violations = append(report.Results[idx].Violations, Violation{
				Category: CategoryCorpus,
				Path:     "links.github",
				Message: fmt.Sprintf("duplicate component identity %q also submitted in %s",
					key, strings.Join(others, ", ")),
			})
		}
	}

	for i := range report.Results {
		sortViolations(report.Results[i].Violations)
	}

	return report, nil
}

// Package validators runs the full set of submission checks over a corpus of
// listing documents and aggregates the results into a single report.
package validators

import "sort"

// Category classifies a violation for reporting purposes.
type Category string

const (
	// CategoryMalformed marks documents that could not be parsed at all.
	CategoryMalformed Category = "malformed"

	// CategorySchema marks field-level constraint failures against the
	// submission schema.
	CategorySchema Category = "schema"

	// CategoryPolicy marks content policy failures: URL schemes, image
	// hardening, document size.
	CategoryPolicy Category = "policy"

	// CategoryCorpus marks violations that involve more than one document,
	// such as duplicate component identities.
	CategoryCorpus Category = "corpus"
)

// Violation is a single rule failure tied to one document.
type Violation struct {
	Category Category `json:"category"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// FileResult collects all violations found for one document. An empty
// Violations slice means the document passed every check.
type FileResult struct {
	File       string      `json:"file"`
	Violations []Violation `json:"violations"`
}

// Valid reports whether the document passed every check.
func (r *FileResult) Valid() bool {
	return len(r.Violations) == 0
}

// Report is the immutable result of validating one corpus. A fresh Report is
// produced per run; nothing is carried across invocations.
type Report struct {
	Results []FileResult `json:"results"`
}

// Valid reports whether every document in the corpus passed.
func (r *Report) Valid() bool {
	for i := range r.Results {
		if !r.Results[i].Valid() {
			return false
		}
	}
	return true
}

// InvalidFiles returns how many documents carry at least one violation.
func (r *Report) InvalidFiles() int {
	n := 0
	for i := range r.Results {
		if !r.Results[i].Valid() {
			n++
		}
	}
	return n
}

// TotalViolations returns the number of violations across the corpus.
func (r *Report) TotalViolations() int {
	n := 0
	for i := range r.Results {
		n += len(r.Results[i].Violations)
	}
	return n
}

// sortViolations orders violations by (path, message) for stable output.
func sortViolations(violations []Violation) {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Path != violations[j].Path {
			return violations[i].Path < violations[j].Path
		}
		return violations[i].Message < violations[j].Message
	})
}

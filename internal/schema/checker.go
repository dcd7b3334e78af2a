package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/streamlit-community/component-directory/internal/listing"
)

// Issue is a single field-level schema violation.
type Issue struct {
	// Path is a compact JSONPath-ish location, e.g. "$", "author.github",
	// "categories[0]".
	Path string

	// Message is a human-readable description of the violated constraint.
	Message string
}

var printer = message.NewPrinter(language.English)

// Check validates one raw listing document against the submission schema and
// returns every field-level violation found, not just the first.
//
// Documents whose schemaVersion is not the supported version are rejected
// outright with a single violation; no further constraints are evaluated for
// them. A returned error means the document could not be checked at all
// (malformed JSON), which callers report as a document-level fatal violation.
func Check(data []byte) ([]Issue, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// Fail fast on forward-incompatible documents.
	if v := gjson.GetBytes(data, "schemaVersion"); v.Exists() {
		if v.Type != gjson.Number || v.Int() != int64(listing.SupportedSchemaVersion) {
			return []Issue{{
				Path: "schemaVersion",
				Message: fmt.Sprintf("unsupported schema version %s (supported: %d)",
					v.Raw, listing.SupportedSchemaVersion),
			}}, nil
		}
	}

	sch, err := Compile()
	if err != nil {
		return nil, err
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var issues []Issue
	flatten(verr, &issues)
	return dedupe(issues), nil
}

// flatten collects leaf causes of the validation error tree. Intermediate
// nodes repeat their children's locations and only add noise.
func flatten(err *jsonschema.ValidationError, out *[]Issue) {
	if len(err.Causes) == 0 {
		*out = append(*out, Issue{
			Path:    formatPath(err.InstanceLocation),
			Message: err.ErrorKind.LocalizedString(printer),
		})
		return
	}
	for _, cause := range err.Causes {
		flatten(cause, out)
	}
}

// formatPath renders an instance location as a compact JSONPath-ish string,
// matching the diagnostics format used across the directory tooling.
func formatPath(loc []string) string {
	if len(loc) == 0 {
		return "$"
	}

	var b strings.Builder
	for _, part := range loc {
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[")
			b.WriteString(part)
			b.WriteString("]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

// dedupe drops repeated (path, message) pairs, which show up when several
// subschemas report the same root-level problem.
func dedupe(issues []Issue) []Issue {
	seen := make(map[Issue]struct{}, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		if _, ok := seen[issue]; ok {
			continue
		}
		seen[issue] = struct{}{}
		out = append(out, issue)
	}
	return out
}

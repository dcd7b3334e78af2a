// Package listing defines the component listing submission format.
//
// A ComponentListing is one contributor-submitted JSON document describing an
// externally hosted component. Listings are validated at submission time and
// compiled into the catalog artifact once accepted; they are never mutated in
// place.
package listing

import (
	"encoding/json"
	"fmt"
)

// SupportedSchemaVersion is the only schemaVersion currently accepted.
// Documents carrying any other version are rejected without running further
// checks so that forward-incompatible submissions fail fast.
const SupportedSchemaVersion = 1

// ComponentListing is one contributor-submitted component record.
type ComponentListing struct {
	// SchemaVersion must equal SupportedSchemaVersion.
	SchemaVersion int `json:"schemaVersion"`

	// Title is the display name of the component (1-80 characters).
	Title string `json:"title"`

	// Description is an optional short description (1-280 characters).
	Description string `json:"description,omitempty"`

	Author  Author  `json:"author"`
	Links   Links   `json:"links"`
	Media   *Media  `json:"media,omitempty"`
	Install Install `json:"install"`

	// Governance carries directory-level switches for the listing.
	Governance *Governance `json:"governance,omitempty"`

	// Categories is a non-empty set drawn from the fixed taxonomy.
	Categories []string `json:"categories"`
}

// Author identifies the submitting contributor.
type Author struct {
	// GitHub is the contributor's GitHub handle, without a leading "@".
	GitHub string `json:"github"`
}

// Links holds the external references for a listing. GitHub is the identity
// of the component and must be a canonical https://github.com/<owner>/<repo>
// URL; PyPI is a bare package name, not a URL.
type Links struct {
	GitHub string `json:"github"`
	PyPI   string `json:"pypi,omitempty"`
	Demo   string `json:"demo,omitempty"`
	Docs   string `json:"docs,omitempty"`
}

// Media holds optional presentation assets. Image may be explicitly null in
// the submitted JSON, which is treated the same as absent.
type Media struct {
	Image *string `json:"image"`
}

// Install describes how to install the component.
type Install struct {
	// Pip is the literal install command, e.g. "pip install streamlit-foo".
	Pip string `json:"pip"`
}

// Governance carries moderation switches applied by directory maintainers.
type Governance struct {
	// Enabled controls whether the listing is surfaced in the compiled
	// catalog. Nil means enabled.
	Enabled *bool `json:"enabled,omitempty"`
}

// Parse decodes a single listing document. Unknown fields are rejected by the
// schema checker rather than here, so Parse stays usable for documents that
// still need diagnostics.
func Parse(data []byte) (*ComponentListing, error) {
	var l ComponentListing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}
	return &l, nil
}

// Enabled reports whether the listing should appear in the compiled catalog.
func (l *ComponentListing) Enabled() bool {
	if l.Governance == nil || l.Governance.Enabled == nil {
		return true
	}
	return *l.Governance.Enabled
}

// ImageURL returns the media image URL, or "" when absent or null.
func (l *ComponentListing) ImageURL() string {
	if l.Media == nil || l.Media.Image == nil {
		return ""
	}
	return *l.Media.Image
}

// PipCommand returns the install command for the compiled catalog. It prefers
// the literal install.pip command and falls back to "pip install <pypi>" when
// only a package name was submitted.
func (l *ComponentListing) PipCommand() string {
	if l.Install.Pip != "" {
		return l.Install.Pip
	}
	if l.Links.PyPI != "" {
		return "pip install " + l.Links.PyPI
	}
	return ""
}

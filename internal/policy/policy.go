// Package policy enforces content-level rules on listing documents beyond
// structural schema validation: URL scheme allow-listing, the canonical
// GitHub repository URL shape, image URL hardening, and the document size
// guardrail.
//
// Preview images must stay stable over time. The most common sources of
// broken images are signed/expiring URLs (S3/GCS/CloudFront style query
// parameters) and proxy URLs such as camo.githubusercontent.com, which are
// not the canonical image source. Those constraints apply only to
// media.image, not to general links.
package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMaxDocumentBytes is the serialized size cap for a single listing.
const DefaultMaxDocumentBytes = 50_000

// deniedSchemes are rejected for every URL-valued field regardless of any
// other rule.
var deniedSchemes = map[string]struct{}{
	"javascript": {},
	"data":       {},
	"file":       {},
}

// defaultDeniedImageHosts are proxy/caching hosts that must not serve
// media.image.
var defaultDeniedImageHosts = map[string]struct{}{
	"camo.githubusercontent.com": {},
}

// defaultDeniedImageQueryKeys are query parameter names, compared
// case-insensitively, that identify signed/expiring URLs.
var defaultDeniedImageQueryKeys = map[string]struct{}{
	// AWS SigV4
	"x-amz-algorithm":     {},
	"x-amz-credential":    {},
	"x-amz-date":          {},
	"x-amz-expires":       {},
	"x-amz-signature":     {},
	"x-amz-signedheaders": {},
	// GCS signed URLs
	"x-goog-algorithm":  {},
	"x-goog-credential": {},
	"x-goog-date":       {},
	"x-goog-expires":    {},
	"x-goog-signature":  {},
	// CloudFront (common)
	"expires":     {},
	"signature":   {},
	"key-pair-id": {},
	"policy":      {},
}

// Issue is a single policy violation.
type Issue struct {
	// Path is the JSON path of the offending field, or "$" for
	// document-level violations such as the size cap.
	Path string

	// Message is a human-readable description of the violated rule.
	Message string
}

// Option configures a Checker.
type Option func(*Checker)

// WithMaxDocumentBytes overrides the serialized size cap. Zero or negative
// disables the check.
func WithMaxDocumentBytes(n int) Option {
	return func(c *Checker) {
		c.maxDocumentBytes = n
	}
}

// WithDeniedImageHosts adds hosts to the media.image host deny-list.
func WithDeniedImageHosts(hosts ...string) Option {
	return func(c *Checker) {
		for _, h := range hosts {
			c.deniedImageHosts[strings.ToLower(h)] = struct{}{}
		}
	}
}

// Checker validates one document at a time; it carries no state between
// documents.
type Checker struct {
	maxDocumentBytes     int
	deniedImageHosts     map[string]struct{}
	deniedImageQueryKeys map[string]struct{}
}

// New creates a policy checker with the default directory policy.
func New(opts ...Option) *Checker {
	c := &Checker{
		maxDocumentBytes:     DefaultMaxDocumentBytes,
		deniedImageHosts:     make(map[string]struct{}, len(defaultDeniedImageHosts)),
		deniedImageQueryKeys: defaultDeniedImageQueryKeys,
	}
	for h := range defaultDeniedImageHosts {
		c.deniedImageHosts[h] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check scans every URL-valued field of the raw document and applies the
// scheme, shape, and image policies, plus the document size cap. Fields are
// probed on the raw JSON so policy diagnostics are produced even for
// documents that fail schema validation.
func (c *Checker) Check(data []byte) []Issue {
	var issues []Issue

	if c.maxDocumentBytes > 0 && len(data) > c.maxDocumentBytes {
		issues = append(issues, Issue{
			Path: "$",
			Message: fmt.Sprintf("document too large (%d bytes, max %d bytes)",
				len(data), c.maxDocumentBytes),
		})
	}

	if gh := gjson.GetBytes(data, "links.github"); gh.Type == gjson.String && gh.Str != "" {
		issues = append(issues, c.checkGitHubURL(gh.Str)...)
	}

	for _, field := range []string{"links.demo", "links.docs"} {
		v := gjson.GetBytes(data, field)
		if v.Type != gjson.String || v.Str == "" {
			continue
		}
		if msg := checkHTTPSURL(v.Str); msg != "" {
			issues = append(issues, Issue{Path: field, Message: msg})
		}
	}

	if img := gjson.GetBytes(data, "media.image"); img.Type == gjson.String && img.Str != "" {
		issues = append(issues, c.checkImageURL(img.Str)...)
	}

	return issues
}

// checkGitHubURL enforces https plus the exact owner/repo shape: two path
// segments, no query string, no fragment, no trailing slash.
func (c *Checker) checkGitHubURL(raw string) []Issue {
	if msg := checkHTTPSURL(raw); msg != "" {
		return []Issue{{Path: "links.github", Message: msg}}
	}

	u, _ := url.Parse(raw)
	if !strings.EqualFold(u.Host, "github.com") {
		return []Issue{{
			Path:    "links.github",
			Message: fmt.Sprintf("must point at github.com, got host %q", u.Host),
		}}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" ||
		strings.HasSuffix(u.Path, "/") || u.RawQuery != "" || u.Fragment != "" {
		return []Issue{{
			Path:    "links.github",
			Message: "must be exactly https://github.com/<owner>/<repo> with no extra path, query, or fragment",
		}}
	}

	return nil
}

func (c *Checker) checkImageURL(raw string) []Issue {
	if msg := checkHTTPSURL(raw); msg != "" {
		return []Issue{{Path: "media.image", Message: msg}}
	}

	u, _ := url.Parse(raw)
	host := strings.ToLower(u.Host)
	if _, denied := c.deniedImageHosts[host]; denied {
		return []Issue{{
			Path:    "media.image",
			Message: fmt.Sprintf("image host %q is a brittle proxy; use a stable upstream URL instead", host),
		}}
	}

	if key := c.deniedQueryKey(u.RawQuery); key != "" {
		return []Issue{{
			Path:    "media.image",
			Message: fmt.Sprintf("signed/expiring image URLs are not allowed (query parameter %q detected)", key),
		}}
	}

	return nil
}

// deniedQueryKey returns the first signing-related query parameter name found
// in the raw query string, or "".
func (c *Checker) deniedQueryKey(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable query strings never match the signing allow-list, so
		// treat the URL as suspect.
		return rawQuery
	}
	for key := range values {
		if _, denied := c.deniedImageQueryKeys[strings.ToLower(strings.TrimSpace(key))]; denied {
			return key
		}
	}
	return ""
}

// checkHTTPSURL returns a violation message when the value is not a
// well-formed https URL, or "" when it passes.
func checkHTTPSURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if _, denied := deniedSchemes[scheme]; denied {
		return fmt.Sprintf("URL scheme %q is not allowed", scheme)
	}
	if scheme != "https" || u.Host == "" {
		return "URL must use the https:// scheme"
	}
	return ""
}

package enrich

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/httpclient"
	"github.com/streamlit-community/component-directory/internal/listing"
)

// DefaultGitHubAPIBase is the GitHub REST API endpoint.
const DefaultGitHubAPIBase = "https://api.github.com"

// tokenEnvVars are checked in order for a GitHub API token.
var tokenEnvVars = []string{"GH_TOKEN", "GH_API_TOKEN", "GITHUB_TOKEN"}

// GitHubTokenFromEnv returns the first GitHub token found in the environment,
// or "" when none is set. Unauthenticated requests work but are rate-limited
// hard enough that CI runs should always carry a token.
func GitHubTokenFromEnv() string {
	for _, key := range tokenEnvVars {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// linkLastRE extracts the rel="last" target from a Link pagination header.
var linkLastRE = regexp.MustCompile(`<([^>]+)>;\s*rel="last"`)

// GitHubEnricher fetches repository metrics from the GitHub REST API.
type GitHubEnricher struct {
	client  httpclient.Client
	apiBase string
}

// NewGitHubEnricher creates a GitHub enricher. apiBase defaults to the public
// API when empty.
func NewGitHubEnricher(client httpclient.Client, apiBase string) *GitHubEnricher {
	if apiBase == "" {
		apiBase = DefaultGitHubAPIBase
	}
	return &GitHubEnricher{client: client, apiBase: apiBase}
}

// Name implements Enricher.
func (*GitHubEnricher) Name() string { return "github" }

// Needs implements Enricher.
func (*GitHubEnricher) Needs(comp *catalog.Component, refreshOlderThan time.Duration, now time.Time) bool {
	gh := &comp.Metrics.GitHub
	return needsRefetch(gh.FetchedAt, gh.IsStale, refreshOlderThan, now)
}

func (e *GitHubEnricher) headers() map[string]string {
	return map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
}

// Enrich implements Enricher. On failure the previous values are kept and the
// bucket is marked stale.
func (e *GitHubEnricher) Enrich(ctx context.Context, comp *catalog.Component, now time.Time) error {
	owner, repo, err := listing.ParseOwnerRepo(comp.GitHubURL)
	if err != nil {
		comp.Metrics.GitHub.IsStale = boolPtr(true)
		return fmt.Errorf("cannot enrich %s: %w", comp.GitHubURL, err)
	}

	repoURL := fmt.Sprintf("%s/repos/%s/%s", e.apiBase, owner, repo)
	resp, err := e.client.Get(ctx, repoURL, e.headers())
	if err != nil {
		comp.Metrics.GitHub.IsStale = boolPtr(true)
		return fmt.Errorf("repo fetch failed: %w", err)
	}

	gh := &comp.Metrics.GitHub
	body := resp.Body
	if stars := gjson.GetBytes(body, "stargazers_count"); stars.Type == gjson.Number {
		gh.Stars = int(stars.Int())
	}
	if forks := gjson.GetBytes(body, "forks_count"); forks.Type == gjson.Number {
		v := int(forks.Int())
		gh.Forks = &v
	}
	if issues := gjson.GetBytes(body, "open_issues_count"); issues.Type == gjson.Number {
		v := int(issues.Int())
		gh.OpenIssues = &v
	}
	if pushed := gjson.GetBytes(body, "pushed_at"); pushed.Type == gjson.String {
		v := pushed.Str
		gh.LastPushAt = &v
	}

	if count, err := e.fetchContributorsCount(ctx, owner, repo); err == nil {
		gh.ContributorsCount = &count
	}
	// A failed contributors fetch keeps the previous count; the repo call
	// already succeeded so the bucket stays fresh.

	gh.FetchedAt = timestamp(now)
	gh.IsStale = boolPtr(false)
	return nil
}

// fetchContributorsCount counts contributors without paging through them:
// request one per page and read the last page number off the Link header.
func (e *GitHubEnricher) fetchContributorsCount(ctx context.Context, owner, repo string) (int, error) {
	contribURL := fmt.Sprintf("%s/repos/%s/%s/contributors?per_page=1", e.apiBase, owner, repo)
	resp, err := e.client.Get(ctx, contribURL, e.headers())
	if err != nil {
		return 0, fmt.Errorf("contributors fetch failed: %w", err)
	}

	if last := parseLastPage(resp.Header.Get("Link")); last >= 0 {
		return last, nil
	}

	// No Link header: the single page holds everything.
	if result := gjson.ParseBytes(resp.Body); result.IsArray() && len(result.Array()) >= 1 {
		return 1, nil
	}
	return 0, nil
}

// parseLastPage extracts the page number of the rel="last" link, or -1.
func parseLastPage(link string) int {
	m := linkLastRE.FindStringSubmatch(link)
	if m == nil {
		return -1
	}
	u, err := url.Parse(m[1])
	if err != nil {
		return -1
	}
	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 0 {
		return -1
	}
	return page
}

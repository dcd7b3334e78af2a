package listing

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeGitHubRepoURL canonicalizes a GitHub repository URL to
// https://github.com/<owner>/<repo> with no trailing path or slash.
// It accepts URLs with extra path segments (tree/blob links) and strips them;
// the stricter exact-shape requirement for links.github is enforced by the
// policy checker, not here.
func NormalizeGitHubRepoURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "https" || !strings.EqualFold(u.Host, "github.com") {
		return "", fmt.Errorf("not a GitHub HTTPS URL: %s", raw)
	}

	parts := splitPath(u.Path)
	if len(parts) < 2 {
		return "", fmt.Errorf("not a GitHub repository URL: %s", raw)
	}

	return "https://github.com/" + parts[0] + "/" + parts[1], nil
}

// ParseOwnerRepo extracts the owner and repository segments from a GitHub
// repository URL.
func ParseOwnerRepo(raw string) (owner, repo string, err error) {
	canonical, err := NormalizeGitHubRepoURL(raw)
	if err != nil {
		return "", "", err
	}
	parts := splitPath(strings.TrimPrefix(canonical, "https://github.com"))
	return parts[0], parts[1], nil
}

// RepoKey returns the stable identity "owner/repo" for a GitHub repository
// URL, lowercased. GitHub treats owner and repository names
// case-insensitively, so the whole key is folded, not just the host.
func RepoKey(raw string) (string, error) {
	owner, repo, err := ParseOwnerRepo(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(owner) + "/" + strings.ToLower(repo), nil
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

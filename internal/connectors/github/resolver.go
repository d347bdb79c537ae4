package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

const (
	// Host is the path segment that identifies a GitHub URL.
	Host = "github.com"

	// RawContentBase is the prefix of raw content URLs.
	RawContentBase = "https://raw.githubusercontent.com/"

	// DefaultBranch is assumed when a URL names no branch.
	DefaultBranch = "main"

	// ReadmeFile is the file ingested for every repository.
	ReadmeFile = "README.md"

	readmeSuffix = "blob/" + DefaultBranch + "/" + ReadmeFile
)

// NormaliseRepoURL strips trailing slashes and appends /blob/main/README.md
// unless the URL already references it.
func NormaliseRepoURL(repoURL string) string {
	u := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	if strings.Contains(u, readmeSuffix) {
		return u
	}
	return u + "/" + readmeSuffix
}

// RawContentURL translates a browsable README URL into its raw content URL.
// Everything after the github.com segment is kept except "blob".
func RawContentURL(readmeURL string) (string, error) {
	parts := strings.Split(readmeURL, "/")
	host := -1
	for i, p := range parts {
		if p == Host {
			host = i
			break
		}
	}
	if host < 0 {
		return "", fmt.Errorf("%w: %q has no %s segment", domain.ErrInvalidRepoURL, readmeURL, Host)
	}

	rest := make([]string, 0, len(parts)-host-1)
	for _, p := range parts[host+1:] {
		if p == "blob" {
			continue
		}
		rest = append(rest, p)
	}
	return RawContentBase + strings.Join(rest, "/"), nil
}

// RepoRef identifies a README on a branch of a repository.
type RepoRef struct {
	Owner  string
	Repo   string
	Branch string
}

// ReadmeURL returns the browsable README URL.
func (r RepoRef) ReadmeURL() string {
	return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s", Host, r.Owner, r.Repo, r.Branch, ReadmeFile)
}

// RepoURL returns the repository home page.
func (r RepoRef) RepoURL() string {
	return fmt.Sprintf("https://%s/%s/%s", Host, r.Owner, r.Repo)
}

// ParseReadmeURL strictly validates a user-supplied repository or README URL.
//
// A repository URL maps to its README on the default branch. A README blob
// URL keeps its branch. Anything else fails with domain.ErrInvalidRepoURL.
func ParseReadmeURL(input string) (RepoRef, error) {
	clean := strings.TrimRight(strings.TrimSpace(input), "/")
	if !strings.Contains(clean, Host) {
		return RepoRef{}, fmt.Errorf("%w: please enter a valid GitHub URL", domain.ErrInvalidRepoURL)
	}

	u, err := url.Parse(clean)
	if err != nil || u.Host == "" {
		return RepoRef{}, fmt.Errorf("%w: please enter a valid GitHub URL", domain.ErrInvalidRepoURL)
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepoRef{}, fmt.Errorf("%w: please enter a valid GitHub repository URL", domain.ErrInvalidRepoURL)
	}

	ref := RepoRef{Owner: parts[0], Repo: parts[1], Branch: DefaultBranch}

	blob, readme := indexOf(parts, "blob"), indexOf(parts, ReadmeFile)
	if blob >= 0 && readme >= 0 {
		if blob < 2 || readme != blob+2 {
			return RepoRef{}, fmt.Errorf("%w: invalid README URL format", domain.ErrInvalidRepoURL)
		}
		ref.Branch = parts[blob+1]
	}
	return ref, nil
}

// RepoFromSourceURL extracts owner and repository from a stored README URL
// of the form https://github.com/<owner>/<repo>/...
func RepoFromSourceURL(sourceURL string) (owner, repo string, ok bool) {
	parts := strings.Split(sourceURL, "/")
	if len(parts) < 5 || parts[3] == "" || parts[4] == "" {
		return "", "", false
	}
	return parts[3], parts[4], true
}

func indexOf(parts []string, s string) int {
	for i, p := range parts {
		if p == s {
			return i
		}
	}
	return -1
}

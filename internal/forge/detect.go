package forge

import (
	"context"
	"strings"

	"emperror.dev/errors"
	giturls "github.com/chainguard-dev/git-urls"

	"github.com/diamond-stack/diamond/internal/gitshell"
)

// Backend identifies which host family a repository's origin points at.
type Backend string

const (
	BackendGitHub    Backend = "github"
	BackendGitLab    Backend = "gitlab"
	BackendBitbucket Backend = "bitbucket"
	BackendGitea     Backend = "gitea"
)

// Detection carries the host, base URL, and repo slug inferred from origin.
type Detection struct {
	Backend  Backend
	BaseURL  string
	RepoSlug string
}

// Detect infers the forge backend from the repository's configured remote,
// trying GitHub, GitLab, Bitbucket, then Gitea host substrings in that
// order; falls back to GitHub when nothing matches.
func Detect(ctx context.Context, repo *gitshell.Repo) (*Detection, error) {
	origin, err := repo.Origin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine repository origin")
	}
	u, err := giturls.Parse(origin.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse remote URL %q", origin.URL)
	}

	host := strings.ToLower(u.Hostname())
	baseURL := u.Scheme + "://" + u.Host
	if u.Scheme == "" {
		baseURL = "https://" + u.Host
	}

	backend := detectBackendFromHost(host)
	return &Detection{Backend: backend, BaseURL: baseURL, RepoSlug: origin.RepoSlug}, nil
}

func detectBackendFromHost(host string) Backend {
	switch {
	case strings.Contains(host, "github"):
		return BackendGitHub
	case strings.Contains(host, "gitlab"):
		return BackendGitLab
	case strings.Contains(host, "bitbucket"):
		return BackendBitbucket
	case strings.Contains(host, "gitea"):
		return BackendGitea
	default:
		return BackendGitHub
	}
}

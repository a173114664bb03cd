package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/config"
	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/forge/github"
	"github.com/diamond-stack/diamond/internal/forge/gitlab"
	"github.com/diamond-stack/diamond/internal/forge/restlite"
	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/orchestrator"
	"github.com/diamond-stack/diamond/internal/refstore"
)

var ErrRepoNotInitialized = errors.Sentinel("this repository is not initialized; please run `diamond init`")

var cachedRepo *gitshell.Repo

func getRepo() (*gitshell.Repo, error) {
	if cachedRepo != nil {
		return cachedRepo, nil
	}
	dir := rootFlags.Directory
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine working directory")
		}
	}
	repo, err := gitshell.OpenRepo(dir, config.Diamond.RemoteName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open git repo (are you running inside one?)")
	}
	cachedRepo = repo
	return repo, nil
}

func getStore() (*refstore.RefStore, error) {
	repo, err := getRepo()
	if err != nil {
		return nil, err
	}
	store := refstore.New(repo)
	ctx := context.Background()
	if _, ok, err := store.GetTrunk(ctx); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrRepoNotInitialized
	}
	return store, nil
}

func getOrchestrator() (*orchestrator.Orchestrator, *refstore.RefStore, error) {
	repo, err := getRepo()
	if err != nil {
		return nil, nil, err
	}
	store, err := getStore()
	if err != nil {
		return nil, nil, err
	}
	return orchestrator.New(repo, store), store, nil
}

// getForgeClient detects the repository's forge backend and builds a
// client for it. Returns (nil, nil) when the repo has no remote at all,
// since several commands (restack --only, track, trunk) work fine without
// one; callers that require a forge should treat nil as an error.
func getForgeClient(ctx context.Context) (forge.Client, error) {
	repo, err := getRepo()
	if err != nil {
		return nil, err
	}
	if _, origErr := repo.Origin(ctx); errors.Is(origErr, gitshell.ErrRemoteNotFound) {
		return nil, nil
	}
	detection, err := forge.Detect(ctx, repo)
	if err != nil {
		return nil, err
	}
	switch detection.Backend {
	case forge.BackendGitHub:
		baseURL := config.Diamond.Forge.GitHubBaseURL
		if detection.BaseURL != "https://github.com" {
			baseURL = detection.BaseURL
		}
		return github.New(config.Diamond.Forge.GitHubToken, baseURL, detection.RepoSlug, repo)
	case forge.BackendGitLab:
		baseURL := config.Diamond.Forge.GitLabBaseURL
		if detection.BaseURL != "https://gitlab.com" {
			baseURL = detection.BaseURL
		}
		return gitlab.New(config.Diamond.Forge.GitLabToken, baseURL, detection.RepoSlug, repo)
	case forge.BackendBitbucket:
		return restlite.New(restlite.HostBitbucket, config.Diamond.Forge.BitbucketToken, detection.BaseURL, detection.RepoSlug, repo)
	default:
		return restlite.New(restlite.HostGitea, config.Diamond.Forge.GiteaToken, detection.BaseURL, detection.RepoSlug, repo)
	}
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

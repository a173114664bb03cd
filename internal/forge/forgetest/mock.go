// Package forgetest provides an in-memory forge.Client for exercising
// approved-PR guards, CI-wait, and sync/restack forge interactions without
// a network dependency.
package forgetest

import (
	"context"
	"sync"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/forge"
)

// Mock is an in-memory forge.Client keyed by head branch name.
type Mock struct {
	mu  sync.Mutex
	prs map[string]*forge.FullPullRequest
}

func New() *Mock {
	return &Mock{prs: map[string]*forge.FullPullRequest{}}
}

// Seed installs a PR for branch, for tests to assert against.
func (m *Mock) Seed(branch string, pr *forge.FullPullRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prs[branch] = pr
}

func (m *Mock) CheckAuth(ctx context.Context) error { return nil }

func (m *Mock) PRExists(ctx context.Context, branch string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.prs[branch]
	return ok, nil
}

func (m *Mock) CreatePR(ctx context.Context, opts forge.CreatePROpts) (*forge.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr := &forge.PullRequest{
		ID:          opts.HeadRefName,
		Title:       opts.Title,
		Body:        opts.Body,
		State:       forge.PRStateOpen,
		IsDraft:     opts.Draft,
		HeadRefName: opts.HeadRefName,
		BaseRefName: opts.BaseRefName,
	}
	m.prs[opts.HeadRefName] = &forge.FullPullRequest{PullRequest: *pr, Review: forge.ReviewPending, CI: forge.CINone}
	return pr, nil
}

func (m *Mock) GetPRInfo(ctx context.Context, branch string) (*forge.PullRequest, error) {
	full, err := m.GetPRFullInfo(ctx, branch)
	if err != nil {
		return nil, err
	}
	return &full.PullRequest, nil
}

func (m *Mock) GetPRFullInfo(ctx context.Context, branch string) (*forge.FullPullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[branch]
	if !ok {
		return nil, errors.Errorf("no PR for branch %q", branch)
	}
	return pr, nil
}

func (m *Mock) GetPRChain(ctx context.Context, branch string) ([]*forge.PullRequest, error) {
	pr, err := m.GetPRInfo(ctx, branch)
	if err != nil {
		return nil, err
	}
	return []*forge.PullRequest{pr}, nil
}

func (m *Mock) GetPRBody(ctx context.Context, branch string) (string, error) {
	pr, err := m.GetPRFullInfo(ctx, branch)
	if err != nil {
		return "", err
	}
	return pr.Body, nil
}

func (m *Mock) UpdatePRBody(ctx context.Context, branch, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[branch]
	if !ok {
		return errors.Errorf("no PR for branch %q", branch)
	}
	pr.Body = body
	return nil
}

func (m *Mock) UpdatePRBase(ctx context.Context, branch, newBase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[branch]
	if !ok {
		return errors.Errorf("no PR for branch %q", branch)
	}
	pr.BaseRefName = newBase
	return nil
}

func (m *Mock) MarkPRReady(ctx context.Context, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[branch]
	if !ok {
		return errors.Errorf("no PR for branch %q", branch)
	}
	pr.IsDraft = false
	return nil
}

func (m *Mock) IsBranchMerged(ctx context.Context, branch, into string) (bool, error) {
	pr, err := m.GetPRFullInfo(ctx, branch)
	if err != nil {
		return false, nil
	}
	return pr.State == forge.PRStateMerged, nil
}

func (m *Mock) EnableAutoMerge(ctx context.Context, branch string, method forge.MergeMethod) error {
	return nil
}

func (m *Mock) MergePR(ctx context.Context, branch string, method forge.MergeMethod, autoConfirm bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[branch]
	if !ok {
		return errors.Errorf("no PR for branch %q", branch)
	}
	pr.State = forge.PRStateMerged
	return nil
}

func (m *Mock) OpenPRInBrowser(ctx context.Context, branch string) (string, error) {
	pr, err := m.GetPRFullInfo(ctx, branch)
	if err != nil {
		return "", err
	}
	return pr.URL, nil
}

func (m *Mock) PushBranch(ctx context.Context, branch string, force bool) error { return nil }

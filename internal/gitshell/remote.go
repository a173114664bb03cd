package gitshell

import (
	"context"

	"emperror.dev/errors"
)

// FetchOrigin fetches from the configured remote.
func (r *Repo) FetchOrigin(ctx context.Context) error {
	_, err := r.Run(ctx, &RunOpts{Args: []string{"fetch", r.remote}, ExitError: true})
	return err
}

// FastForwardBranch fast-forwards the local branch to its remote-tracking ref.
func (r *Repo) FastForwardBranch(ctx context.Context, name string) error {
	tracking, ok := r.RemoteTrackingBranch(name)
	if !ok {
		return errors.Errorf("branch %q has no remote-tracking branch on %q", name, r.remote)
	}
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"fetch", r.remote, tracking + ":" + name},
		ExitError: true,
	})
	return err
}

type PushMode int

const (
	PushForceWithLease PushMode = iota
	PushForce
	PushNormal
)

// Push pushes branch to the remote using the given force mode.
func (r *Repo) Push(ctx context.Context, branch string, mode PushMode) error {
	args := []string{"push", r.remote, branch}
	switch mode {
	case PushForceWithLease:
		args = append(args, "--force-with-lease")
	case PushForce:
		args = append(args, "--force")
	}
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	if err != nil {
		if StderrMatches(err, "stale info") {
			return errors.WrapIff(err, "push rejected: remote has diverged (stale info); fetch and retry")
		}
		if StderrMatches(err, "protected branch") || StderrMatches(err, "hook declined") {
			return errors.WrapIff(err, "push rejected by a protected-branch rule on %q", branch)
		}
	}
	return err
}

// PushDiamondRefs pushes the refs/diamond/* namespace, which carries
// Diamond's stack metadata alongside a branch. Metadata refs point at blobs,
// not commits, so pushes always use --force (there's nothing to fast-forward).
func (r *Repo) PushDiamondRefs(ctx context.Context) error {
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"push", r.remote, "--force", "refs/diamond/*:refs/diamond/*"},
		ExitError: true,
	})
	return err
}

// FetchDiamondRefs fetches the refs/diamond/* namespace from the remote.
func (r *Repo) FetchDiamondRefs(ctx context.Context) error {
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"fetch", r.remote, "+refs/diamond/*:refs/diamond/*"},
		ExitError: true,
	})
	return err
}

// DeleteDiamondRefsOnRemote deletes a branch's metadata refs on the remote.
// Best-effort: remote metadata cleanup never blocks local operations.
func (r *Repo) DeleteDiamondRefsOnRemote(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	args := []string{"push", r.remote, "--delete"}
	args = append(args, refs...)
	_, _ = r.Run(ctx, &RunOpts{Args: args})
	return nil
}

// EnsureDiamondRefspec adds the Diamond metadata refspec to the remote config
// if it isn't already present, so that `git push`/`git fetch` move stack
// metadata along with branches by default.
func (r *Repo) EnsureDiamondRefspec(ctx context.Context) error {
	const refspec = "+refs/diamond/*:refs/diamond/*"
	out, _ := r.Run(ctx, &RunOpts{Args: []string{"config", "--get-all", "remote." + r.remote + ".fetch"}})
	for _, line := range out.Lines() {
		if line == refspec {
			return nil
		}
	}
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"config", "--add", "remote." + r.remote + ".fetch", refspec},
		ExitError: true,
	})
	return err
}

// LsRemoteBranches lists the branches currently known on the remote (from the
// local remote-tracking refs, i.e. as of the last fetch).
func (r *Repo) LsRemoteBranches(ctx context.Context) (map[string]string, error) {
	refs, err := r.ListReferences(ctx, "refs/remotes/"+r.remote+"/**")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	prefix := "refs/remotes/" + r.remote + "/"
	for _, ref := range refs {
		name := ref.Name
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			out[name[len(prefix):]] = ref.Oid
		}
	}
	return out, nil
}

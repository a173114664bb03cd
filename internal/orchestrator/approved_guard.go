package orchestrator

import (
	"context"
	"sort"
	"strings"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/forge"
)

// ErrApprovedPRsInPlan is returned by ApplyApprovedPRGuard when a restack
// would rewrite a branch whose pull request has already been approved, and
// the caller passed neither --force nor --skip-approved.
var ErrApprovedPRsInPlan = errors.Sentinel("restack would rewrite a branch with an approved pull request")

// CheckApprovedPRs queries every branch's review state concurrently (via
// forge.WrapAsync) and returns the subset with an approved pull request,
// sorted for deterministic reporting. Branches without a pull request at
// all are silently skipped rather than treated as an error.
func CheckApprovedPRs(ctx context.Context, client forge.Client, branches []string) ([]string, error) {
	async := forge.WrapAsync(client)
	exists, err := async.CheckPRsExist(ctx, branches)
	if err != nil {
		return nil, err
	}
	var withPR []string
	for _, b := range branches {
		if exists[b] {
			withPR = append(withPR, b)
		}
	}
	if len(withPR) == 0 {
		return nil, nil
	}

	full, err := async.GetPRsFullInfo(ctx, withPR)
	if err != nil {
		return nil, err
	}
	var approved []string
	for _, b := range withPR {
		if pr, ok := full[b]; ok && pr != nil && pr.Review == forge.ReviewApproved {
			approved = append(approved, b)
		}
	}
	sort.Strings(approved)
	return approved, nil
}

// ApplyApprovedPRGuard enforces the approved-PR guard on a restack plan
// before Start runs. client may be nil when the repository has no forge
// configured, in which case the guard is a no-op. force bypasses the check
// entirely; skipApproved drops the flagged branches from the plan instead
// of rewriting them. Their descendants stay in the plan.
func (o *Orchestrator) ApplyApprovedPRGuard(ctx context.Context, client forge.Client, plan *Plan, force, skipApproved bool) error {
	if client == nil || force {
		return nil
	}

	approved, err := CheckApprovedPRs(ctx, client, plan.Branches)
	if err != nil {
		return err
	}
	if len(approved) == 0 {
		return nil
	}
	if !skipApproved {
		return errors.WrapIff(ErrApprovedPRsInPlan, "branches: %s (pass --force or --skip-approved)", strings.Join(approved, ", "))
	}

	skip := make(map[string]bool, len(approved))
	for _, b := range approved {
		skip[b] = true
	}
	remaining := plan.Branches[:0:0]
	for _, b := range plan.Branches {
		if !skip[b] {
			remaining = append(remaining, b)
		}
	}
	plan.Branches = remaining
	for _, b := range approved {
		delete(plan.NewParentOf, b)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/diamond-stack/diamond/internal/orchestrator"
)

// runOrchestration drives Guard -> plan -> Start and prints the outcome.
// Orphan repair is not done here; callers that need it run it first. planFn is called once the worktree is clean, trunk is set, and no
// other operation is in progress.
func runOrchestration(ctx context.Context, orch *orchestrator.Orchestrator, planFn func() (*orchestrator.Plan, error)) error {
	guard, err := orch.Guard(ctx)
	if err != nil {
		return err
	}
	defer guard.Release()

	plan, err := planFn()
	if err != nil {
		return err
	}
	if len(plan.Branches) == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}

	if rootFlags.DryRun {
		fmt.Println("Would rebase, in order:")
		for _, b := range plan.Branches {
			fmt.Printf("  %s -> %s\n", b, plan.NewParentOf[b])
		}
		return nil
	}

	result, err := orch.Start(ctx, plan, false)
	return reportOrchestrationResult(result, err)
}

func reportOrchestrationResult(result *orchestrator.Result, err error) error {
	if err != nil {
		return err
	}
	switch result.Status {
	case orchestrator.StatusConflict:
		c := result.Conflict
		fmt.Printf("%s while rebasing %q onto %q.\n", color.YellowString("Conflict"), c.Branch, c.NewBase)
		for _, p := range c.ConflictingPaths {
			fmt.Printf("  conflict: %s\n", p)
		}
		fmt.Println("Resolve the conflicts, `git add` them, then run `diamond continue` (or `diamond abort` to cancel).")
	case orchestrator.StatusNothingToDo:
		fmt.Println("Nothing to do.")
	case orchestrator.StatusCompleted:
		fmt.Println(color.GreenString("Done."))
	}
	return nil
}

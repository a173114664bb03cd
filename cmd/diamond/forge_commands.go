package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/browser"
	"github.com/diamond-stack/diamond/internal/config"
	"github.com/diamond-stack/diamond/internal/forge"
)

func currentOrNamedBranch(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	repo, err := getRepo()
	if err != nil {
		return "", err
	}
	return repo.CurrentBranchName(cmd.Context())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [<branch-name>]",
		Short: "print the pull request status for a branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			branch, err := currentOrNamedBranch(cmd, args)
			if err != nil {
				return err
			}
			client, err := getForgeClient(ctx)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("this repository has no forge remote configured")
			}

			full, err := client.GetPRFullInfo(ctx, branch)
			if err != nil {
				return err
			}
			fmt.Printf("#%d %s\n", full.Number, full.Title)
			fmt.Printf("  state: %s", full.State)
			if full.IsDraft {
				fmt.Print(" (draft)")
			}
			fmt.Println()
			fmt.Printf("  review: %s\n", full.Review)
			fmt.Printf("  ci: %s\n", full.CI)
			fmt.Printf("  %s -> %s\n", full.HeadRefName, full.BaseRefName)
			fmt.Printf("  %s\n", full.URL)
			return nil
		},
	}
}

var mergeFlags struct {
	Method  string
	Confirm bool
	WaitCI  bool
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [<branch-name>]",
		Short: "merge a branch's pull request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			branch, err := currentOrNamedBranch(cmd, args)
			if err != nil {
				return err
			}
			client, err := getForgeClient(ctx)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("this repository has no forge remote configured")
			}

			method := forge.MergeMethod(mergeFlags.Method)
			if method == "" {
				method = forge.MergeMethod(config.Diamond.Sync.DefaultMergeMethod)
			}

			if mergeFlags.WaitCI {
				result, err := forge.CIWait(ctx, client, branch, 0)
				if err != nil {
					return err
				}
				if result != forge.CIResultSuccess {
					return errors.Errorf("CI did not succeed for %q: %s", branch, result)
				}
			}

			if !mergeFlags.Confirm && !confirm(fmt.Sprintf("Merge %q using %q?", branch, method)) {
				return errors.New("aborted")
			}

			return forge.WithRateLimitRetry(ctx, func() error {
				return client.MergePR(ctx, branch, method, true)
			})
		},
	}
	cmd.Flags().StringVar(&mergeFlags.Method, "method", "", "merge method: squash, merge, or rebase (defaults to the configured default)")
	cmd.Flags().BoolVarP(&mergeFlags.Confirm, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&mergeFlags.WaitCI, "wait", false, "wait for CI to succeed before merging")
	return cmd
}

func newPRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr [<branch-name>]",
		Short: "open the pull request for a branch in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			branch, err := currentOrNamedBranch(cmd, args)
			if err != nil {
				return err
			}
			client, err := getForgeClient(ctx)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("this repository has no forge remote configured")
			}
			url, err := client.OpenPRInBrowser(ctx, branch)
			if err != nil {
				return err
			}
			fmt.Println(color.CyanString(url))
			if config.Diamond.Sync.OpenBrowser {
				if err := browser.Open(ctx, url); err != nil {
					fmt.Println(color.YellowString("could not open browser: %v", err))
				}
			}
			return nil
		},
	}
	return cmd
}

func newUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <branch-name>",
		Short: "stop tracking a branch without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := store.RemoveBranchReparent(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Untracked %q; its children were reparented onto its former parent.\n", args[0])
			return nil
		},
	}
}

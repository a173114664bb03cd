package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/diamond-stack/diamond/internal/stackgraph"
)

var submitFlags struct {
	All    bool
	Draft  bool
	Title  string
	Body   string
	NoEdit bool
}

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [<branch-name>]",
		Short: "push the branch and create or update its pull request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			client, err := getForgeClient(ctx)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("this repository has no forge remote configured")
			}

			var branches []string
			if submitFlags.All {
				trunk, err := store.RequireTrunk(ctx)
				if err != nil {
					return err
				}
				branches, err = stackgraph.CollectBranchesDFS(ctx, store.GetChildren, []string{trunk})
				if err != nil {
					return err
				}
				branches = branches[1:] // drop trunk
			} else {
				branch := ""
				if len(args) == 1 {
					branch = args[0]
				} else {
					branch, err = repo.CurrentBranchName(ctx)
					if err != nil {
						return errors.Wrap(err, "failed to determine current branch")
					}
				}
				branches = []string{branch}
			}

			body := submitFlags.Body
			if body == "-" {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return errors.Wrap(err, "failed to read body from stdin")
				}
				body = string(raw)
			}

			for _, branch := range branches {
				if err := submitOne(ctx, client, store, repo, branch, body); err != nil {
					return errors.Wrapf(err, "failed to submit %q", branch)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&submitFlags.All, "all", false, "submit every tracked branch")
	cmd.Flags().BoolVar(&submitFlags.Draft, "draft", false, "create the pull request as a draft")
	cmd.Flags().StringVarP(&submitFlags.Title, "title", "t", "", "title for a newly created pull request")
	cmd.Flags().StringVarP(&submitFlags.Body, "body", "b", "", "body for a newly created pull request (a value of - reads from stdin)")
	return cmd
}

func submitOne(ctx context.Context, client forge.Client, store *refstore.RefStore, repo *gitshell.Repo, branch, body string) error {
	if !repo.BranchExists(ctx, branch) {
		return errors.Errorf("branch %q does not exist", branch)
	}
	parent, hasParent, err := store.GetParent(ctx, branch)
	if err != nil {
		return err
	}
	if !hasParent {
		trunk, err := store.RequireTrunk(ctx)
		if err != nil {
			return err
		}
		parent = trunk
	}

	exists, err := client.PRExists(ctx, branch)
	if err != nil {
		return err
	}

	if err := client.PushBranch(ctx, branch, exists); err != nil {
		return err
	}

	if !exists {
		title := submitFlags.Title
		if title == "" {
			title = branch
		}
		pr, err := client.CreatePR(ctx, forge.CreatePROpts{
			HeadRefName: branch,
			BaseRefName: parent,
			Title:       title,
			Body:        body,
			Draft:       submitFlags.Draft,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created pull request for %q: %s\n", branch, pr.URL)
		return nil
	}

	pr, err := client.GetPRInfo(ctx, branch)
	if err != nil {
		return err
	}
	if pr.BaseRefName != parent {
		if err := client.UpdatePRBase(ctx, branch, parent); err != nil {
			return err
		}
	}
	if body != "" {
		if err := client.UpdatePRBody(ctx, branch, body); err != nil {
			return err
		}
	}
	fmt.Printf("Updated pull request for %q: %s\n", branch, pr.URL)
	return nil
}

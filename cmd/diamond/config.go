package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print Diamond's resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "print the resolved configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("remote: %s\n", config.Diamond.RemoteName)
			fmt.Printf("sync.default-merge-method: %s\n", config.Diamond.Sync.DefaultMergeMethod)
			fmt.Printf("sync.open-browser: %v\n", config.Diamond.Sync.OpenBrowser)
			fmt.Printf("forge.github-base-url: %s\n", config.Diamond.Forge.GitHubBaseURL)
			fmt.Printf("forge.gitlab-base-url: %s\n", config.Diamond.Forge.GitLabBaseURL)
			fmt.Printf("forge.github-token-set: %v\n", config.Diamond.Forge.GitHubToken != "")
			fmt.Printf("forge.gitlab-token-set: %v\n", config.Diamond.Forge.GitLabToken != "")
			fmt.Printf("forge.bitbucket-token-set: %v\n", config.Diamond.Forge.BitbucketToken != "")
			fmt.Printf("forge.gitea-token-set: %v\n", config.Diamond.Forge.GiteaToken != "")
			return nil
		},
	})
	return cmd
}

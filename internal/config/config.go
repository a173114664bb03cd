// Package config loads Diamond's ambient configuration: a cascading viper
// config file (XDG config dir, home dotfile, repo-local override) plus
// environment variable overrides for forge credentials.
package config

import (
	"os"

	"emperror.dev/errors"
	"github.com/spf13/viper"
)

type Forge struct {
	GitHubToken    string
	GitHubBaseURL  string
	GitLabToken    string
	GitLabBaseURL  string
	BitbucketToken string
	GiteaToken     string
}

type Sync struct {
	// DefaultMergeMethod is the method `diamond merge` uses when --method
	// is not given (squash, merge, rebase).
	DefaultMergeMethod string
	OpenBrowser        bool
}

var Diamond = struct {
	RemoteName string
	Forge      Forge
	Sync       Sync
}{
	RemoteName: "origin",
	Forge: Forge{
		GitHubBaseURL: "https://github.com",
		GitLabBaseURL: "https://gitlab.com",
	},
	Sync: Sync{
		DefaultMergeMethod: "squash",
		OpenBrowser:        true,
	},
}

// Load reads config.{json,yaml,toml} from the XDG config cascade plus any
// additional repo-local paths, then applies environment overrides.
func Load(extraPaths []string) (loaded bool, err error) {
	loaded, err = loadFromFile(extraPaths)
	loadFromEnv()
	return loaded, err
}

func loadFromFile(extraPaths []string) (bool, error) {
	v := viper.New()
	v.SetConfigName("config")

	v.AddConfigPath("$XDG_CONFIG_HOME/diamond")
	v.AddConfigPath("$HOME/.config/diamond")
	v.AddConfigPath("$HOME/.diamond")
	v.AddConfigPath("$DIAMOND_HOME")
	for _, p := range extraPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	if err := v.Unmarshal(&Diamond); err != nil {
		return true, errors.Wrap(err, "failed to parse diamond config")
	}
	return true, nil
}

func loadFromEnv() {
	if tok := firstNonEmpty(os.Getenv("DIAMOND_GITHUB_TOKEN"), os.Getenv("GITHUB_TOKEN")); tok != "" {
		Diamond.Forge.GitHubToken = tok
	}
	if tok := firstNonEmpty(os.Getenv("DIAMOND_GITLAB_TOKEN"), os.Getenv("GITLAB_TOKEN")); tok != "" {
		Diamond.Forge.GitLabToken = tok
	}
	if tok := firstNonEmpty(os.Getenv("DIAMOND_BITBUCKET_TOKEN"), os.Getenv("BITBUCKET_TOKEN")); tok != "" {
		Diamond.Forge.BitbucketToken = tok
	}
	if tok := firstNonEmpty(os.Getenv("DIAMOND_GITEA_TOKEN"), os.Getenv("GITEA_TOKEN")); tok != "" {
		Diamond.Forge.GiteaToken = tok
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

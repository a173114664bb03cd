package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/config"
)

var rootFlags struct {
	Verbose   bool
	DryRun    bool
	Directory string
}

var rootCmd = &cobra.Command{
	Use: "diamond",

	SilenceErrors: true,
	SilenceUsage:  true,

	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootFlags.Verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if _, err := config.Load(nil); err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		if err := config.LoadUserState(); err != nil {
			return errors.Wrap(err, "failed to load user state")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootFlags.Verbose, "verbose", false, "log every VCS invocation")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.DryRun, "dry-run", false, "plan and print but never mutate")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.Directory, "repo", "C", "", "directory to use for the git repository")

	rootCmd.AddCommand(
		newInitCmd(),
		newCreateCmd(),
		newCheckoutCmd(),
		newLogCmd(),
		newModifyCmd(),
		newSubmitCmd(),
		newSyncCmd(),
		newUpCmd(),
		newDownCmd(),
		newTopCmd(),
		newBottomCmd(),
		newRestackCmd(),
		newMoveCmd(),
		newFoldCmd(),
		newSplitCmd(),
		newSquashCmd(),
		newDeleteCmd(),
		newReorderCmd(),
		newRenameCmd(),
		newAbsorbCmd(),
		newGetCmd(),
		newMergeCmd(),
		newPRCmd(),
		newUnlinkCmd(),
		newContinueCmd(),
		newAbortCmd(),
		newUndoCmd(),
		newDoctorCmd(),
		newCleanupCmd(),
		newGCCmd(),
		newHistoryCmd(),
		newFreezeCmd(),
		newUnfreezeCmd(),
		newPopCmd(),
		newTrackCmd(),
		newUntrackCmd(),
		newTrunkCmd(),
		newConfigCmd(),
		newInfoCmd(),
		newParentCmd(),
		newChildrenCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	startTime := time.Now()
	err := rootCmd.ExecuteContext(ctx)
	logrus.WithField("duration", time.Since(startTime)).Debug("command exited")

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted; if an operation was in progress, run `diamond continue` or `diamond abort`")
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprint(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func renderError(err error) string {
	return color.RedString("error: ") + fmt.Sprintf("%s\n", err)
}

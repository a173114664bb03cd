package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/config"
	"github.com/diamond-stack/diamond/internal/doctor"
)

var doctorFlags struct {
	Fix bool
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "check the tracked-branch metadata for inconsistencies",
		Args:  cobra.NoArgs,
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

			d := doctor.New(repo, store)
			findings, err := d.Check(ctx)
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				fmt.Println(color.GreenString("No problems found."))
			} else if doctorFlags.Fix {
				unresolved, err := d.Fix(ctx, findings)
				if err != nil {
					return err
				}
				fmt.Printf("Fixed %d of %d finding(s).\n", len(findings)-len(unresolved), len(findings))
				for _, f := range unresolved {
					fmt.Println(color.YellowString("  unresolved: "), f.String())
				}
			} else {
				for _, f := range findings {
					fmt.Println(color.YellowString("  - "), f.String())
				}
				fmt.Println("Run `diamond doctor --fix` to repair what can be repaired automatically.")
			}

			config.UserState.LastDoctorRunUnix = time.Now().Unix()
			return config.SaveUserState()
		},
	}
	cmd.Flags().BoolVar(&doctorFlags.Fix, "fix", false, "attempt to repair any findings automatically")
	return cmd
}

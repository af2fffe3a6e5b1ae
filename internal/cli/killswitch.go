package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
)

func init() {
	killSwitchCmd.AddCommand(killSwitchStatusCmd)
	killSwitchCmd.AddCommand(killSwitchActivateCmd)
	killSwitchCmd.AddCommand(killSwitchDeactivateCmd)
	rootCmd.AddCommand(killSwitchCmd)
}

var killSwitchCmd = &cobra.Command{
	Use:   "kill-switch",
	Short: "Inspect or toggle the sandbox kill switch",
}

var killSwitchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current kill-switch state",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.Kill.Status()
		if err != nil {
			return err
		}
		if st.Active {
			fmt.Printf("Kill switch: ACTIVE (since %s, by %s)\n",
				st.ActivatedAt.UTC().Format(time.RFC3339), st.ActivatedBy)
		} else {
			fmt.Println("Kill switch: inactive")
		}
		return nil
	},
}

var killSwitchActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Halt all new battle admissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Kill.Activate(context.Background(), "cli"); err != nil {
			return err
		}
		fmt.Println("Kill switch activated. New battle admissions halt immediately.")
		return nil
	},
}

var killSwitchDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Resume battle admissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Kill.Deactivate(context.Background(), "cli"); err != nil {
			return err
		}
		fmt.Println("Kill switch deactivated. Training admissions resume.")
		return nil
	},
}

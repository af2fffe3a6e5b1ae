package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
)

func init() {
	scenarioInjectCmd.Flags().StringVar(&scenarioObjection, "objection", "", "Raw buyer objection to battle against")
	scenarioInjectCmd.Flags().IntVar(&scenarioSessions, "sessions", 5, "Number of battle sessions to run")
	scenarioCmd.AddCommand(scenarioInjectCmd)
	scenarioCmd.AddCommand(scenarioResumeCmd)
	scenarioCmd.AddCommand(scenarioStatusCmd)
	rootCmd.AddCommand(scenarioCmd)
}

var (
	scenarioObjection string
	scenarioSessions  int
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Inject objection scenarios and inspect their progress",
}

var scenarioInjectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Run battles against a raw objection and rank the breakthroughs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scenarioObjection == "" {
			return fmt.Errorf("--objection is required")
		}

		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := context.Background()
		sc, err := d.Injector.Inject(ctx, scenarioObjection, scenarioSessions)
		if err != nil {
			return err
		}
		fmt.Printf("Scenario %s: %d sessions\n", sc.ID, sc.TotalSessions)

		// Run synchronously so the process does not exit mid fan-out.
		if err := d.Injector.Run(ctx, sc.ID); err != nil {
			return err
		}
		return printScenarioStatus(d, sc.ID)
	},
}

var scenarioResumeCmd = &cobra.Command{
	Use:   "resume SCENARIO_ID",
	Short: "Run the outstanding sessions of a partially-completed scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		// Run synchronously so the process does not exit mid fan-out.
		if err := d.Injector.Run(context.Background(), args[0]); err != nil {
			return err
		}
		return printScenarioStatus(d, args[0])
	},
}

var scenarioStatusCmd = &cobra.Command{
	Use:   "status SCENARIO_ID",
	Short: "Show scenario progress and top breakthroughs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		return printScenarioStatus(d, args[0])
	},
}

func printScenarioStatus(d *daemon.Daemon, scenarioID string) error {
	sc, bts, err := d.Injector.Status(scenarioID)
	if err != nil {
		return err
	}

	fmt.Printf("Scenario %s [%s]\n", sc.ID, sc.Status)
	fmt.Printf("  Objection: %s\n", sc.Objection)
	fmt.Printf("  Sessions:  %d/%d\n", sc.CompletedSessions, sc.TotalSessions)
	if len(bts) == 0 {
		fmt.Println("  No breakthroughs ranked yet.")
		return nil
	}
	for _, bt := range bts {
		fmt.Printf("  #%d (score %d) %s\n", bt.Rank, bt.RefereeScore, bt.WinningRebuttal)
	}
	return nil
}

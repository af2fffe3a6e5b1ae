package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
)

func init() {
	promoteCmd.Flags().StringVar(&promoteTacticID, "tactic", "", "Tactic ID to activate")
	promoteCmd.Flags().StringVar(&promoteBattleID, "battle", "", "Battle ID whose winning rebuttal to promote")
	rootCmd.AddCommand(promoteCmd)
}

var (
	promoteTacticID string
	promoteBattleID string
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a winning rebuttal into the production tactic set",
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteTacticID == "" && promoteBattleID == "" {
			return fmt.Errorf("either --tactic or --battle is required")
		}

		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		result, err := d.Promoter.Promote(context.Background(), promoteTacticID, promoteBattleID)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

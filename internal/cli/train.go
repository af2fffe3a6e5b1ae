package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
)

func init() {
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 5, "Number of battles in the batch")
	rootCmd.AddCommand(trainCmd)
}

var trainBatchSize int

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run one training batch of sandbox battles",
	RunE:  runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainBatchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive")
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := d.Orch.RunBatch(context.Background(), trainBatchSize)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s\n", result.BatchID)
	fmt.Printf("  Completed:      %d\n", result.BattlesCompleted)
	fmt.Printf("  Average score:  %.1f\n", result.AverageScore)
	fmt.Printf("  Total cost:     $%.4f\n", result.TotalCost)
	if result.HaltedUnits > 0 {
		fmt.Printf("  Halted:         %d (kill switch)\n", result.HaltedUnits)
	}
	if result.BudgetRefused > 0 {
		fmt.Printf("  Budget refused: %d\n", result.BudgetRefused)
	}
	for _, e := range result.Errors {
		fmt.Printf("  Error: %s\n", e)
	}
	if result.Message != "" {
		fmt.Printf("  %s\n", result.Message)
	}
	return nil
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

func init() {
	budgetCmd.Flags().IntVar(&budgetLedgerLimit, "ledger", 0, "Also print the last N ledger entries")
	rootCmd.AddCommand(budgetCmd)
}

var budgetLedgerLimit int

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show today's sandbox spend and budget state",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		c, err := d.Governor.Classify()
		if err != nil {
			return err
		}

		fmt.Printf("Spend today (UTC): $%.4f of $%.2f\n", c.SpendToday, d.Governor.Cap())
		switch {
		case c.Exceeded:
			fmt.Println("State: EXCEEDED — admissions refused until midnight UTC")
		case c.Throttled:
			fmt.Println("State: throttled — battles run on the economy tier")
		default:
			fmt.Println("State: normal")
		}

		if budgetLedgerLimit > 0 {
			entries, err := d.DB.LedgerEntries(domain.EnvSandbox, budgetLedgerLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\nTIMESTAMP\tCOST\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t$%.4f\t%s\n",
					e.Timestamp.UTC().Format("2006-01-02 15:04:05"), e.AmountUSD, e.Description)
			}
			return w.Flush()
		}
		return nil
	},
}

package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/persona"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/daemon"
)

func init() {
	personasCmd.AddCommand(personasSeedCmd)
	personasCmd.AddCommand(personasListCmd)
	rootCmd.AddCommand(personasCmd)
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Manage the buyer-persona roster",
}

var personasSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Sync the built-in master persona set into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := persona.Seed(d.DB)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d personas.\n", n)
		return nil
	},
}

var personasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active buyer personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		personas, err := d.DB.ListActivePersonas()
		if err != nil {
			return err
		}
		if len(personas) == 0 {
			fmt.Println("No active personas. Run `goat personas seed` first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTRAITS")
		for _, p := range personas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Category, strings.Join(p.Traits, ", "))
		}
		return w.Flush()
	},
}

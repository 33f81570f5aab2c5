package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/index"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count entries and bytes per year",
		Long:  "Count entries and ciphertext bytes per year. No passphrase is needed.",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			Stats()
		},
	}
}

// Stats prints per-year entry counts
func Stats() {
	j := openJournal(nil)

	stats, err := index.Stats(j.Entries())
	if err != nil {
		HandleError(err)
	}
	years := index.Years(stats)
	if len(years) == 0 {
		fmt.Printf("No entries in %s\n", cfg.Entries)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "YEAR\tENTRIES\tBYTES\t")
	var total index.YearStats
	for _, y := range years {
		s := stats[y]
		fmt.Fprintf(w, "%d\t%d\t%d\t\n", y, s.Entries, s.Bytes)
		total.Entries += s.Entries
		total.Bytes += s.Bytes
	}
	fmt.Fprintf(w, "total\t%d\t%d\t\n", total.Entries, total.Bytes)
	w.Flush()
}

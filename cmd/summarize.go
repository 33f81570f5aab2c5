package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/index"
)

func newSummarizeCmd() *cobra.Command {
	var (
		long    bool
		offsets []int
	)

	c := &cobra.Command{
		Use:   "summarize",
		Short: "Show entries written on this day in the past",
		Long: `List the entries written one day, one week, one month and one to sixteen
years ago, by UTC calendar day. With --long the entries are decrypted and
printed; otherwise only their timestamps and sizes are shown and no
passphrase is needed.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			if len(offsets) == 0 {
				offsets = cfg.Summarize.Offsets
			}
			Summarize(offsets, long)
		},
	}
	c.Flags().BoolVarP(&long, "long", "l", false, "decrypt and print the entries")
	c.Flags().IntSliceVar(&offsets, "offsets", nil, "look-back windows in days")
	return c
}

var offsetNames = map[int]string{
	1:    "yesterday",
	7:    "a week ago",
	31:   "a month ago",
	365:  "a year ago",
	730:  "2 years ago",
	1461: "4 years ago",
	2922: "8 years ago",
	5844: "16 years ago",
}

func describeOffset(days int) string {
	if name, ok := offsetNames[days]; ok {
		return name
	}
	return fmt.Sprintf("%d days ago", days)
}

// Summarize lists or prints the entries on each look-back day
func Summarize(offsets []int, long bool) {
	j := openJournal(nil)
	now := time.Now()

	matches, err := index.Candidates(j.Entries(), offsets, now)
	if err != nil {
		HandleError(err)
	}
	if len(matches) == 0 {
		fmt.Println("Nothing written on this day in the past")
		return
	}

	if !long {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%s\t%d bytes\t%s\n",
				describeOffset(m.Offset), m.Item.Timestamp.Format(time.RFC3339), m.Item.Size, m.Item.Path)
		}
		w.Flush()
		return
	}

	var summaries []index.Summary
	withPassphrase(func(pass []byte) error {
		var err error
		summaries, err = index.Summarize(j.Entries(), j.Keys(), func() ([]byte, error) {
			// Summarize clears what it is given; pass is still owned here.
			return bytes.Clone(pass), nil
		}, offsets, now, Logger)
		return err
	})

	header := color.New(color.FgCyan, color.Bold)
	for i, s := range summaries {
		if i > 0 {
			fmt.Println()
		}
		header.Printf("# %s, %s\n\n", describeOffset(s.Offset), s.Timestamp.Format("Monday 2 January 2006 15:04 MST"))
		writeOut(s.Plaintext)
		crypto.ClearBytes(s.Plaintext)
	}
}

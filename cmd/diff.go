package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff ENTRY_A ENTRY_B",
		Short: "Compare the plaintext of two entries",
		Args:  cobra.ExactArgs(2),
		Run: func(c *cobra.Command, args []string) {
			Diff(args[0], args[1])
		},
	}
}

// Diff shows line differences between two decrypted entries
func Diff(a, b string) {
	j := openJournal(nil)

	var out string
	withPassphrase(func(pass []byte) error {
		var err error
		out, err = j.Diff(a, b, pass)
		return err
	})

	if out == "" {
		fmt.Println("Entries are identical")
		return
	}
	fmt.Print(out)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump DIR",
		Short: "Decrypt every entry into DIR as .txt files",
		Long: `Decrypt every entry into DIR, one <timestamp>.txt file per entry.
Existing files are never overwritten; the dump stops before decrypting
anything if a target already exists.`,
		Args: cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			Dump(args[0])
		},
	}
}

// Dump exports all entries as plaintext
func Dump(dir string) {
	j := openJournal(nil)

	var n int
	withPassphrase(func(pass []byte) error {
		s, stop := startSpinner("Decrypting entries...")
		defer stop()

		var err error
		n, err = j.Dump(dir, pass, func(done, total int, name string) {
			s.Suffix = fmt.Sprintf(" Decrypting entries... %d/%d", done, total)
			Logger.Debugf("wrote %s", name)
		})
		return err
	})

	fmt.Printf("Dumped %d entries to %s\n", n, dir)
}

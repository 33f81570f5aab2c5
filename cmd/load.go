package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load DIR",
		Short: "Encrypt every file in DIR as an entry",
		Long: `Encrypt every regular file in DIR into the entries directory. A file named
2020-08-07T21:30:00.txt becomes 2020-08-07T21:30:00.diaria. Only the public
key is needed.`,
		Args: cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			Load(args[0])
		},
	}
}

// Load imports plaintext files as entries
func Load(dir string) {
	j := openJournal(nil)

	s, stop := startSpinner("Encrypting files...")
	n, err := j.Load(dir, func(done, total int, name string) {
		s.Suffix = fmt.Sprintf(" Encrypting files... %d/%d", done, total)
		Logger.Debugf("wrote %s", name)
	})
	stop()
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Loaded %d entries into %s\n", n, cfg.Entries)
}

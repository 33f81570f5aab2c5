package cmd

import (
	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/crypto"
)

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read PATH",
		Short: "Decrypt an entry to stdout",
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			Read(args[0])
		},
	}
}

// Read prints one decrypted entry
func Read(path string) {
	j := openJournal(nil)

	var plaintext []byte
	withPassphrase(func(pass []byte) error {
		var err error
		plaintext, err = j.Read(path, pass)
		return err
	})
	defer crypto.ClearBytes(plaintext)

	writeOut(plaintext)
}

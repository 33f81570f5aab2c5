package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/crypto"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the key pair",
		Long: `Create a new key pair in the keys directory. The private key is wrapped
with a key derived from your passphrase; the public key alone is enough to
add entries.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			Init()
		},
	}
}

// Init creates the keys directory
func Init() {
	j := openJournal(nil)
	if j.Keys().Exists() {
		// Fail before asking for a passphrase.
		if _, err := j.Init(nil); err != nil {
			HandleError(err)
		}
	}

	pass, err := newResolver().GetNew("New passphrase: ", "Confirm passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(pass)

	_, stop := startSpinner("Generating keys...")
	_, err = j.Init(pass)
	stop()
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Initialized keys in %s\n", cfg.Keys)
}

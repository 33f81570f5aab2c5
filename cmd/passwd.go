package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/keyring"
	"github.com/illarion/diaria/internal/passphrase"
)

func newPasswdCmd() *cobra.Command {
	var newFile string

	c := &cobra.Command{
		Use:   "passwd",
		Short: "Change the passphrase protecting the private key",
		Long: `Re-wrap the private key under a new passphrase. The key pair itself does
not change, so existing entries stay readable.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			Passwd(newFile)
		},
	}
	c.Flags().StringVar(&newFile, "new-password-file", "", "read the new passphrase from a file")
	return c
}

// Passwd changes the passphrase for the keys directory
func Passwd(newFile string) {
	j := openJournal(nil)

	// Verify the current passphrase before asking for a new one.
	current, _, err := newResolver().GetWithRetry("Current passphrase: ", func(p []byte) error {
		priv, err := j.Unlock(p)
		if err != nil {
			return err
		}
		priv.Close()
		return nil
	})
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(current)

	var next []byte
	if newFile != "" {
		next, err = passphrase.ReadFile(newFile)
		if err == nil && len(next) == 0 {
			err = passphrase.ErrEmptyPassphrase
		}
	} else {
		next, err = passphrase.ReadPassphraseConfirm("New passphrase: ", "Confirm new passphrase: ")
	}
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(next)

	_, stop := startSpinner("Re-wrapping private key...")
	err = j.ChangePassphrase(current, next)
	stop()
	if err != nil {
		HandleError(err)
	}

	// Keep an existing keyring entry in step with the new passphrase.
	if keyring.HasPassphrase(cfg.Keys) {
		if err := keyring.SavePassphrase(cfg.Keys, next); err != nil {
			Logger.Warnf("failed to update keyring: %v", err)
		} else {
			fmt.Println("Keyring updated with new passphrase")
		}
	}

	fmt.Println("Passphrase changed successfully")
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/keyring"
	"github.com/illarion/diaria/internal/passphrase"
)

func newKeyringCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the passphrase cached in the OS keyring",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			KeyringStatus()
		},
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Verify and store the passphrase",
			Args:  cobra.NoArgs,
			Run:   func(c *cobra.Command, args []string) { KeyringSave() },
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored passphrase",
			Args:  cobra.NoArgs,
			Run:   func(c *cobra.Command, args []string) { KeyringDelete() },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a passphrase is stored",
			Args:  cobra.NoArgs,
			Run:   func(c *cobra.Command, args []string) { KeyringStatus() },
		},
	)
	return c
}

// KeyringSave saves the passphrase to the OS keyring
func KeyringSave() {
	j := openJournal(nil)

	r := newResolver()
	r.UseKeyring = false
	pass, _, err := r.GetWithRetry("Passphrase: ", func(p []byte) error {
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
	defer crypto.ClearBytes(pass)

	if err := keyring.SavePassphrase(cfg.Keys, pass); err != nil {
		HandleError(fmt.Errorf("failed to save to keyring: %w", err))
	}
	fmt.Println("Passphrase saved to keyring")
}

// KeyringDelete removes the passphrase from the OS keyring
func KeyringDelete() {
	err := keyring.DeletePassphrase(cfg.Keys)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Println("No passphrase stored in keyring")
	case err != nil:
		HandleError(err)
	default:
		fmt.Println("Passphrase removed from keyring")
	}
}

// KeyringStatus reports whether a passphrase is stored for the keys directory
func KeyringStatus() {
	if keyring.HasPassphrase(cfg.Keys) {
		fmt.Printf("Passphrase is stored in keyring for %s\n", cfg.Keys)
	} else {
		fmt.Printf("No passphrase stored in keyring for %s\n", cfg.Keys)
	}
	if !cfg.Keyring {
		fmt.Println("Keyring lookup is disabled in the config file")
	}
	if getenv(passphrase.EnvVar) != "" {
		fmt.Printf("%s is set and takes precedence\n", passphrase.EnvVar)
	}
}

package keyring

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const serviceName = "diaria"

// ErrNotFound means no passphrase is stored for the keys directory.
var ErrNotFound = keyring.ErrNotFound

// accountFor keys stored passphrases by the absolute keys directory, so
// separate journals on one machine do not share an entry.
func accountFor(keysDir string) (string, error) {
	abs, err := filepath.Abs(keysDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve keys directory: %w", err)
	}
	return abs, nil
}

// SavePassphrase stores a passphrase in the OS keyring
func SavePassphrase(keysDir string, passphrase []byte) error {
	account, err := accountFor(keysDir)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, account, string(passphrase))
}

// GetPassphrase retrieves a passphrase from the OS keyring
func GetPassphrase(keysDir string) ([]byte, error) {
	account, err := accountFor(keysDir)
	if err != nil {
		return nil, err
	}
	secret, err := keyring.Get(serviceName, account)
	if err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

// DeletePassphrase removes a passphrase from the OS keyring
func DeletePassphrase(keysDir string) error {
	account, err := accountFor(keysDir)
	if err != nil {
		return err
	}
	err = keyring.Delete(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassphrase checks if a passphrase is stored in the keyring
func HasPassphrase(keysDir string) bool {
	_, err := GetPassphrase(keysDir)
	return err == nil
}

// Package keyring caches the journal passphrase in the OS keyring
// (Secret Service, macOS Keychain or Windows Credential Manager).
package keyring

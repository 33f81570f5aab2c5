// Package core provides the journal operations behind each CLI command.
//
// Core operations include:
//   - Init: create the key pair protected by a passphrase
//   - Add: capture plaintext from a sandboxed editor or a file, seal it
//     with the public key and store it under a timestamp name
//   - Read: unlock the private key and decrypt one entry
//   - Dump/Load: export every entry as plaintext files and import them back
//   - Diff: compare two decrypted entries line by line
//   - ChangePassphrase: rewrap the private key
//
// Adding an entry never needs the passphrase. Operations that decrypt
// unlock the private key for the span of the call only.
package core

// Package crypto provides the symmetric primitives diaria builds on.
//
// Passphrase key derivation uses Argon2id with:
//   - 16-byte random salt (stored unencrypted next to the wrapped key)
//   - time, memory and thread costs persisted with the salt so the key
//     can be re-derived deterministically
//
// Key wrapping uses XChaCha20-Poly1305 with:
//   - 32-byte key derived from the passphrase
//   - 24-byte random nonce per encryption operation, prepended to the output
//   - associated data binding the wrapped key to its public half
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto

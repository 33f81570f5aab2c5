// Package keystore generates, persists and unlocks the diaria key pair.
//
// A keys directory holds exactly three files:
//   - diaria.pub: the 32-byte X25519 public key, used to seal entries
//   - diaria.key: the private key wrapped with XChaCha20-Poly1305 under a
//     passphrase-derived key
//   - diaria.kdf: JSON Argon2id parameters (salt and costs) plus a BLAKE3
//     fingerprint over the other two files
//
// The files are written as a set: they are staged in a hidden directory
// and renamed into place with diaria.kdf last. A directory holding only
// some of them, or whose fingerprint does not match, is reported as
// corrupt rather than accepted.
//
// Sealing only needs LoadPublicKey. Opening entries needs Unlock, which
// returns the private key in mlocked memory; callers Close it as soon as
// the decrypt work is done.
package keystore

// Package codec converts entry plaintext to and from the on-disk envelope.
//
// An envelope is the 6-byte magic "DIARIA", a version byte, and a NaCl
// anonymous sealed box (X25519, XSalsa20-Poly1305) over the
// zstd-compressed plaintext. Sealing needs only the public key; every
// call uses a fresh ephemeral key so equal plaintexts never produce equal
// ciphertexts.
//
// Open never returns partial output: any failure in the header,
// authentication or decompression is reported as ErrDecryptionFailed.
package codec

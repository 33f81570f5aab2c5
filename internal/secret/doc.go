// Package secret holds key material outside the Go heap.
//
// On Linux a Buffer is an anonymous mmap region locked into RAM (no swap)
// and excluded from core dumps. Elsewhere it falls back to a heap slice.
// Either way Close zeroes the contents, and any read after Close panics.
//
// diaria keeps the unlocked private key in a Buffer for exactly the span
// of one read, dump or summarize operation.
package secret

// Package logging provides the leveled, colored logger used across diaria.
//
// All output goes to stderr so that commands printing entry plaintext
// (read, summarize) keep stdout clean for piping. Info lines only appear
// with --verbose, debug lines only with --debug; warnings and errors are
// always printed.
package logging

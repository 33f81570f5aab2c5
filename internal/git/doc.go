// Package git shells out to git for the entries directory.
//
// diaria has no sync protocol of its own: an entries directory may be a
// git working tree, and Sync commits new entries and exchanges them with
// the configured remote. Only *.diaria files are ever staged, so other
// files in the tree are left alone.
package git

// Package index derives views over an entries directory from file names
// and sizes alone. Only Summarize decrypts, and it unlocks the private
// key only when some entry falls on one of the requested days.
package index

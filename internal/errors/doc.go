// Package errors defines the failure taxonomy shared by every diaria
// component.
//
// Each value is a sentinel. Components wrap them with context using
// fmt.Errorf("...: %w", err) and callers classify with errors.Is, so the
// CLI can map any failure to a message and a non-zero exit status without
// knowing which layer produced it.
package errors

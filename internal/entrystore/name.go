package entrystore

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// Ext is the entry file extension.
	Ext = ".diaria"

	// NameLayout formats entry stems. Parsing also accepts fractional
	// seconds after the seconds field.
	NameLayout = "2006-01-02T15:04:05"
)

// FormatName returns the file name for an entry created at t.
func FormatName(t time.Time) string {
	return t.UTC().Format(NameLayout) + Ext
}

// ParseStem parses an entry stem. Stems without a zone are UTC; an
// RFC 3339 zone suffix is honored.
func ParseStem(stem string) (time.Time, bool) {
	if t, err := time.ParseInLocation(NameLayout, stem, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, stem); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ParseName parses the timestamp out of an entry file name or path.
func ParseName(name string) (time.Time, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, Ext) {
		return time.Time{}, false
	}
	return ParseStem(strings.TrimSuffix(base, Ext))
}

// Stem strips one extension from a file name.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package core

import (
	"strings"
	"testing"
)

func TestIsText(t *testing.T) {
	tests := []struct {
		name  string
		entry []byte
		want  bool
	}{
		{"journal prose", []byte("Walked to the lake.\nCold wind.\n"), true},
		{"accents and CJK", []byte("café, 世界\n"), true},
		{"empty", nil, true},
		{"tabs and carriage returns", []byte("a\tb\r\n"), true},
		{"NUL byte", []byte("a\x00b"), false},
		{"invalid UTF-8", []byte{0xff, 0xfe, 'x'}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isText(tt.entry); got != tt.want {
				t.Errorf("isText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnifiedDiff(t *testing.T) {
	if got := UnifiedDiff("a", "b", []byte("same\n"), []byte("same\n")); got != "" {
		t.Errorf("identical inputs produced %q", got)
	}

	got := UnifiedDiff("a", "b", []byte("x\x00"), []byte("y\x00"))
	if !strings.HasPrefix(got, "Binary entries a and b differ") {
		t.Errorf("binary inputs produced %q", got)
	}

	got = UnifiedDiff("a", "b", []byte("line1\nline2\n"), []byte("line1\nline2\nline3\n"))
	if !strings.Contains(got, "+line3") {
		t.Errorf("missing added line:\n%s", got)
	}
}

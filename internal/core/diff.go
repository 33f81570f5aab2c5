package core

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/diaria/internal/codec"
	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/entrystore"
)

// isText reports whether an entry can be shown as lines. Editor entries
// always are; --input and load accept any file, so a NUL byte or invalid
// UTF-8 marks the entry as binary.
func isText(entry []byte) bool {
	return bytes.IndexByte(entry, 0) == -1 && utf8.Valid(entry)
}

// Diff decrypts two entries and returns a unified diff from a to b, or
// an empty string when they are identical.
func (j *Journal) Diff(pathA, pathB string, passphrase []byte) (string, error) {
	ctA, err := entrystore.Read(pathA)
	if err != nil {
		return "", err
	}
	ctB, err := entrystore.Read(pathB)
	if err != nil {
		return "", err
	}

	priv, err := j.keys.Unlock(passphrase)
	if err != nil {
		return "", err
	}
	defer priv.Close()

	a, err := codec.Open(ctA, priv)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(pathA), err)
	}
	defer crypto.ClearBytes(a)

	b, err := codec.Open(ctB, priv)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(pathB), err)
	}
	defer crypto.ClearBytes(b)

	return UnifiedDiff(filepath.Base(pathA), filepath.Base(pathB), a, b), nil
}

// UnifiedDiff renders a full-context line diff of two plaintexts.
func UnifiedDiff(nameA, nameB string, a, b []byte) string {
	if bytes.Equal(a, b) {
		return ""
	}
	if !isText(a) || !isText(b) {
		return fmt.Sprintf("Binary entries %s and %s differ\n", nameA, nameB)
	}

	dmp := diffmatchpatch.New()

	strA, strB := string(a), string(b)
	charsA, charsB, lineArray := dmp.DiffLinesToChars(strA, strB)
	diffs := dmp.DiffMain(charsA, charsB, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	fmt.Fprintf(&result, "--- %s\n", nameA)
	fmt.Fprintf(&result, "+++ %s\n", nameB)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				result.WriteString("\n\\ No newline at end of entry\n")
			}
		}
	}
	return result.String()
}

package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keystore"
	"github.com/illarion/diaria/internal/sandbox"
)

var fixedNow = time.Date(2020, 8, 7, 21, 30, 0, 0, time.UTC)

func newTestJournal(t *testing.T, passphrase string) *Journal {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	j := New(Config{
		KeysDir:    filepath.Join(base, "keys"),
		EntriesDir: filepath.Join(base, "entries"),
		Sandbox:    &sandbox.Passthrough{},
		Now:        func() time.Time { return fixedNow },
		KDF:        keystore.Params{Time: 1, Memory: 64, Threads: 1},
	})
	if _, err := j.Init([]byte(passphrase)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return j
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddThenReadTwice(t *testing.T) {
	j := newTestJournal(t, "abc")

	path, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "first entry\n")})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if want := filepath.Join(j.cfg.EntriesDir, "2020-08-07T21:30:00.diaria"); path != want {
		t.Errorf("Add wrote %s, want %s", path, want)
	}

	for i := 0; i < 2; i++ {
		got, err := j.Read(path, []byte("abc"))
		if err != nil {
			t.Fatalf("Read #%d failed: %v", i+1, err)
		}
		if string(got) != "first entry\n" {
			t.Errorf("Read #%d returned %q", i+1, got)
		}
	}
}

func TestAddWithEditor(t *testing.T) {
	j := newTestJournal(t, "abc")

	path, err := j.Add(context.Background(), AddOptions{Editor: "printf 'from the editor' > %"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := j.Read(path, []byte("abc"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "from the editor" {
		t.Errorf("Read returned %q", got)
	}
}

func TestAddEmptyCreatesNothing(t *testing.T) {
	for _, content := range []string{"", " ", "\n\n", "\t \r\n"} {
		j := newTestJournal(t, "abc")

		_, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, content)})
		if !errors.Is(err, derrors.ErrEmptyEntry) {
			t.Fatalf("Add(%q) returned %v, want ErrEmptyEntry", content, err)
		}
		if _, err := os.Stat(j.cfg.EntriesDir); !os.IsNotExist(err) {
			t.Errorf("Add(%q) created the entries directory", content)
		}
	}
}

func TestAddEditorFailureCreatesNothing(t *testing.T) {
	j := newTestJournal(t, "abc")

	_, err := j.Add(context.Background(), AddOptions{Editor: "echo text > %; exit 1"})
	if !errors.Is(err, derrors.ErrEditorFailed) {
		t.Fatalf("Add returned %v, want ErrEditorFailed", err)
	}
	if _, err := os.Stat(j.cfg.EntriesDir); !os.IsNotExist(err) {
		t.Error("failed Add created the entries directory")
	}
}

func TestAddInvalidEditorCommand(t *testing.T) {
	j := newTestJournal(t, "abc")

	_, err := j.Add(context.Background(), AddOptions{Editor: "vi"})
	if !errors.Is(err, derrors.ErrInvalidEditorCommand) {
		t.Fatalf("Add returned %v, want ErrInvalidEditorCommand", err)
	}
}

func TestAddWithoutKeys(t *testing.T) {
	base := t.TempDir()
	j := New(Config{
		KeysDir:    filepath.Join(base, "keys"),
		EntriesDir: filepath.Join(base, "entries"),
	})

	_, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "text")})
	if !errors.Is(err, derrors.ErrKeysNotFound) {
		t.Fatalf("Add returned %v, want ErrKeysNotFound", err)
	}
}

func TestAddCollision(t *testing.T) {
	j := newTestJournal(t, "abc")
	input := writeInput(t, "same second")

	if _, err := j.Add(context.Background(), AddOptions{InputPath: input}); err != nil {
		t.Fatal(err)
	}
	_, err := j.Add(context.Background(), AddOptions{InputPath: input})
	if !errors.Is(err, derrors.ErrEntryCollision) {
		t.Fatalf("second Add returned %v, want ErrEntryCollision", err)
	}
}

func TestAddOutputName(t *testing.T) {
	j := newTestJournal(t, "abc")
	input := writeInput(t, "named")

	path, err := j.Add(context.Background(), AddOptions{InputPath: input, OutputName: "1931-05-02T10:00:00"})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(j.cfg.EntriesDir, "1931-05-02T10:00:00.diaria"); path != want {
		t.Errorf("bare output name wrote %s, want %s", path, want)
	}

	elsewhere := filepath.Join(t.TempDir(), "sub", "custom.diaria")
	path, err = j.Add(context.Background(), AddOptions{InputPath: input, OutputName: elsewhere})
	if err != nil {
		t.Fatal(err)
	}
	if path != elsewhere {
		t.Errorf("output path wrote %s, want %s", path, elsewhere)
	}
}

func TestReadWrongPassphrase(t *testing.T) {
	j := newTestJournal(t, "abc")

	path, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "the secret")})
	if err != nil {
		t.Fatal(err)
	}

	got, err := j.Read(path, []byte("wrong"))
	if !derrors.IsOpenFailure(err) {
		t.Fatalf("Read returned %v, want an open failure", err)
	}
	if strings.Contains(string(got), "the secret") {
		t.Error("Read leaked plaintext with the wrong passphrase")
	}
}

func TestReadMissingEntry(t *testing.T) {
	j := newTestJournal(t, "abc")

	_, err := j.Read(filepath.Join(j.cfg.EntriesDir, "2000-01-01T00:00:00.diaria"), []byte("abc"))
	if !errors.Is(err, derrors.ErrEntryNotFound) {
		t.Fatalf("Read returned %v, want ErrEntryNotFound", err)
	}
}

func TestDumpLoad(t *testing.T) {
	j := newTestJournal(t, "abc")
	if _, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "dump me\n")}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "dump")
	n, err := j.Dump(out, []byte("abc"), nil)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Dump wrote %d files, want 1", n)
	}
	data, err := os.ReadFile(filepath.Join(out, "2020-08-07T21:30:00.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "dump me\n" {
		t.Errorf("dumped %q", data)
	}

	if _, err := j.Dump(filepath.Join(t.TempDir(), "x"), []byte("wrong"), nil); !errors.Is(err, derrors.ErrWrongPassphrase) {
		t.Errorf("Dump with wrong passphrase returned %v", err)
	}

	other := New(Config{KeysDir: j.cfg.KeysDir, EntriesDir: filepath.Join(t.TempDir(), "entries")})
	if _, err := other.Load(out, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := other.Read(filepath.Join(other.cfg.EntriesDir, "2020-08-07T21:30:00.diaria"), []byte("abc"))
	if err != nil {
		t.Fatalf("Read after Load failed: %v", err)
	}
	if string(got) != "dump me\n" {
		t.Errorf("Read after Load returned %q", got)
	}
}

func TestDiff(t *testing.T) {
	j := newTestJournal(t, "abc")

	a, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "one\ntwo\nthree\n"), OutputName: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "one\n2\nthree\n"), OutputName: "b"})
	if err != nil {
		t.Fatal(err)
	}

	out, err := j.Diff(a, b, []byte("abc"))
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	for _, want := range []string{"--- a.diaria", "+++ b.diaria", "-two", "+2"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	same, err := j.Diff(a, a, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if same != "" {
		t.Errorf("diff of an entry with itself = %q", same)
	}
}

func TestChangePassphraseKeepsEntriesReadable(t *testing.T) {
	j := newTestJournal(t, "old")
	path, err := j.Add(context.Background(), AddOptions{InputPath: writeInput(t, "still here")})
	if err != nil {
		t.Fatal(err)
	}

	if err := j.ChangePassphrase([]byte("old"), []byte("new")); err != nil {
		t.Fatalf("ChangePassphrase failed: %v", err)
	}
	got, err := j.Read(path, []byte("new"))
	if err != nil {
		t.Fatalf("Read with new passphrase failed: %v", err)
	}
	if string(got) != "still here" {
		t.Errorf("Read returned %q", got)
	}
}

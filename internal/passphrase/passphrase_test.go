package passphrase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keyring"
)

// scripted returns a prompt function that answers from a fixed list.
func scripted(t *testing.T, answers ...string) (func(string) ([]byte, error), *int) {
	t.Helper()
	calls := 0
	return func(string) ([]byte, error) {
		if calls >= len(answers) {
			t.Fatalf("unexpected prompt #%d", calls+1)
		}
		calls++
		return []byte(answers[calls-1]), nil
	}, &calls
}

func TestGetPrecedence(t *testing.T) {
	gokeyring.MockInit()
	keysDir := t.TempDir()
	if err := keyring.SavePassphrase(keysDir, []byte("from-keyring")); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "pw")
	if err := os.WriteFile(file, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	prompt, _ := scripted(t, "from-prompt")

	tests := []struct {
		name string
		r    Resolver
		want string
		src  Source
	}{
		{"flag wins", Resolver{Flag: "from-flag", File: file, Env: "from-env", KeysDir: keysDir, UseKeyring: true}, "from-flag", SourceFlag},
		{"file before env", Resolver{File: file, Env: "from-env", KeysDir: keysDir, UseKeyring: true}, "from-file", SourceFile},
		{"env before keyring", Resolver{Env: "from-env", KeysDir: keysDir, UseKeyring: true}, "from-env", SourceEnv},
		{"keyring before prompt", Resolver{KeysDir: keysDir, UseKeyring: true}, "from-keyring", SourceKeyring},
		{"prompt last", Resolver{KeysDir: keysDir, Prompt: prompt}, "from-prompt", SourcePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src, err := tt.r.Get("Passphrase: ")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != tt.want || src != tt.src {
				t.Errorf("Get = %q from %v, want %q from %v", got, src, tt.want, tt.src)
			}
		})
	}
}

func TestReadFileTrimsOneLineBreak(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"plain":   "secret",
		"lf":      "secret\n",
		"crlf":    "secret\r\n",
		"two lfs": "secret\n\n",
	}
	want := map[string]string{
		"plain":   "secret",
		"lf":      "secret",
		"crlf":    "secret",
		"two lfs": "secret\n",
	}

	for name, content := range tests {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", name, err)
		}
		if string(got) != want[name] {
			t.Errorf("ReadFile(%s) = %q, want %q", name, got, want[name])
		}
	}
}

func TestGetWithRetryDropsStaleKeyringEntry(t *testing.T) {
	gokeyring.MockInit()
	keysDir := t.TempDir()
	if err := keyring.SavePassphrase(keysDir, []byte("stale")); err != nil {
		t.Fatal(err)
	}

	prompt, calls := scripted(t, "fresh")
	r := &Resolver{KeysDir: keysDir, UseKeyring: true, Prompt: prompt}

	verify := func(p []byte) error {
		if string(p) != "fresh" {
			return derrors.ErrWrongPassphrase
		}
		return nil
	}

	got, src, err := r.GetWithRetry("Passphrase: ", verify)
	if err != nil {
		t.Fatalf("GetWithRetry failed: %v", err)
	}
	if string(got) != "fresh" || src != SourcePrompt || *calls != 1 {
		t.Errorf("GetWithRetry = %q from %v after %d prompts", got, src, *calls)
	}
	if keyring.HasPassphrase(keysDir) {
		t.Error("stale keyring entry was not removed")
	}
}

func TestGetWithRetryDoesNotRetryExplicitSources(t *testing.T) {
	prompt, calls := scripted(t)
	r := &Resolver{Flag: "wrong", Prompt: prompt}

	_, _, err := r.GetWithRetry("Passphrase: ", func([]byte) error { return derrors.ErrWrongPassphrase })
	if !errors.Is(err, derrors.ErrWrongPassphrase) {
		t.Fatalf("GetWithRetry returned %v, want ErrWrongPassphrase", err)
	}
	if *calls != 0 {
		t.Errorf("prompted %d times for an explicit passphrase", *calls)
	}
}

func TestGetNew(t *testing.T) {
	prompt, _ := scripted(t, "same", "same")
	got, err := (&Resolver{Prompt: prompt}).GetNew("New: ", "Again: ")
	if err != nil || string(got) != "same" {
		t.Fatalf("GetNew = %q, %v", got, err)
	}

	prompt, _ = scripted(t, "one", "two")
	if _, err := (&Resolver{Prompt: prompt}).GetNew("New: ", "Again: "); !errors.Is(err, ErrMismatch) {
		t.Errorf("GetNew with differing answers returned %v, want ErrMismatch", err)
	}

	prompt, _ = scripted(t, "", "")
	if _, err := (&Resolver{Prompt: prompt}).GetNew("New: ", "Again: "); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("GetNew with empty answers returned %v, want ErrEmptyPassphrase", err)
	}

	got, err = (&Resolver{Env: "from-env"}).GetNew("New: ", "Again: ")
	if err != nil || string(got) != "from-env" {
		t.Errorf("GetNew from env = %q, %v", got, err)
	}
}

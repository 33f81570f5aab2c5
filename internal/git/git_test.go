package git

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "diaria test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "diaria test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)

	dir := t.TempDir()
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init failed: %v\n%s", err, out)
	}
	return dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestSyncCommitsOnlyEntries(t *testing.T) {
	dir := initRepo(t)
	write(t, dir, "2020-01-01T00:00:00.diaria", "a")
	write(t, dir, "notes.txt", "not an entry")

	r := &Runner{WorkDir: dir, Stdout: io.Discard, Stderr: io.Discard}
	if err := r.Sync(context.Background(), []string{"2020-01-01T00:00:00.diaria"}, ""); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if !IsTracked(dir, "2020-01-01T00:00:00.diaria") {
		t.Error("entry was not committed")
	}
	if IsTracked(dir, "notes.txt") {
		t.Error("non-entry file was committed")
	}

	cmd := exec.Command("git", "log", "--format=%s")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(out)) != DefaultCommitMessage {
		t.Errorf("commit message = %q", out)
	}

	// Nothing new: Sync must still succeed.
	if err := r.Sync(context.Background(), []string{"2020-01-01T00:00:00.diaria"}, ""); err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
}

func TestSyncOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	r := &Runner{WorkDir: t.TempDir(), Stdout: io.Discard, Stderr: io.Discard}
	if err := r.Sync(context.Background(), nil, ""); !errors.Is(err, ErrNotRepo) {
		t.Fatalf("Sync returned %v, want ErrNotRepo", err)
	}
}

func TestCheckStatus(t *testing.T) {
	dir := initRepo(t)
	write(t, dir, ".gitignore", "2021-*.diaria\n")
	write(t, dir, "2020-01-01T00:00:00.diaria", "a")
	write(t, dir, "2021-01-01T00:00:00.diaria", "b")

	status := CheckStatus(dir, []string{"2020-01-01T00:00:00.diaria", "2021-01-01T00:00:00.diaria"})
	if !status.IsRepo || status.HasRemote {
		t.Errorf("status = %+v", status)
	}
	if len(status.Untracked) != 1 || status.Untracked[0] != "2020-01-01T00:00:00.diaria" {
		t.Errorf("Untracked = %v", status.Untracked)
	}
	if len(status.Ignored) != 1 || status.Ignored[0] != "2021-01-01T00:00:00.diaria" {
		t.Errorf("Ignored = %v", status.Ignored)
	}

	text := FormatGitStatus(status)
	if !strings.Contains(text, "1 entry not committed") || !strings.Contains(text, "ignored by .gitignore") {
		t.Errorf("FormatGitStatus:\n%s", text)
	}
}

package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/illarion/diaria/internal/logging"
)

var ErrNotRepo = errors.New("entries directory is not a git repository")

// DefaultCommitMessage is used by Sync when none is given.
const DefaultCommitMessage = "Added entry"

// GitStatus contains git integration status information
type GitStatus struct {
	IsRepo    bool
	HasRemote bool
	Untracked []string // Entries not yet committed
	Ignored   []string // Entries matched by .gitignore (never synced)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// HasRemote reports whether any remote is configured.
func HasRemote(workDir string) bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = workDir
	output, err := cmd.Output()
	return err == nil && len(bytes.TrimSpace(output)) > 0
}

// CheckStatus reports how the given entry names relate to the repository.
func CheckStatus(workDir string, entries []string) *GitStatus {
	status := &GitStatus{}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true
	status.HasRemote = HasRemote(workDir)

	for _, name := range entries {
		if IsIgnored(workDir, name) {
			status.Ignored = append(status.Ignored, name)
			continue
		}
		if !IsTracked(workDir, name) {
			status.Untracked = append(status.Untracked, name)
		}
	}
	return status
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	var result strings.Builder
	result.WriteString("Git:\n")

	if !status.IsRepo {
		result.WriteString("   entries directory is not a git repository (sync disabled)\n")
		return result.String()
	}
	if status.HasRemote {
		result.WriteString("   ok: remote configured\n")
	} else {
		result.WriteString("   warning: no remote configured (sync will only commit)\n")
	}

	if len(status.Untracked) > 0 {
		fmt.Fprintf(&result, "   %d entr%s not committed yet (run: diaria sync)\n", len(status.Untracked), plural(len(status.Untracked)))
	} else {
		result.WriteString("   ok: all entries committed\n")
	}

	for _, name := range status.Ignored {
		fmt.Fprintf(&result, "   warning: %s is ignored by .gitignore and will not be synced\n", name)
	}
	return result.String()
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// Runner runs git in one working directory.
type Runner struct {
	WorkDir string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *logging.Logger
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	r.Logger.Debugf("git %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.WorkDir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return nil
}

// hasStagedChanges reports whether the index differs from HEAD.
func (r *Runner) hasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = r.WorkDir
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git diff failed: %w", err)
}

// Sync stages the given entry files, commits them when anything changed,
// then pulls and pushes if a remote exists.
func (r *Runner) Sync(ctx context.Context, entries []string, message string) error {
	if !IsGitRepo(r.WorkDir) {
		return fmt.Errorf("%w: %s", ErrNotRepo, r.WorkDir)
	}
	if message == "" {
		message = DefaultCommitMessage
	}

	if len(entries) > 0 {
		args := append([]string{"add", "--"}, entries...)
		if err := r.run(ctx, args...); err != nil {
			return err
		}
	}

	staged, err := r.hasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if staged {
		if err := r.run(ctx, "commit", "--quiet", "-m", message); err != nil {
			return err
		}
	} else {
		r.Logger.Infof("nothing to commit")
	}

	if !HasRemote(r.WorkDir) {
		r.Logger.Infof("no remote configured, skipping pull and push")
		return nil
	}
	if err := r.run(ctx, "pull", "--rebase", "--quiet"); err != nil {
		return err
	}
	return r.run(ctx, "push", "--quiet")
}

package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"

	derrors "github.com/illarion/diaria/internal/errors"
)

const (
	// Placeholder marks where the entry path goes in an editor template.
	Placeholder = "%"

	entryFile = "entry"
	shell     = "/bin/sh"
)

// Session is one editing session's scratch state.
type Session struct {
	Dir  string
	Path string
}

// ScratchBase returns the directory scratch sessions are created in,
// preferring the per-user runtime directory which is usually tmpfs.
func ScratchBase() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return os.TempDir()
}

// CheckTemplate rejects editor templates without a placeholder.
func CheckTemplate(template string) error {
	if !strings.Contains(template, Placeholder) {
		return fmt.Errorf("%w: %q", derrors.ErrInvalidEditorCommand, template)
	}
	return nil
}

// Substitute replaces the first placeholder with the shell-quoted path.
func Substitute(template, path string) (string, error) {
	if err := CheckTemplate(template); err != nil {
		return "", err
	}
	return strings.Replace(template, Placeholder, shellescape.Quote(path), 1), nil
}

func newSession() (*Session, error) {
	dir, err := os.MkdirTemp(ScratchBase(), "diaria-")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create scratch directory: %v", derrors.ErrIO, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: failed to restrict scratch directory: %v", derrors.ErrIO, err)
	}

	s := &Session{Dir: dir, Path: dir + string(os.PathSeparator) + entryFile}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: failed to create entry file: %v", derrors.ErrIO, err)
	}
	f.Close()
	return s, nil
}

// read returns the entry file contents. The file is opened through an
// os.Root so a symlink planted by the editor cannot point outside the
// scratch directory.
func (s *Session) read() ([]byte, error) {
	root, err := os.OpenRoot(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open scratch directory: %v", derrors.ErrIO, err)
	}
	defer root.Close()

	f, err := root.Open(entryFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open entry file: %v", derrors.ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat entry file: %v", derrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: entry file is not a regular file", derrors.ErrIO)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read entry file: %v", derrors.ErrIO, err)
	}
	return data, nil
}

func (s *Session) close() {
	os.RemoveAll(s.Dir)
}

// RunEditor runs the editor template inside sb and returns what the user
// wrote. The caller owns the returned buffer and should clear it.
func RunEditor(ctx context.Context, sb Sandbox, template string) ([]byte, error) {
	if err := CheckTemplate(template); err != nil {
		return nil, err
	}

	session, err := newSession()
	if err != nil {
		return nil, err
	}
	defer session.close()

	command, err := Substitute(template, session.Path)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		Args:   []string{shell, "-c", command},
		Dir:    session.Dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := sb.Run(ctx, cmd); err != nil {
		if code, ok := IsExitError(err); ok {
			return nil, fmt.Errorf("%w (exit code %d)", derrors.ErrEditorFailed, code)
		}
		return nil, fmt.Errorf("%w: %w", derrors.ErrEditorFailed, err)
	}

	return session.read()
}

package security

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNotBaseName  = errors.New("name must not contain a directory component")
)

// Dir confines file operations to one directory using the os.Root API,
// so names coming from directory listings or the user cannot reach
// outside it through "..", absolute paths or symlinks.
type Dir struct {
	root *os.Root
	path string
}

// Open opens dir for confined access. The directory must exist.
func Open(dir string) (*Dir, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}

	return &Dir{root: root, path: absPath}, nil
}

// Close releases the directory handle.
func (d *Dir) Close() error {
	if d.root != nil {
		return d.root.Close()
	}
	return nil
}

// Path returns the absolute path of the directory.
func (d *Dir) Path() string {
	return d.path
}

// ValidateName checks that name is a single local path component.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("%w: %s", ErrAbsolutePath, name)
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return fmt.Errorf("%w: %s", ErrNotBaseName, name)
	}
	return nil
}

// Exists reports whether name is present in the directory, without
// following a final symlink.
func (d *Dir) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	_, err := d.root.Lstat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// WriteNew creates name with data. It fails with fs.ErrExist instead of
// replacing an existing file.
func (d *Dir) WriteNew(name string, data []byte, perm os.FileMode) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	f, err := d.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		d.root.Remove(name)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		d.root.Remove(name)
		return err
	}
	return f.Close()
}

// ReadFile reads a regular file from the directory.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}

	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", name)
	}
	return io.ReadAll(f)
}

// Files lists the regular files directly inside the directory, sorted by
// name. Symlinks and subdirectories are skipped.
func (d *Dir) Files() ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(d.root.FS(), ".")
	if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e)
		}
	}
	return files, nil
}

package entrystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/logging"
	"github.com/illarion/diaria/internal/security"
)

const tempPrefix = ".tmp-"

// Item is one entry file found by List.
type Item struct {
	Name      string
	Path      string
	Timestamp time.Time
	Size      int64

	dated bool
}

// Store is an entries directory.
type Store struct {
	Dir    string
	Logger *logging.Logger
}

// New returns a Store for dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Write stores ciphertext under the name derived from ts.
func (s *Store) Write(ts time.Time, ciphertext []byte) (string, error) {
	return s.WriteName(FormatName(ts), ciphertext)
}

// WriteName stores ciphertext as name inside the entries directory.
func (s *Store) WriteName(name string, ciphertext []byte) (string, error) {
	if err := security.ValidateName(name); err != nil {
		return "", fmt.Errorf("invalid entry name: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := WritePath(path, ciphertext); err != nil {
		return "", err
	}
	s.Logger.Debugf("wrote %s (%d bytes)", path, len(ciphertext))
	return path, nil
}

// WritePath atomically creates path with data. It fails with
// ErrEntryCollision if path already exists.
func WritePath(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", derrors.ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix)
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %v", derrors.ErrIO, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write entry: %v", derrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync entry: %v", derrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close entry: %v", derrors.ErrIO, err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", derrors.ErrEntryCollision, path)
		}
		return fmt.Errorf("%w: failed to create %s: %v", derrors.ErrIO, path, err)
	}

	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// Read returns the ciphertext of the entry at path.
func Read(path string) ([]byte, error) {
	if !strings.HasSuffix(path, Ext) {
		return nil, fmt.Errorf("%w: %s is not a %s file", derrors.ErrEntryNotFound, path, Ext)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", derrors.ErrEntryNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", derrors.ErrIO, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", derrors.ErrEntryNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", derrors.ErrIO, path, err)
	}
	return data, nil
}

// List returns the entries whose names parse as timestamps, oldest
// first. Other files are skipped; a missing directory is empty.
func (s *Store) List() ([]Item, error) {
	items, err := s.Files()
	if err != nil {
		return nil, err
	}

	entries := items[:0]
	for _, it := range items {
		if it.dated {
			entries = append(entries, it)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// Files returns every regular .diaria file, sorted by name. Timestamp is
// zero for names that do not parse.
func (s *Store) Files() ([]Item, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %v", derrors.ErrIO, s.Dir, err)
	}

	var items []Item
	for _, de := range dirEntries {
		name := de.Name()
		if !de.Type().IsRegular() || !strings.HasSuffix(name, Ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		ts, ok := ParseStem(strings.TrimSuffix(name, Ext))
		if !ok {
			s.Logger.Debugf("skipping %s: name is not a timestamp", name)
		}
		items = append(items, Item{
			Name:      name,
			Path:      filepath.Join(s.Dir, name),
			Timestamp: ts,
			Size:      info.Size(),
			dated:     ok,
		})
	}
	return items, nil
}

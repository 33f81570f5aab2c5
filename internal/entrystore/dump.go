package entrystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/security"
)

const dumpExt = ".txt"

// OpenFunc decrypts one entry.
type OpenFunc func(ciphertext []byte) ([]byte, error)

// SealFunc encrypts one plaintext file.
type SealFunc func(plaintext []byte) ([]byte, error)

// Progress is called after each file is processed.
type Progress func(done, total int, name string)

// Dump decrypts every entry into outDir as <stem>.txt. All target names
// are checked before anything is decrypted; an existing file aborts the
// dump with ErrEntryCollision.
func (s *Store) Dump(outDir string, open OpenFunc, progress Progress) (int, error) {
	items, err := s.Files()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %v", derrors.ErrIO, outDir, err)
	}
	out, err := security.Open(outDir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", derrors.ErrIO, err)
	}
	defer out.Close()

	for _, it := range items {
		target := strings.TrimSuffix(it.Name, Ext) + dumpExt
		exists, err := out.Exists(target)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", derrors.ErrIO, err)
		}
		if exists {
			return 0, fmt.Errorf("%w: %s", derrors.ErrEntryCollision, target)
		}
	}

	for i, it := range items {
		ciphertext, err := Read(it.Path)
		if err != nil {
			return i, err
		}
		plaintext, err := open(ciphertext)
		if err != nil {
			return i, fmt.Errorf("%s: %w", it.Name, err)
		}

		target := strings.TrimSuffix(it.Name, Ext) + dumpExt
		err = out.WriteNew(target, plaintext, 0o600)
		crypto.ClearBytes(plaintext)
		if errors.Is(err, fs.ErrExist) {
			return i, fmt.Errorf("%w: %s", derrors.ErrEntryCollision, target)
		}
		if err != nil {
			return i, fmt.Errorf("%w: failed to write %s: %v", derrors.ErrIO, target, err)
		}
		if progress != nil {
			progress(i+1, len(items), target)
		}
	}
	s.Logger.Debugf("dumped %d entries to %s", len(items), outDir)
	return len(items), nil
}

// Load encrypts every regular file in inDir into the entries directory
// as <stem>.diaria, where the stem drops one extension. Files whose stem
// is empty are skipped. Load is all or nothing: target names are checked
// before anything is sealed, and entries written by a failed Load are
// removed again.
func (s *Store) Load(inDir string, seal SealFunc, progress Progress) (n int, err error) {
	in, err := security.Open(inDir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", derrors.ErrIO, err)
	}
	defer in.Close()

	files, err := in.Files()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list %s: %v", derrors.ErrIO, inDir, err)
	}

	type job struct{ source, target string }
	var jobs []job
	sources := make(map[string]string)
	for _, f := range files {
		stem := Stem(f.Name())
		if stem == "" {
			s.Logger.Warnf("skipping %s: no file stem", f.Name())
			continue
		}
		target := stem + Ext
		if prev, ok := sources[target]; ok {
			return 0, fmt.Errorf("%w: %s and %s both load as %s", derrors.ErrEntryCollision, prev, f.Name(), target)
		}
		sources[target] = f.Name()
		if _, err := os.Lstat(filepath.Join(s.Dir, target)); err == nil {
			return 0, fmt.Errorf("%w: %s", derrors.ErrEntryCollision, target)
		}
		jobs = append(jobs, job{source: f.Name(), target: target})
	}

	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range written {
			if rmErr := os.Remove(path); rmErr != nil {
				s.Logger.Warnf("failed to remove %s after failed load: %v", path, rmErr)
			}
		}
		n = 0
	}()

	for i, j := range jobs {
		plaintext, err := in.ReadFile(j.source)
		if err != nil {
			return i, fmt.Errorf("%w: failed to read %s: %v", derrors.ErrIO, j.source, err)
		}
		ciphertext, err := seal(plaintext)
		crypto.ClearBytes(plaintext)
		if err != nil {
			return i, fmt.Errorf("%s: %w", j.source, err)
		}
		path, err := s.WriteName(j.target, ciphertext)
		if err != nil {
			return i, err
		}
		written = append(written, path)
		if progress != nil {
			progress(i+1, len(jobs), j.target)
		}
	}
	return len(jobs), nil
}

package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/illarion/diaria/internal/codec"
	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/entrystore"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keystore"
	"github.com/illarion/diaria/internal/logging"
	"github.com/illarion/diaria/internal/sandbox"
)

// Config wires a Journal to its directories and collaborators.
type Config struct {
	KeysDir    string
	EntriesDir string

	// Sandbox runs the editor for Add. Only required when no input
	// file is given.
	Sandbox sandbox.Sandbox

	// Now defaults to time.Now.
	Now func() time.Time

	// KDF overrides the Argon2id costs used by Init and ChangePassphrase.
	KDF keystore.Params

	Logger *logging.Logger
}

// Journal is one keys directory plus one entries directory.
type Journal struct {
	cfg     Config
	keys    *keystore.Store
	entries *entrystore.Store
}

// AddOptions selects where the plaintext of a new entry comes from and
// where it goes.
type AddOptions struct {
	// Editor is a shell template with a % placeholder.
	Editor string

	// InputPath, when set, is read instead of running the editor.
	InputPath string

	// OutputName overrides the timestamp name. A bare name is placed in
	// the entries directory; a name with a directory component is used
	// as a path. The .diaria extension is appended when missing.
	OutputName string
}

// New creates a Journal.
func New(cfg Config) *Journal {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	keys := keystore.New(cfg.KeysDir)
	keys.Params = cfg.KDF
	keys.Logger = cfg.Logger

	entries := entrystore.New(cfg.EntriesDir)
	entries.Logger = cfg.Logger

	return &Journal{cfg: cfg, keys: keys, entries: entries}
}

// Keys exposes the key store.
func (j *Journal) Keys() *keystore.Store { return j.keys }

// Entries exposes the entry store.
func (j *Journal) Entries() *entrystore.Store { return j.entries }

// Init creates the key pair.
func (j *Journal) Init(passphrase []byte) (*keystore.KeyMaterial, error) {
	km, err := j.keys.Init(passphrase)
	if err != nil {
		return nil, err
	}
	j.cfg.Logger.Infof("created keys in %s", j.cfg.KeysDir)
	return km, nil
}

// ChangePassphrase rewraps the private key.
func (j *Journal) ChangePassphrase(oldPassphrase, newPassphrase []byte) error {
	return j.keys.ChangePassphrase(oldPassphrase, newPassphrase)
}

// Add captures, seals and stores one entry and returns its path. Nothing
// is created in the entries directory unless an entry is written.
func (j *Journal) Add(ctx context.Context, opts AddOptions) (string, error) {
	if opts.InputPath == "" {
		if err := sandbox.CheckTemplate(opts.Editor); err != nil {
			return "", err
		}
		if j.cfg.Sandbox == nil {
			return "", fmt.Errorf("%w: no sandbox configured", derrors.ErrSandboxUnavailable)
		}
	}

	// Fail before the user spends time in the editor.
	pub, err := j.keys.LoadPublicKey()
	if err != nil {
		return "", err
	}

	plaintext, err := j.capture(ctx, opts)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(plaintext)

	if codec.IsEmpty(plaintext) {
		return "", derrors.ErrEmptyEntry
	}

	ciphertext, err := codec.Seal(plaintext, pub)
	if err != nil {
		return "", err
	}

	var path string
	if opts.OutputName != "" {
		path = j.outputPath(opts.OutputName)
		err = entrystore.WritePath(path, ciphertext)
	} else {
		path, err = j.entries.Write(j.cfg.Now(), ciphertext)
	}
	if err != nil {
		return "", err
	}

	j.cfg.Logger.Infof("wrote %s", path)
	return path, nil
}

func (j *Journal) capture(ctx context.Context, opts AddOptions) ([]byte, error) {
	if opts.InputPath != "" {
		data, err := os.ReadFile(opts.InputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", derrors.ErrIO, opts.InputPath, err)
		}
		return data, nil
	}

	j.cfg.Logger.Debugf("running editor in %s sandbox", j.cfg.Sandbox.Name())
	return sandbox.RunEditor(ctx, j.cfg.Sandbox, opts.Editor)
}

func (j *Journal) outputPath(name string) string {
	if !strings.HasSuffix(name, entrystore.Ext) {
		name += entrystore.Ext
	}
	if filepath.Base(name) == name {
		return filepath.Join(j.cfg.EntriesDir, name)
	}
	return name
}

// Unlock returns the private key. The caller must Close it.
func (j *Journal) Unlock(passphrase []byte) (*keystore.PrivateKey, error) {
	return j.keys.Unlock(passphrase)
}

// Read decrypts the entry at path.
func (j *Journal) Read(path string, passphrase []byte) ([]byte, error) {
	ciphertext, err := entrystore.Read(path)
	if err != nil {
		return nil, err
	}

	priv, err := j.keys.Unlock(passphrase)
	if err != nil {
		return nil, err
	}
	defer priv.Close()

	return codec.Open(ciphertext, priv)
}

// Dump writes every entry to outDir as plaintext.
func (j *Journal) Dump(outDir string, passphrase []byte, progress entrystore.Progress) (int, error) {
	priv, err := j.keys.Unlock(passphrase)
	if err != nil {
		return 0, err
	}
	defer priv.Close()

	return j.entries.Dump(outDir, func(ciphertext []byte) ([]byte, error) {
		return codec.Open(ciphertext, priv)
	}, progress)
}

// Load seals every file in inDir into the entries directory.
func (j *Journal) Load(inDir string, progress entrystore.Progress) (int, error) {
	pub, err := j.keys.LoadPublicKey()
	if err != nil {
		return 0, err
	}

	return j.entries.Load(inDir, func(plaintext []byte) ([]byte, error) {
		return codec.Seal(plaintext, pub)
	}, progress)
}

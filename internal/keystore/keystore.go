package keystore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/box"

	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/logging"
)

const (
	PublicKeyFile  = "diaria.pub"
	PrivateKeyFile = "diaria.key"
	KDFFileName    = "diaria.kdf"

	stagingPrefix = ".staging-"
)

// keyFiles lists the set in commit order; the KDF file is the marker.
var keyFiles = []string{PublicKeyFile, PrivateKeyFile, KDFFileName}

// Params tunes Argon2id. Zero fields take the crypto package defaults.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// Store manages the key files of one keys directory.
type Store struct {
	Dir    string
	Params Params
	Logger *logging.Logger
}

// New returns a Store for dir with default KDF parameters.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// state counts the key files present in the directory.
func (s *Store) state() (present int, err error) {
	for _, name := range keyFiles {
		info, err := os.Stat(s.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("%w: failed to stat %s: %v", derrors.ErrIO, name, err)
		}
		if !info.Mode().IsRegular() {
			return 0, fmt.Errorf("%w: %s is not a regular file", derrors.ErrKeysCorrupt, name)
		}
		present++
	}
	return present, nil
}

// Exists reports whether any key file is present.
func (s *Store) Exists() bool {
	n, err := s.state()
	return err != nil || n > 0
}

func (s *Store) checkComplete() error {
	n, err := s.state()
	if err != nil {
		return err
	}
	switch n {
	case 0:
		return fmt.Errorf("%w in %s", derrors.ErrKeysNotFound, s.Dir)
	case len(keyFiles):
		return nil
	default:
		return fmt.Errorf("%w: %d of %d key files present in %s", derrors.ErrKeysCorrupt, n, len(keyFiles), s.Dir)
	}
}

// Init generates a new key pair protected by passphrase and persists it.
// It fails with ErrAlreadyInitialized if any key file already exists and
// leaves the directory untouched in that case.
func (s *Store) Init(passphrase []byte) (*KeyMaterial, error) {
	n, err := s.state()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w in %s", derrors.ErrAlreadyInitialized, s.Dir)
	}

	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: failed to create keys directory: %v", derrors.ErrIO, err)
	}

	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	defer crypto.ClearBytes(priv[:])

	public := &PublicKey{key: *pub}
	wrapped, kdfFile, err := s.wrap(priv[:], public, passphrase)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		PublicKeyFile:  public.Bytes(),
		PrivateKeyFile: wrapped,
	}
	kdfData, err := kdfFile.marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode kdf parameters: %w", err)
	}
	files[KDFFileName] = kdfData

	if err := s.commit(files, keyFiles); err != nil {
		return nil, err
	}
	s.Logger.Debugf("wrote key set to %s", s.Dir)

	return &KeyMaterial{PublicKey: public, WrappedPrivateKey: wrapped, KDF: kdfFile}, nil
}

func (s *Store) wrap(priv []byte, public *PublicKey, passphrase []byte) ([]byte, *KDFFile, error) {
	kdf, err := crypto.NewKDF(s.Params.Time, s.Params.Memory, s.Params.Threads)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kdf parameters: %w", err)
	}

	key := kdf.DeriveKey(passphrase)
	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()

	wrapped, err := enc.Encrypt(priv, public.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to wrap private key: %w", err)
	}
	return wrapped, newKDFFile(kdf, public.Bytes(), wrapped), nil
}

// LoadPublicKey reads the public key. The set must be complete but no
// passphrase is required.
func (s *Store) LoadPublicKey() (*PublicKey, error) {
	if err := s.checkComplete(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(PublicKeyFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read public key: %v", derrors.ErrIO, err)
	}
	pk, err := ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", derrors.ErrKeysCorrupt, err)
	}
	return pk, nil
}

// load reads and cross-checks all three files.
func (s *Store) load() (*KeyMaterial, error) {
	if err := s.checkComplete(); err != nil {
		return nil, err
	}

	pubRaw, err := os.ReadFile(s.path(PublicKeyFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read public key: %v", derrors.ErrIO, err)
	}
	wrapped, err := os.ReadFile(s.path(PrivateKeyFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read private key: %v", derrors.ErrIO, err)
	}
	kdfRaw, err := os.ReadFile(s.path(KDFFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read kdf parameters: %v", derrors.ErrIO, err)
	}

	public, err := ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", derrors.ErrKeysCorrupt, err)
	}
	kdfFile, err := parseKDFFile(kdfRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", derrors.ErrKeysCorrupt, err)
	}
	if !kdfFile.Matches(pubRaw, wrapped) {
		return nil, fmt.Errorf("%w: fingerprint mismatch", derrors.ErrKeysCorrupt)
	}
	return &KeyMaterial{PublicKey: public, WrappedPrivateKey: wrapped, KDF: kdfFile}, nil
}

// Unlock derives the wrapping key from passphrase and returns the private
// key. The caller must Close it.
func (s *Store) Unlock(passphrase []byte) (*PrivateKey, error) {
	km, err := s.load()
	if err != nil {
		return nil, err
	}
	return unwrap(km, passphrase)
}

func unwrap(km *KeyMaterial, passphrase []byte) (*PrivateKey, error) {
	key := km.KDF.KDF().DeriveKey(passphrase)
	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()

	raw, err := enc.Decrypt(km.WrappedPrivateKey, km.PublicKey.Bytes())
	if err != nil {
		return nil, derrors.ErrWrongPassphrase
	}
	if len(raw) != KeySize {
		crypto.ClearBytes(raw)
		return nil, fmt.Errorf("%w: private key has wrong length", derrors.ErrKeysCorrupt)
	}

	return newPrivateKey(raw, km.PublicKey)
}

// ChangePassphrase rewraps the private key under newPassphrase with a
// fresh salt. The public key is unchanged, so existing entries stay
// readable.
func (s *Store) ChangePassphrase(oldPassphrase, newPassphrase []byte) error {
	km, err := s.load()
	if err != nil {
		return err
	}
	priv, err := unwrap(km, oldPassphrase)
	if err != nil {
		return err
	}
	defer priv.Close()

	wrapped, kdfFile, err := s.wrap(priv.buf.Bytes(), km.PublicKey, newPassphrase)
	if err != nil {
		return err
	}
	kdfData, err := kdfFile.marshal()
	if err != nil {
		return fmt.Errorf("failed to encode kdf parameters: %w", err)
	}

	files := map[string][]byte{
		PrivateKeyFile: wrapped,
		KDFFileName:    kdfData,
	}
	if err := s.commit(files, []string{PrivateKeyFile, KDFFileName}); err != nil {
		return err
	}
	s.Logger.Debugf("rewrapped private key in %s", s.Dir)
	return nil
}

// commit writes files into a staging directory and renames them into the
// keys directory in order. Files renamed before a failure are removed
// again, except when they replaced an existing file.
func (s *Store) commit(files map[string][]byte, order []string) error {
	staging, err := os.MkdirTemp(s.Dir, stagingPrefix)
	if err != nil {
		return fmt.Errorf("%w: failed to create staging directory: %v", derrors.ErrIO, err)
	}
	defer os.RemoveAll(staging)

	for _, name := range order {
		if err := writeSynced(filepath.Join(staging, name), files[name]); err != nil {
			return err
		}
	}
	if err := syncDir(staging); err != nil {
		return err
	}

	var placed []string
	for _, name := range order {
		target := s.path(name)
		_, statErr := os.Stat(target)
		existed := statErr == nil
		if err := os.Rename(filepath.Join(staging, name), target); err != nil {
			for _, p := range placed {
				os.Remove(p)
			}
			return fmt.Errorf("%w: failed to install %s: %v", derrors.ErrIO, name, err)
		}
		if !existed {
			placed = append(placed, target)
		}
	}
	return syncDir(s.Dir)
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", derrors.ErrIO, filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: failed to write %s: %v", derrors.ErrIO, filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: failed to sync %s: %v", derrors.ErrIO, filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", derrors.ErrIO, filepath.Base(path), err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", derrors.ErrIO, dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync %s: %v", derrors.ErrIO, dir, err)
	}
	return nil
}

package passphrase

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keyring"
	"github.com/illarion/diaria/internal/logging"
)

// EnvVar holds the passphrase for non-interactive use.
const EnvVar = "DIARIA_PASSWORD"

var (
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")
	ErrMismatch        = errors.New("passphrases do not match")
	ErrNotTerminal     = errors.New("no passphrase given and stdin is not a terminal")
)

// Source records where a passphrase came from.
type Source int

const (
	SourceNone Source = iota
	SourceFlag
	SourceFile
	SourceEnv
	SourceKeyring
	SourcePrompt
)

func (s Source) String() string {
	switch s {
	case SourceFlag:
		return "flag"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceKeyring:
		return "keyring"
	case SourcePrompt:
		return "prompt"
	default:
		return "none"
	}
}

// Resolver looks up the passphrase for one keys directory.
type Resolver struct {
	Flag    string
	File    string
	Env     string
	KeysDir string

	// UseKeyring enables the OS keyring lookup.
	UseKeyring bool

	// Prompt reads a passphrase interactively. Defaults to ReadPassphrase.
	Prompt func(prompt string) ([]byte, error)

	Logger *logging.Logger
}

func (r *Resolver) prompt(msg string) ([]byte, error) {
	if r.Prompt != nil {
		return r.Prompt(msg)
	}
	return ReadPassphrase(msg)
}

// explicit returns a passphrase given on the command line or environment.
func (r *Resolver) explicit() ([]byte, Source, error) {
	switch {
	case r.Flag != "":
		return []byte(r.Flag), SourceFlag, nil
	case r.File != "":
		p, err := ReadFile(r.File)
		if err != nil {
			return nil, SourceNone, err
		}
		return p, SourceFile, nil
	case r.Env != "":
		return []byte(r.Env), SourceEnv, nil
	}
	return nil, SourceNone, nil
}

// Get returns the passphrase and where it came from. The caller is
// responsible for calling crypto.ClearBytes on it.
func (r *Resolver) Get(msg string) ([]byte, Source, error) {
	p, src, err := r.explicit()
	if err != nil || p != nil {
		return p, src, err
	}

	if r.UseKeyring && r.KeysDir != "" {
		if p, err := keyring.GetPassphrase(r.KeysDir); err == nil {
			r.Logger.Debugf("using passphrase from keyring")
			return p, SourceKeyring, nil
		}
	}

	p, err = r.prompt(msg)
	if err != nil {
		return nil, SourceNone, err
	}
	return p, SourcePrompt, nil
}

// GetWithRetry gets a passphrase and hands it to use, normally the
// operation that needs it. When a keyring passphrase fails with
// ErrWrongPassphrase the stale entry is deleted and use runs once more
// with a prompted passphrase.
func (r *Resolver) GetWithRetry(msg string, use func([]byte) error) ([]byte, Source, error) {
	p, src, err := r.Get(msg)
	if err != nil {
		return nil, src, err
	}

	err = use(p)
	if err == nil {
		return p, src, nil
	}
	crypto.ClearBytes(p)
	if src != SourceKeyring || !errors.Is(err, derrors.ErrWrongPassphrase) {
		return nil, src, err
	}

	r.Logger.Warnf("passphrase stored in keyring is out of date, removing it")
	if err := keyring.DeletePassphrase(r.KeysDir); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		r.Logger.Warnf("failed to remove keyring entry: %v", err)
	}

	p, err = r.prompt(msg)
	if err != nil {
		return nil, SourceNone, err
	}
	if err := use(p); err != nil {
		crypto.ClearBytes(p)
		return nil, SourcePrompt, err
	}
	return p, SourcePrompt, nil
}

// GetNew returns a passphrase for new key material. Explicit sources are
// used as is; otherwise the user is prompted twice.
func (r *Resolver) GetNew(msg, confirm string) ([]byte, error) {
	p, _, err := r.explicit()
	if err != nil {
		return nil, err
	}
	if p == nil {
		p, err = confirmWith(r.prompt, msg, confirm)
		if err != nil {
			return nil, err
		}
	}
	if len(p) == 0 {
		return nil, ErrEmptyPassphrase
	}
	return p, nil
}

func confirmWith(read func(string) ([]byte, error), msg, confirm string) ([]byte, error) {
	first, err := read(msg)
	if err != nil {
		return nil, err
	}
	second, err := read(confirm)
	if err != nil {
		crypto.ClearBytes(first)
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		crypto.ClearBytes(first)
		return nil, ErrMismatch
	}
	return first, nil
}

// ReadFile reads a passphrase file, dropping one trailing line break.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase file: %w", err)
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return data, nil
}

// ReadPassphrase reads a passphrase from the terminal without echoing.
// The prompt goes to stderr so stdout stays clean for entry output.
func ReadPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return p, nil
}

// ReadPassphraseConfirm reads a passphrase twice and ensures they match.
func ReadPassphraseConfirm(msg, confirm string) ([]byte, error) {
	return confirmWith(ReadPassphrase, msg, confirm)
}

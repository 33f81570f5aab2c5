package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/illarion/diaria/internal/core"
	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keyring"
	"github.com/illarion/diaria/internal/keystore"
	"github.com/illarion/diaria/internal/passphrase"
	"github.com/illarion/diaria/internal/sandbox"
)

var getenv = os.Getenv

// openJournal builds a Journal from the resolved configuration.
func openJournal(sb sandbox.Sandbox) *core.Journal {
	return core.New(core.Config{
		KeysDir:    cfg.Keys,
		EntriesDir: cfg.Entries,
		Sandbox:    sb,
		KDF: keystore.Params{
			Time:    cfg.KDF.Time,
			Memory:  cfg.KDF.MemoryKiB,
			Threads: cfg.KDF.Threads,
		},
		Logger: Logger,
	})
}

func newResolver() *passphrase.Resolver {
	return &passphrase.Resolver{
		Flag:       globals.password,
		File:       globals.passwordFile,
		Env:        getenv(passphrase.EnvVar),
		KeysDir:    cfg.Keys,
		UseKeyring: cfg.Keyring,
		Logger:     Logger,
	}
}

// withPassphrase resolves the passphrase and runs op with it, retrying
// once when a stale keyring entry is found. A passphrase typed at the
// prompt may be offered for the keyring afterwards.
func withPassphrase(op func(pass []byte) error) {
	r := newResolver()
	pass, source, err := r.GetWithRetry("Passphrase: ", op)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(pass)

	if source == passphrase.SourcePrompt && cfg.Keyring {
		OfferToSavePassphrase(pass)
	}
}

// OfferToSavePassphrase asks whether to cache a typed passphrase.
func OfferToSavePassphrase(pass []byte) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || keyring.HasPassphrase(cfg.Keys) {
		return
	}
	fmt.Fprint(os.Stderr, "Save passphrase to keyring? [y/N]: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.ToLower(strings.TrimSpace(line)) != "y" {
		return
	}
	if err := keyring.SavePassphrase(cfg.Keys, pass); err != nil {
		Logger.Warnf("failed to save to keyring: %v", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Passphrase saved to keyring")
}

// startSpinner shows progress on stderr when it is a terminal and output
// is not verbose. The returned function stops it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Debugf("failed to set spinner color: %v", err)
	}

	if globals.verbose || globals.debug || !term.IsTerminal(int(os.Stderr.Fd())) {
		Logger.Infof("%s", message)
		return s, func() {}
	}

	s.Start()
	return s, s.Stop
}

// writeOut writes data to stdout, adding a final newline for terminals.
func writeOut(data []byte) {
	os.Stdout.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println()
	}
}

func keysDir() string {
	if cfg == nil {
		return globals.keys
	}
	return cfg.Keys
}

var errPrefix = color.New(color.FgRed, color.Bold).Sprint("Error:")

// HandleError prints a message for err and exits with status 1.
func HandleError(err error) {
	switch {
	case derrors.IsOpenFailure(err):
		fmt.Fprintf(os.Stderr, "%s cannot open entry: wrong passphrase or corrupted data\n", errPrefix)
	case errors.Is(err, derrors.ErrAlreadyInitialized):
		fmt.Fprintf(os.Stderr, "%s keys already exist in %s\n", errPrefix, keysDir())
		fmt.Fprintf(os.Stderr, "Use 'diaria passwd' to change the passphrase\n")
	case errors.Is(err, derrors.ErrKeysNotFound):
		fmt.Fprintf(os.Stderr, "%s no keys found in %s\n", errPrefix, keysDir())
		fmt.Fprintf(os.Stderr, "Run 'diaria init' first\n")
	case errors.Is(err, derrors.ErrKeysCorrupt):
		fmt.Fprintf(os.Stderr, "%s %s\n", errPrefix, err)
		fmt.Fprintf(os.Stderr, "Restore the keys directory from a backup\n")
	case errors.Is(err, derrors.ErrInvalidEditorCommand):
		fmt.Fprintf(os.Stderr, "%s %s\n", errPrefix, err)
		fmt.Fprintf(os.Stderr, "Example: --editor 'vim %%'\n")
	case errors.Is(err, derrors.ErrSandboxUnavailable):
		fmt.Fprintf(os.Stderr, "%s %s\n", errPrefix, err)
		fmt.Fprintf(os.Stderr, "Run 'diaria doctor' for details, or pass --no-sandbox to edit without isolation\n")
	case errors.Is(err, derrors.ErrEditorFailed):
		fmt.Fprintf(os.Stderr, "%s Editor did not terminate successfully\n", errPrefix)
		Logger.Debugf("%v", err)
	case errors.Is(err, derrors.ErrEmptyEntry):
		fmt.Fprintf(os.Stderr, "%s entry is empty, nothing was written\n", errPrefix)
	default:
		fmt.Fprintf(os.Stderr, "%s %s\n", errPrefix, err)
	}
	os.Exit(1)
}

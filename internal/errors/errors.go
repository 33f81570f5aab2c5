package errors

import "errors"

// Key material errors.
var (
	// ErrAlreadyInitialized indicates the keys directory already holds key files.
	ErrAlreadyInitialized = errors.New("keys already initialized")

	// ErrKeysNotFound indicates the keys directory lacks the key files.
	ErrKeysNotFound = errors.New("keys not found")

	// ErrKeysCorrupt indicates an incomplete or inconsistent key set.
	ErrKeysCorrupt = errors.New("key set is incomplete or corrupted")

	// ErrWrongPassphrase indicates the private key could not be unwrapped.
	ErrWrongPassphrase = errors.New("cannot open private key")
)

// Editor and sandbox errors.
var (
	// ErrInvalidEditorCommand indicates an editor template without a % placeholder.
	ErrInvalidEditorCommand = errors.New("editor command must contain a % placeholder")

	// ErrSandboxUnavailable indicates the isolated execution context could not be built.
	ErrSandboxUnavailable = errors.New("sandbox unavailable")

	// ErrEditorFailed indicates the editor exited with a non-zero status.
	ErrEditorFailed = errors.New("editor did not terminate successfully")
)

// Entry errors.
var (
	// ErrEmptyEntry indicates plaintext that is empty after trimming whitespace.
	ErrEmptyEntry = errors.New("entry is empty")

	// ErrDecryptionFailed indicates an entry that failed authentication or decoding.
	ErrDecryptionFailed = errors.New("cannot open entry")

	// ErrEntryCollision indicates an entry file with the same name already exists.
	ErrEntryCollision = errors.New("entry already exists")

	// ErrEntryNotFound indicates a path that is missing or not an entry file.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrIO indicates a filesystem failure.
	ErrIO = errors.New("i/o failure")
)

// IsOpenFailure reports whether err means an entry or key could not be
// opened. Wrong passphrases and corrupted ciphertext are deliberately
// reported the same way.
func IsOpenFailure(err error) bool {
	return errors.Is(err, ErrWrongPassphrase) || errors.Is(err, ErrDecryptionFailed)
}

package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	SaltSize  = 16                          // Salt size in bytes
	KeySize   = chacha20poly1305.KeySize    // XChaCha20 key size
	NonceSize = chacha20poly1305.NonceSizeX // XChaCha20 nonce size
	TagSize   = chacha20poly1305.Overhead   // Poly1305 tag size
	Algorithm = "argon2id"                  // Only supported KDF

	DefaultTime    = 3         // Argon2id passes
	DefaultMemory  = 64 * 1024 // Argon2id memory in KiB
	DefaultThreads = 4         // Argon2id lanes
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrInvalidKDF        = errors.New("invalid key derivation parameters")
)

// KDF handles key derivation from passphrases
type KDF struct {
	Salt    []byte
	Time    uint32
	Memory  uint32
	Threads uint8
}

// NewKDF creates a new KDF with a random salt and the given costs.
// Zero costs fall back to the defaults. Costs that Validate would later
// reject fail here with ErrInvalidKDF.
func NewKDF(time, memory uint32, threads uint8) (*KDF, error) {
	time, memory, threads = withDefaults(time, memory, threads)
	if err := CheckCosts(time, memory, threads); err != nil {
		return nil, err
	}

	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:    salt,
		Time:    time,
		Memory:  memory,
		Threads: threads,
	}, nil
}

func withDefaults(time, memory uint32, threads uint8) (uint32, uint32, uint8) {
	if time == 0 {
		time = DefaultTime
	}
	if memory == 0 {
		memory = DefaultMemory
	}
	if threads == 0 {
		threads = DefaultThreads
	}
	return time, memory, threads
}

// CheckCosts reports whether NewKDF would accept the costs. Zero means
// default, as in NewKDF.
func CheckCosts(time, memory uint32, threads uint8) error {
	time, memory, threads = withDefaults(time, memory, threads)
	if memory < 8*uint32(threads) {
		return fmt.Errorf("%w: memory %d KiB is below 8 KiB per thread (%d threads)", ErrInvalidKDF, memory, threads)
	}
	return nil
}

// Validate rejects parameters that could not have been produced by NewKDF.
func (k *KDF) Validate() error {
	if len(k.Salt) < 8 || k.Time == 0 || k.Memory < 8*uint32(k.Threads) || k.Threads == 0 {
		return ErrInvalidKDF
	}
	return nil
}

// DeriveKey derives a wrapping key from a passphrase.
// The caller is responsible for calling ClearBytes on the result.
func (k *KDF) DeriveKey(passphrase []byte) []byte {
	return argon2.IDKey(passphrase, k.Salt, k.Time, k.Memory, k.Threads, KeySize)
}

// Encryptor provides authenticated encryption
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key.
// The encryptor takes ownership of key and clears it on Destroy.
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{
		key: key,
	}
}

// Encrypt encrypts plaintext using XChaCha20-Poly1305, binding it to
// additionalData. The random nonce is prepended to the result.
func (e *Encryptor) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Decrypt reverses Encrypt. Any authentication failure is reported as
// ErrAuthFailed regardless of its cause.
func (e *Encryptor) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := ciphertext[:NonceSize]
	plaintext, err := aead.Open(nil, nonce, ciphertext[NonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

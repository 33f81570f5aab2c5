package codec

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/nacl/box"

	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keystore"
)

const (
	Magic   = "DIARIA"
	Version = 1

	headerSize = len(Magic) + 1

	// Overhead is the fixed envelope size on top of the compressed body.
	Overhead = headerSize + box.AnonymousOverhead

	maxDecodedSize = 256 << 20
)

// whitespace is the set trimmed by IsEmpty.
const whitespace = " \t\n\r"

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderCRC(false),
	)
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxDecodedSize),
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// IsEmpty reports whether plaintext holds nothing but spaces, tabs and
// line breaks.
func IsEmpty(plaintext []byte) bool {
	return len(bytes.Trim(plaintext, whitespace)) == 0
}

// Seal encrypts plaintext to pub. Empty entries are rejected with
// ErrEmptyEntry.
func Seal(plaintext []byte, pub *keystore.PublicKey) ([]byte, error) {
	if IsEmpty(plaintext) {
		return nil, derrors.ErrEmptyEntry
	}

	compressed := zstdEncoder.EncodeAll(plaintext, nil)
	defer crypto.ClearBytes(compressed)

	out := make([]byte, 0, Overhead+len(compressed))
	out = append(out, Magic...)
	out = append(out, Version)

	out, err := box.SealAnonymous(out, compressed, pub.Array(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to seal entry: %w", err)
	}
	return out, nil
}

// Open decrypts an envelope with priv.
func Open(ciphertext []byte, priv *keystore.PrivateKey) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, fmt.Errorf("%w: truncated envelope", derrors.ErrDecryptionFailed)
	}
	if string(ciphertext[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: not a diaria entry", derrors.ErrDecryptionFailed)
	}
	if v := ciphertext[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: unsupported entry version %d", derrors.ErrDecryptionFailed, v)
	}

	compressed, ok := box.OpenAnonymous(nil, ciphertext[headerSize:], priv.Public().Array(), priv.Array())
	if !ok {
		return nil, derrors.ErrDecryptionFailed
	}
	defer crypto.ClearBytes(compressed)

	plaintext, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		crypto.ClearBytes(plaintext)
		return nil, fmt.Errorf("%w: corrupt entry body", derrors.ErrDecryptionFailed)
	}
	return plaintext, nil
}

package keystore

import (
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/illarion/diaria/internal/crypto"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/secret"
)

const KeySize = 32

// PublicKey seals entries. It is never secret.
type PublicKey struct {
	key [KeySize]byte
}

// ParsePublicKey validates raw key bytes.
func ParsePublicKey(raw []byte) (*PublicKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", KeySize, len(raw))
	}
	pk := &PublicKey{}
	copy(pk.key[:], raw)
	return pk, nil
}

func (p *PublicKey) Array() *[KeySize]byte { return &p.key }

func (p *PublicKey) Bytes() []byte { return p.key[:] }

// PrivateKey opens entries. Its scalar lives in a secret.Buffer; Close
// zeroes it. A closed PrivateKey panics on use.
type PrivateKey struct {
	buf    *secret.Buffer
	public PublicKey
}

// lockKey moves a scalar into locked memory.
var lockKey = secret.NewFromBytes

func newPrivateKey(raw []byte, public *PublicKey) (*PrivateKey, error) {
	derived, err := curve25519.X25519(raw, curve25519.Basepoint)
	if err != nil {
		crypto.ClearBytes(raw)
		return nil, fmt.Errorf("%w: invalid private key: %v", derrors.ErrKeysCorrupt, err)
	}
	if !crypto.ConstantTimeCompare(derived, public.Bytes()) {
		crypto.ClearBytes(raw)
		return nil, fmt.Errorf("%w: private key does not match public key", derrors.ErrKeysCorrupt)
	}

	buf, err := lockKey(raw)
	if err != nil {
		crypto.ClearBytes(raw)
		return nil, fmt.Errorf("%w: failed to lock private key in memory: %v", derrors.ErrIO, err)
	}
	return &PrivateKey{buf: buf, public: *public}, nil
}

// Array exposes the scalar for nacl/box. The pointer aliases protected
// memory and is invalid after Close.
func (k *PrivateKey) Array() *[KeySize]byte { return k.buf.Array32() }

func (k *PrivateKey) Public() *PublicKey { return &k.public }

// Close zeroes the private key.
func (k *PrivateKey) Close() error {
	if k == nil || k.buf == nil {
		return nil
	}
	return k.buf.Close()
}

// KeyMaterial is the persisted unit produced by Init.
type KeyMaterial struct {
	PublicKey         *PublicKey
	WrappedPrivateKey []byte
	KDF               *KDFFile
}

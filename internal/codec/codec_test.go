package codec

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keystore"
)

func testKeys(t *testing.T) (*keystore.PublicKey, *keystore.PrivateKey) {
	t.Helper()
	s := keystore.New(filepath.Join(t.TempDir(), "keys"))
	s.Params = keystore.Params{Time: 1, Memory: 64, Threads: 1}
	km, err := s.Init([]byte("pw"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	priv, err := s.Unlock([]byte("pw"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	t.Cleanup(func() { priv.Close() })
	return km.PublicKey, priv
}

func TestSealOpenRoundTrip(t *testing.T) {
	pub, priv := testKeys(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"single char", []byte("x")},
		{"text", []byte("Dear diary,\ntoday nothing happened.\n")},
		{"leading whitespace", []byte("\n\n  indented\n")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80, 'a'}},
		{"large", bytes.Repeat([]byte("all work and no play "), 50000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := Seal(tt.plaintext, pub)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if !bytes.HasPrefix(ct, []byte(Magic)) {
				t.Errorf("ciphertext does not start with magic")
			}
			pt, err := Open(ct, priv)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(pt, tt.plaintext) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(pt), len(tt.plaintext))
			}
		})
	}
}

func TestSealRejectsEmpty(t *testing.T) {
	pub, _ := testKeys(t)

	for _, p := range []string{"", " ", "\n", "\t\r\n  \n"} {
		if _, err := Seal([]byte(p), pub); !errors.Is(err, derrors.ErrEmptyEntry) {
			t.Errorf("Seal(%q) returned %v, want ErrEmptyEntry", p, err)
		}
	}
}

func TestSealIsNotDeterministic(t *testing.T) {
	pub, _ := testKeys(t)

	a, err := Seal([]byte("same"), pub)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seal([]byte("same"), pub)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext produced identical ciphertexts")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	pub, priv := testKeys(t)

	ct, err := Seal([]byte("secret thoughts"), pub)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"flipped body byte", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"future version", func(b []byte) []byte { b[len(Magic)] = Version + 1; return b }},
		{"truncated", func(b []byte) []byte { return b[:Overhead-1] }},
		{"empty", func(b []byte) []byte { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := tt.mutate(bytes.Clone(ct))
			pt, err := Open(mutated, priv)
			if !errors.Is(err, derrors.ErrDecryptionFailed) {
				t.Fatalf("Open returned %v, want ErrDecryptionFailed", err)
			}
			if pt != nil {
				t.Error("Open returned partial plaintext on failure")
			}
		})
	}
}

func TestOpenWithOtherKeyFails(t *testing.T) {
	pub, _ := testKeys(t)
	_, other := testKeys(t)

	ct, err := Seal([]byte("for someone else"), pub)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ct, other); !errors.Is(err, derrors.ErrDecryptionFailed) {
		t.Fatalf("Open with foreign key returned %v, want ErrDecryptionFailed", err)
	}
}

package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/illarion/diaria/internal/crypto"
)

const kdfFormatVersion = 1

// KDFFile is the on-disk JSON structure holding the key derivation
// parameters and the key set fingerprint.
type KDFFile struct {
	Version     int    `json:"version"`
	Algorithm   string `json:"algorithm"`
	Salt        []byte `json:"salt"`
	Time        uint32 `json:"time"`
	Memory      uint32 `json:"memory_kib"`
	Threads     uint8  `json:"threads"`
	Fingerprint string `json:"fingerprint"`
}

func newKDFFile(kdf *crypto.KDF, public, wrapped []byte) *KDFFile {
	return &KDFFile{
		Version:     kdfFormatVersion,
		Algorithm:   crypto.Algorithm,
		Salt:        kdf.Salt,
		Time:        kdf.Time,
		Memory:      kdf.Memory,
		Threads:     kdf.Threads,
		Fingerprint: fingerprint(public, wrapped),
	}
}

func parseKDFFile(data []byte) (*KDFFile, error) {
	var f KDFFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse kdf parameters: %w", err)
	}
	if f.Version != kdfFormatVersion {
		return nil, fmt.Errorf("unsupported kdf file version %d", f.Version)
	}
	if f.Algorithm != crypto.Algorithm {
		return nil, fmt.Errorf("unsupported kdf algorithm %q", f.Algorithm)
	}
	if err := f.KDF().Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// KDF returns the derivation parameters.
func (f *KDFFile) KDF() *crypto.KDF {
	return &crypto.KDF{
		Salt:    f.Salt,
		Time:    f.Time,
		Memory:  f.Memory,
		Threads: f.Threads,
	}
}

// Matches reports whether the fingerprint covers exactly these key files.
func (f *KDFFile) Matches(public, wrapped []byte) bool {
	return crypto.ConstantTimeCompare([]byte(f.Fingerprint), []byte(fingerprint(public, wrapped)))
}

func (f *KDFFile) marshal() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

func fingerprint(public, wrapped []byte) string {
	h := blake3.New()
	h.Write(public)
	h.Write(wrapped)
	return hex.EncodeToString(h.Sum(nil))
}

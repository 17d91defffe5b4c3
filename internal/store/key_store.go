package store

import (
	"errors"
	"fmt"
	"os"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

const keyFileMode = 0o600

// ErrKeyExists is returned by SaveKey when it would overwrite a key.
var ErrKeyExists = errors.New("store: key file already exists")

// KeyFileStore keeps a relay key in a single file.
type KeyFileStore struct {
	path string
}

func NewKeyFileStore(path string) *KeyFileStore {
	return &KeyFileStore{path: path}
}

// Path is the backing file.
func (s *KeyFileStore) Path() string { return s.path }

// SaveKey writes k. Unless overwrite is set an existing file is left alone
// and ErrKeyExists returned.
func (s *KeyFileStore) SaveKey(k domain.SymmetricKey, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(s.path); err == nil {
			return ErrKeyExists
		}
	}
	if err := writeFile(s.path, []byte(crypto.EncodeKey(k)+"\n"), keyFileMode); err != nil {
		return fmt.Errorf("store: writing key: %w", err)
	}
	return nil
}

// LoadKey reads the key back.
func (s *KeyFileStore) LoadKey() (domain.SymmetricKey, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return domain.SymmetricKey{}, fmt.Errorf("store: reading key: %w", err)
	}
	return crypto.ParseKey(string(b))
}

package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/security"
	"github.com/google/uuid"
)

// Store keeps argon2id password hashes keyed by user id in its own file,
// deliberately outside the application snapshot so credential material never
// rides along with state saves or audit details.
type Store struct {
	mu          sync.Mutex
	path        string
	passwordCfg config.PasswordConfig
}

// NewStore builds a file-backed credential store.
func NewStore(path string, passwordCfg config.PasswordConfig) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials path is required")
	}
	return &Store{path: path, passwordCfg: passwordCfg}, nil
}

// Set hashes and records the password for the given user.
func (s *Store) Set(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[userID.String()] = hash
	return s.write(entries)
}

// Verify reports whether the password matches the stored hash. An unknown
// user verifies false without error so callers can collapse the outcome into
// a single invalid-credentials failure.
func (s *Store) Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return false, err
	}
	hash, ok := entries[userID.String()]
	if !ok {
		return false, nil
	}
	return security.VerifyPassword(password, hash)
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersist, err, "read credentials")
	}

	entries := map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersist, err, "decode credentials")
	}
	return entries, nil
}

func (s *Store) write(entries map[string]string) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "encode credentials")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "create temp credentials")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "write credentials")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "flush credentials")
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "restrict credentials")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "replace credentials")
	}
	return nil
}

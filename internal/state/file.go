package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
)

// FileStore persists the snapshot as a single JSON document. Atomicity comes
// from writing a temp file in the same directory and renaming it over the
// target.
type FileStore struct {
	path   string
	limits config.LimitsConfig
	logg   *logger.Logger
}

// NewFileStore builds a file-backed snapshot store.
func NewFileStore(path string, limits config.LimitsConfig, logg *logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &FileStore{path: path, limits: limits, logg: logg}, nil
}

func (s *FileStore) Load(ctx context.Context) *models.AppState {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logg.Warn(ctx, fmt.Sprintf("unreadable snapshot at %s, starting empty", s.path))
		}
		return Default(s.limits)
	}

	var snapshot models.AppState
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("corrupt snapshot at %s, starting empty", s.path))
		return Default(s.limits)
	}
	normalize(&snapshot, s.limits)
	return &snapshot
}

func (s *FileStore) Save(ctx context.Context, snapshot *models.AppState) error {
	snapshot.Revision++
	if err := s.write(snapshot); err != nil {
		snapshot.Revision--
		return err
	}
	return nil
}

func (s *FileStore) SaveRevision(ctx context.Context, snapshot *models.AppState) error {
	current := s.persistedRevision()
	if current != snapshot.Revision {
		return pkgerrors.New(pkgerrors.CodeVersionConflict, "snapshot revision has moved")
	}
	return s.Save(ctx, snapshot)
}

func (s *FileStore) persistedRevision() int64 {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}
	var snapshot models.AppState
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return 0
	}
	return snapshot.Revision
}

func (s *FileStore) write(snapshot *models.AppState) error {
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "encode snapshot")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "create temp snapshot")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "flush snapshot")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "replace snapshot")
	}
	return nil
}

// normalize restores invariants that decoding can relax: nil collections
// become empty and a missing free-bill limit falls back to the configured
// default.
func normalize(snapshot *models.AppState, limits config.LimitsConfig) {
	if snapshot.Users == nil {
		snapshot.Users = []models.User{}
	}
	if snapshot.Bills == nil {
		snapshot.Bills = []models.Bill{}
	}
	if snapshot.Logs == nil {
		snapshot.Logs = []models.AuditLog{}
	}
	if snapshot.Limits.FreeBillLimit <= 0 {
		snapshot.Limits.FreeBillLimit = limits.FreeBillLimit
	}
}

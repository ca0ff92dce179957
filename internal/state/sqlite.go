package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"gorm.io/gorm"
)

// appMeta is the single-row table carrying the snapshot-level fields.
type appMeta struct {
	ID                int   `gorm:"primaryKey"`
	SystemMaintenance bool  `gorm:"column:system_maintenance;not null"`
	FreeBillLimit     int   `gorm:"column:free_bill_limit;not null"`
	Revision          int64 `gorm:"column:revision;not null"`
}

func (appMeta) TableName() string { return "app_meta" }

// SQLiteStore persists the snapshot into an embedded sqlite database. Every
// save rewrites the users, bills, and logs tables plus the meta row inside
// one transaction, so readers never observe a partial state.
type SQLiteStore struct {
	client *db.Client
	limits config.LimitsConfig
	logg   *logger.Logger
}

// NewSQLiteStore migrates the snapshot tables and builds the store.
func NewSQLiteStore(ctx context.Context, client *db.Client, limits config.LimitsConfig, logg *logger.Logger) (*SQLiteStore, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := client.DB().WithContext(ctx).AutoMigrate(&models.User{}, &models.Bill{}, &models.AuditLog{}, &appMeta{}); err != nil {
		return nil, fmt.Errorf("migrating snapshot tables: %w", err)
	}
	return &SQLiteStore{client: client, limits: limits, logg: logg}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) *models.AppState {
	snapshot := Default(s.limits)

	var meta appMeta
	err := s.client.DB().WithContext(ctx).First(&meta, 1).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "unreadable snapshot meta, starting empty")
		}
		return snapshot
	}
	snapshot.SystemMaintenance = meta.SystemMaintenance
	snapshot.Limits.FreeBillLimit = meta.FreeBillLimit
	snapshot.Revision = meta.Revision

	if err := s.client.DB().WithContext(ctx).Order("position").Find(&snapshot.Users).Error; err != nil {
		s.logg.Warn(ctx, "unreadable users table, starting empty")
		return Default(s.limits)
	}
	if err := s.client.DB().WithContext(ctx).Order("position").Find(&snapshot.Bills).Error; err != nil {
		s.logg.Warn(ctx, "unreadable bills table, starting empty")
		return Default(s.limits)
	}
	if err := s.client.DB().WithContext(ctx).Order("position").Find(&snapshot.Logs).Error; err != nil {
		s.logg.Warn(ctx, "unreadable logs table, starting empty")
		return Default(s.limits)
	}

	normalize(snapshot, s.limits)
	return snapshot
}

func (s *SQLiteStore) Save(ctx context.Context, snapshot *models.AppState) error {
	if err := s.save(ctx, snapshot, false); err != nil {
		return err
	}
	snapshot.Revision++
	return nil
}

func (s *SQLiteStore) SaveRevision(ctx context.Context, snapshot *models.AppState) error {
	if err := s.save(ctx, snapshot, true); err != nil {
		return err
	}
	snapshot.Revision++
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, snapshot *models.AppState, checkRevision bool) error {
	assignPositions(snapshot)

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if checkRevision {
			var meta appMeta
			err := tx.First(&meta, 1).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if meta.Revision != snapshot.Revision {
				return pkgerrors.New(pkgerrors.CodeVersionConflict, "snapshot revision has moved")
			}
		}

		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := wipe.Delete(&models.User{}).Error; err != nil {
			return err
		}
		if err := wipe.Delete(&models.Bill{}).Error; err != nil {
			return err
		}
		if err := wipe.Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}

		if len(snapshot.Users) > 0 {
			if err := tx.Create(&snapshot.Users).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Bills) > 0 {
			if err := tx.Create(&snapshot.Bills).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Logs) > 0 {
			if err := tx.Create(&snapshot.Logs).Error; err != nil {
				return err
			}
		}

		meta := appMeta{
			ID:                1,
			SystemMaintenance: snapshot.SystemMaintenance,
			FreeBillLimit:     snapshot.Limits.FreeBillLimit,
			Revision:          snapshot.Revision + 1,
		}
		return tx.Save(&meta).Error
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodePersist, err, "write snapshot")
	}
	return nil
}

func assignPositions(snapshot *models.AppState) {
	for i := range snapshot.Users {
		snapshot.Users[i].Position = i
	}
	for i := range snapshot.Bills {
		snapshot.Bills[i].Position = i
	}
	for i := range snapshot.Logs {
		snapshot.Logs[i].Position = i
	}
}

package state

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
)

// Open builds the snapshot store selected by configuration. The returned
// closer is non-nil when the backend holds an open connection.
func Open(ctx context.Context, cfg config.StoreConfig, limits config.LimitsConfig, logg *logger.Logger) (Store, io.Closer, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		client, err := db.New(ctx, cfg.Path, logg)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewSQLiteStore(ctx, client, limits, logg)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, client, nil
	case config.StoreDriverFile:
		store, err := NewFileStore(cfg.Path, limits, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

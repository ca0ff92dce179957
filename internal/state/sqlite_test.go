package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, filepath.Join(t.TempDir(), "billminder.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := NewSQLiteStore(ctx, client, testLimits, testLogger())
	require.NoError(t, err)
	return store
}

func TestSQLiteStoreLoadEmptyReturnsDefault(t *testing.T) {
	store := newSQLiteStore(t)

	snapshot := store.Load(context.Background())

	assert.Empty(t, snapshot.Users)
	assert.Empty(t, snapshot.Bills)
	assert.Empty(t, snapshot.Logs)
	assert.Equal(t, 5, snapshot.Limits.FreeBillLimit)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	original := sampleState(t)

	require.NoError(t, store.Save(ctx, original))

	loaded := store.Load(ctx)
	require.Len(t, loaded.Users, 1)
	assert.Equal(t, "alice@example.com", loaded.Users[0].Email)
	require.Len(t, loaded.Bills, 1)
	assert.True(t, loaded.Bills[0].Amount.Equal(decimal.RequireFromString("1250.00")),
		"amount did not round-trip: %s", loaded.Bills[0].Amount)
	require.Len(t, loaded.Logs, 1)
	assert.Equal(t, "SIGNUP", loaded.Logs[0].Action)
	assert.Equal(t, original.Revision, loaded.Revision)
}

func TestSQLiteStorePreservesLogOrder(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	snapshot := sampleState(t)
	first := snapshot.Logs[0]
	second := first
	second.ID = snapshot.Users[0].ID // any distinct uuid
	second.Action = "LOGIN"
	snapshot.AppendLog(second)

	require.NoError(t, store.Save(ctx, snapshot))

	loaded := store.Load(ctx)
	require.Len(t, loaded.Logs, 2)
	assert.Equal(t, "SIGNUP", loaded.Logs[0].Action)
	assert.Equal(t, "LOGIN", loaded.Logs[1].Action)
}

func TestSQLiteStoreLastWriterWins(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState(t)))

	writerA := store.Load(ctx)
	writerB := store.Load(ctx)

	writerA.SystemMaintenance = true
	require.NoError(t, store.Save(ctx, writerA))

	writerB.Users[0].FullName = "Renamed By B"
	require.NoError(t, store.Save(ctx, writerB))

	final := store.Load(ctx)
	assert.False(t, final.SystemMaintenance, "writer A's change must be silently discarded")
	assert.Equal(t, "Renamed By B", final.Users[0].FullName, "writer B's content must win")
}

func TestSQLiteStoreSaveRevisionConflict(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState(t)))

	writerA := store.Load(ctx)
	writerB := store.Load(ctx)

	writerA.SystemMaintenance = true
	require.NoError(t, store.SaveRevision(ctx, writerA))

	writerB.Users[0].FullName = "Stale Writer"
	err := store.SaveRevision(ctx, writerB)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVersionConflict), "expected version conflict, got %v", err)

	final := store.Load(ctx)
	assert.True(t, final.SystemMaintenance, "writer A's change must survive")
}

func TestOpenSelectsSQLiteDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billminder.db")
	store, closer, err := Open(context.Background(), config.StoreConfig{Driver: config.StoreDriverSQLite, Path: path}, testLimits, testLogger())
	require.NoError(t, err)
	require.NotNil(t, closer, "sqlite driver should return a closer")
	defer closer.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
}

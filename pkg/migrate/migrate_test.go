package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/db"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestValidateFSRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/1_bad.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	assert.Error(t, ValidateFS(fsys, "migrations"))

	fsys = fstest.MapFS{
		"migrations/20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"migrations/20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	assert.ErrorContains(t, ValidateFS(fsys, "migrations"), "duplicate")

	fsys = fstest.MapFS{
		"migrations/20260101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
	}
	assert.ErrorContains(t, ValidateFS(fsys, "migrations"), "goose Down")
}

func TestUpCreatesSchemaOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_up?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	client := db.Wrap(conn)

	ctx := context.Background()
	require.NoError(t, Up(ctx, client))

	for _, table := range []string{"identities", "catalog_items", "orders", "order_line_items", "outbox_events"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, MigrateToVersion(ctx, sqlDB, "sqlite3", "20260901120100"))
	assert.False(t, conn.Migrator().HasTable("orders"))
	assert.True(t, conn.Migrator().HasTable("catalog_items"))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", Dialect(db.DriverSQLite))
	assert.Equal(t, "postgres", Dialect(db.DriverPostgres))
}

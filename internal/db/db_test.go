package db

import (
	"testing"

	"taskboard/internal/config"
	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnect_SQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}
	conn, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, Migrate(conn, zap.NewNop()))
	for _, m := range models.All() {
		assert.True(t, conn.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestMigrate_PendingInviteIndex(t *testing.T) {
	conn, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(conn, zap.NewNop()))

	assert.True(t, conn.Migrator().HasIndex(&models.Invite{}, "idx_invites_pending"))
}

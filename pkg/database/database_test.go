package database

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMemory(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, DSN: ":memory:"}, hclog.NewNullLogger())
	require.NoError(t, err)
	defer Close(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections, "sqlite is pinned to one connection")

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM sqlite_master").Scan(&count).Error)
}

func TestConnect_Errors(t *testing.T) {
	_, err := Connect(Config{Driver: "mysql", DSN: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")

	_, err = Connect(Config{Driver: DriverSQLite}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}

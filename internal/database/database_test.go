package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/models"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	require.Error(t, err)

	_, err = ConnectPostgres("")
	require.Error(t, err)
}

func TestMigrateCreatesSchemaOnSQLite(t *testing.T) {
	db, err := Connect(DriverSQLite, fmt.Sprintf("file:migrate_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range []interface{}{&models.Script{}, &models.ScriptTopic{}, &models.ActivityLog{}, &models.ProjectFile{}} {
		require.True(t, db.Migrator().HasTable(model))
	}
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "", time.Second)
	require.Error(t, err)
}

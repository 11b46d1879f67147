package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDatabaseSQLite(t *testing.T) {
	db, err := InitDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { CloseDatabase(db) })

	for _, m := range []any{&models.User{}, &models.Folder{}, &models.File{}, &models.Share{}, &models.Notification{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestInitDatabaseUnknownDriver(t *testing.T) {
	_, err := InitDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestInitRedisDisabled(t *testing.T) {
	client, c, err := InitRedis(context.Background(), &config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, cache.NopCache{}, c)
}

func TestInitSearchDisabled(t *testing.T) {
	engine, err := InitSearch(&config.ElasticsearchConfig{}, repositories.NewFileRepository(nil))
	require.NoError(t, err)
	assert.IsType(t, &search.DBEngine{}, engine)
}

func TestInitStorageLocal(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Type:          "local",
		LocalBasePath: t.TempDir(),
		LocalSignKey:  "secret",
		PublicBaseURL: "http://localhost:8080/api/v1/blobs",
	}}
	svc, err := InitStorage(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorageService{}, svc)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadConfigFrom_File(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  frontend_url: "https://box.example.com"
database:
  driver: mysql
  dsn: "root:root@tcp(localhost:3306)/cloudbox"
storage:
  type: minio
  presigned_url_expiry: 30m
jwt:
  secret_key: "secret"
mail:
  driver: postmark
  postmark_server_token: "server-token"
`)

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://box.example.com", cfg.Server.FrontendURL)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, 30*time.Minute, cfg.Storage.PresignedURLExpiry)
	assert.Equal(t, "postmark", cfg.Mail.Driver)
	// 未配置的项使用默认值
	assert.Equal(t, int64(10<<30), cfg.Storage.QuotaBytes)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `
jwt:
  secret_key: "from-file"
`)
	t.Setenv("GO_CLOUDBOX_JWT_SECRET_KEY", "from-env")
	t.Setenv("GO_CLOUDBOX_DATABASE_DSN", "file:test.db")

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	// 本地存储签名密钥回落到 JWT 密钥
	assert.Equal(t, "from-env", cfg.Storage.LocalSignKey)
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		dir := writeConfig(t, "server:\n  port: \"8080\"\n")
		_, err := LoadConfigFrom(dir)
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		dir := writeConfig(t, "jwt:\n  secret_key: x\ndatabase:\n  driver: oracle\n")
		_, err := LoadConfigFrom(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := writeConfig(t, "jwt: [unterminated\n")
		_, err := LoadConfigFrom(dir)
		require.Error(t, err)
	})
}

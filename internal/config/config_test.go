package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, StorageFilesystem, cfg.Storage.Backend)
	require.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, "0.0.0.0:5000", cfg.Server.Address())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALEXANDER_SERVER_PORT", "8088")
	t.Setenv("ALEXANDER_DATABASE_DRIVER", "mongo")
	t.Setenv("ALEXANDER_DATABASE_URI", "mongodb://mongo:27017")
	t.Setenv("ALEXANDER_REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8088, cfg.Server.Port)
	require.Equal(t, DriverMongo, cfg.Database.Driver)
	require.Equal(t, "mongodb://mongo:27017", cfg.Database.URI)
	require.True(t, cfg.Redis.Enabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
  base_url: "http://library.local"
database:
  driver: postgres
  host: db
  user: lib
  database: library
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 7000, cfg.Server.Port)
	require.Equal(t, "http://library.local", cfg.Server.BaseURL)
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, "host=db port=5432 user=lib password= dbname=library sslmode=prefer", cfg.Database.DSN())
	require.Equal(t, "debug", cfg.Logging.Level)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 5000},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"},
		Storage:  StorageConfig{Backend: StorageFilesystem, DataDir: "/tmp/books"},
		Auth: AuthConfig{
			SessionTTL: time.Hour,
			BcryptCost: 10,
			LockTTL:    time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{
			name: "mongo without uri",
			mutate: func(c *Config) {
				c.Database.Driver = DriverMongo
				c.Database.MongoDatabase = "lib"
			},
			wantErr: true,
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageS3
			},
			wantErr: true,
		},
		{name: "short session key", mutate: func(c *Config) { c.Auth.SessionKey = "abcd" }, wantErr: true},
		{
			name: "valid session key",
			mutate: func(c *Config) {
				c.Auth.SessionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
			},
		},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetSessionKey(t *testing.T) {
	key, err := AuthConfig{}.GetSessionKey()
	require.NoError(t, err)
	require.Nil(t, key)

	key, err = AuthConfig{SessionKey: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"}.GetSessionKey()
	require.NoError(t, err)
	require.Len(t, key, 32)

	_, err = AuthConfig{SessionKey: "zz"}.GetSessionKey()
	require.Error(t, err)
}

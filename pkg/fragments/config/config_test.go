package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/fragments/pkg/fragments"
	"github.com/tendant/fragments/pkg/fragments/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_BACKEND", "fs")
	t.Setenv("FRAGMENTS_BASE_DIR", t.TempDir())
	t.Setenv("HTPASSWD_FILE", "/etc/fragments/htpasswd")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, config.BackendFS, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.BaseDir)
	assert.Equal(t, "/etc/fragments/htpasswd", cfg.Auth.HtpasswdFile)
}

func TestValidate(t *testing.T) {
	base := func() *config.ServerConfig {
		return &config.ServerConfig{
			Port:        "8080",
			Environment: "testing",
			Storage:     config.StorageConfig{Backend: config.BackendMemory},
		}
	}

	t.Run("valid memory config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = "dynamodb"
		assert.Error(t, cfg.Validate())
	})

	t.Run("fs backend requires base dir", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = config.BackendFS
		assert.Error(t, cfg.Validate())

		cfg.Storage.BaseDir = "/var/lib/fragments"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("s3 backend requires bucket", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = config.BackendS3
		assert.Error(t, cfg.Validate())

		cfg.Storage.Bucket = "fragments"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("both auth schemes rejected", func(t *testing.T) {
		cfg := base()
		cfg.Auth.HtpasswdFile = "/etc/htpasswd"
		cfg.Auth.JWTSecret = "secret"
		assert.Error(t, cfg.Validate())
	})
}

func TestBuildStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := &config.ServerConfig{
			Port:    "8080",
			Storage: config.StorageConfig{Backend: config.BackendMemory},
		}
		store, err := cfg.BuildStore()
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("fs", func(t *testing.T) {
		cfg := &config.ServerConfig{
			Port: "8080",
			Storage: config.StorageConfig{
				Backend: config.BackendFS,
				BaseDir: t.TempDir(),
			},
		}
		store, err := cfg.BuildStore()
		require.NoError(t, err)
		assert.NotNil(t, store)
	})
}

func TestBuildService(t *testing.T) {
	cfg := &config.ServerConfig{
		Port:    "8080",
		Storage: config.StorageConfig{Backend: config.BackendMemory},
	}

	svc, err := cfg.BuildService()
	require.NoError(t, err)

	f, err := svc.CreateFragment(context.Background(), fragments.CreateFragmentRequest{
		OwnerID: "owner-a",
		Type:    "text/plain",
		Data:    []byte("wired"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size)
}

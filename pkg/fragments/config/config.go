// Package config builds the fragments service from an explicit configuration
// struct constructed once at process start. Backend and auth selection is a
// deployment-time choice; nothing in the core reads the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/fragments/pkg/fragments"
	fsstorage "github.com/tendant/fragments/pkg/fragments/storage/fs"
	memorystorage "github.com/tendant/fragments/pkg/fragments/storage/memory"
	s3storage "github.com/tendant/fragments/pkg/fragments/storage/s3"
)

// Storage backend names accepted in StorageConfig.Backend.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendS3     = "s3"
)

// ServerConfig represents server configuration for the fragments service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	Storage StorageConfig
	Auth    AuthConfig
}

// StorageConfig selects and parameterizes the storage backend. Exactly one
// backend is active per process.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"memory"`

	// Filesystem backend
	BaseDir string `env:"FRAGMENTS_BASE_DIR"`

	// S3 backend
	Bucket          string `env:"AWS_S3_BUCKET_NAME" env-default:"fragments"`
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT_URL"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"AWS_S3_FORCE_PATH_STYLE" env-default:"true"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET"`
}

// AuthConfig selects the authentication scheme for the HTTP layer: HTTP
// Basic against an htpasswd file, or bearer JWT verified with a shared
// secret. Configuring both is rejected.
type AuthConfig struct {
	HtpasswdFile string `env:"HTPASSWD_FILE"`
	JWTSecret    string `env:"JWT_SECRET"`
}

// Load reads configuration from the environment and validates it.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFS:
		if c.Storage.BaseDir == "" {
			return errors.New("FRAGMENTS_BASE_DIR is required for the fs backend")
		}
	case BackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("AWS_S3_BUCKET_NAME is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (use %q, %q, or %q)",
			c.Storage.Backend, BackendMemory, BackendFS, BackendS3)
	}

	if c.Auth.HtpasswdFile != "" && c.Auth.JWTSecret != "" {
		return errors.New("configuration enables both htpasswd and JWT auth; only one is allowed")
	}

	return nil
}

// BuildStore creates the configured storage backend
func (c *ServerConfig) BuildStore() (fragments.Store, error) {
	switch c.Storage.Backend {
	case BackendMemory:
		return memorystorage.New(), nil
	case BackendFS:
		return fsstorage.New(fsstorage.Config{BaseDir: c.Storage.BaseDir})
	case BackendS3:
		return s3storage.New(s3storage.Config{
			Region:                 c.Storage.Region,
			Bucket:                 c.Storage.Bucket,
			AccessKeyID:            c.Storage.AccessKeyID,
			SecretAccessKey:        c.Storage.SecretAccessKey,
			Endpoint:               c.Storage.Endpoint,
			UsePathStyle:           c.Storage.UsePathStyle,
			CreateBucketIfNotExist: c.Storage.CreateBucket,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
}

// BuildService creates a Service instance backed by the configured store
func (c *ServerConfig) BuildService() (fragments.Service, error) {
	store, err := c.BuildStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend: %w", err)
	}
	return fragments.New(fragments.WithStore(store))
}

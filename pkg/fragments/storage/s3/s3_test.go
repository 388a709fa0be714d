package s3

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration(t *testing.T) {
	t.Run("empty bucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("region defaults to us-east-1", func(t *testing.T) {
		store, err := New(Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		s, ok := store.(*Store)
		require.True(t, ok)
		assert.Equal(t, "us-east-1", s.config.Region)
	})

	t.Run("custom endpoint accepted", func(t *testing.T) {
		store, err := New(Config{
			Bucket:          "test-bucket",
			Endpoint:        "http://localhost:4566",
			UsePathStyle:    true,
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "owner-a/frag-1/metadata", metadataKey("owner-a", "frag-1"))
	assert.Equal(t, "owner-a/frag-1/data", dataKey("owner-a", "frag-1"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(errors.New("connection refused")))
	assert.False(t, isNotFound(nil))
}

// Package s3 implements the fragments.Store interface on S3-compatible
// object stores. A fragment occupies two objects under the `ownerId/id/`
// prefix: `metadata` (JSON record) and `data` (raw blob). Listing walks
// common prefixes one level below the owner, following continuation tokens
// until the store reports the listing complete.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/fragments/pkg/fragments"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (LocalStack, MinIO)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Store is an S3-compatible implementation of the fragments.Store interface
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	config   Config
}

// New creates a new S3-compatible storage backend
func New(config Config) (fragments.Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	store := &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   config.Bucket,
		config:   config,
	}

	if config.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return store, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (s *Store) createBucketIfNotExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}
	if s.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err = s.client.CreateBucket(ctx, createInput)
	if err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func metadataKey(ownerID, id string) string {
	return fmt.Sprintf("%s/%s/metadata", ownerID, id)
}

func dataKey(ownerID, id string) string {
	return fmt.Sprintf("%s/%s/data", ownerID, id)
}

func (s *Store) WriteMetadata(ctx context.Context, f *fragments.Fragment) error {
	key := metadataKey(f.OwnerID, f.ID)

	record, err := json.Marshal(f)
	if err != nil {
		return s.storageErr("write_metadata", key, err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(record),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return s.storageErr("write_metadata", key, err)
	}
	return nil
}

func (s *Store) ReadMetadata(ctx context.Context, ownerID, id string) (*fragments.Fragment, error) {
	key := metadataKey(ownerID, id)

	record, err := s.getObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, fragments.ErrFragmentNotFound
		}
		return nil, s.storageErr("read_metadata", key, err)
	}

	var f fragments.Fragment
	if err := json.Unmarshal(record, &f); err != nil {
		return nil, s.storageErr("read_metadata", key, err)
	}
	return &f, nil
}

func (s *Store) WriteData(ctx context.Context, ownerID, id string, data []byte) error {
	key := dataKey(ownerID, id)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return s.storageErr("write_data", key, err)
	}
	return nil
}

func (s *Store) ReadData(ctx context.Context, ownerID, id string) ([]byte, error) {
	key := dataKey(ownerID, id)

	data, err := s.getObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, fragments.ErrFragmentNotFound
		}
		return nil, s.storageErr("read_data", key, err)
	}
	return data, nil
}

// ListIDs enumerates the prefixes one level below `ownerId/`. The delimiter
// keeps other owners' keys out of the result; the paginator follows
// continuation tokens so truncated listings are never silently dropped.
func (s *Store) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	prefix := ownerID + "/"

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	ids := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return []string{}, nil
			}
			return nil, s.storageErr("list", prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, prefix), "/")
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Delete removes both objects. S3 deletes are idempotent, so a fragment
// that is partially or fully absent deletes cleanly.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	for _, key := range []string{metadataKey(ownerID, id), dataKey(ownerID, id)} {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil && !isNotFound(err) {
			return s.storageErr("delete", key, err)
		}
	}
	return nil
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}

// isNotFound translates the store's not-found signals (NoSuchKey on reads,
// NotFound from some S3-compatible services) to the uniform contract.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

func (s *Store) storageErr(op, key string, err error) error {
	return &fragments.StorageError{Backend: "s3", Key: key, Op: op, Err: err}
}

// Package fs implements the fragments.Store interface on the local
// filesystem. Each owner gets one directory under the base directory;
// a fragment is stored as a `<id>.json` metadata file next to a `<id>.data`
// blob file.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/fragments/pkg/fragments"
)

const (
	metadataSuffix = ".json"
	dataSuffix     = ".data"
)

// Store is a filesystem implementation of the fragments.Store interface
type Store struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing fragments
}

// New creates a new filesystem storage backend, creating the base directory
// if it does not exist.
func New(config Config) (fragments.Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{baseDir: config.BaseDir}, nil
}

// ownerDir validates the key parts and returns the owner's directory.
// Key parts become path elements, so separators are rejected outright.
func (s *Store) ownerDir(ownerID string, parts ...string) (string, error) {
	for _, p := range append([]string{ownerID}, parts...) {
		if p == "" || strings.ContainsAny(p, `/\`) || p == "." || p == ".." {
			return "", fmt.Errorf("invalid key element %q", p)
		}
	}
	return filepath.Join(s.baseDir, ownerID), nil
}

func (s *Store) WriteMetadata(ctx context.Context, f *fragments.Fragment) error {
	dir, err := s.ownerDir(f.OwnerID, f.ID)
	if err != nil {
		return s.storageErr("write_metadata", f.OwnerID+"/"+f.ID, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.storageErr("write_metadata", f.OwnerID+"/"+f.ID, err)
	}

	record, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return s.storageErr("write_metadata", f.OwnerID+"/"+f.ID, err)
	}

	path := filepath.Join(dir, f.ID+metadataSuffix)
	if err := os.WriteFile(path, record, 0o644); err != nil {
		return s.storageErr("write_metadata", f.OwnerID+"/"+f.ID, err)
	}
	return nil
}

func (s *Store) ReadMetadata(ctx context.Context, ownerID, id string) (*fragments.Fragment, error) {
	dir, err := s.ownerDir(ownerID, id)
	if err != nil {
		return nil, s.storageErr("read_metadata", ownerID+"/"+id, err)
	}

	record, err := os.ReadFile(filepath.Join(dir, id+metadataSuffix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fragments.ErrFragmentNotFound
	} else if err != nil {
		return nil, s.storageErr("read_metadata", ownerID+"/"+id, err)
	}

	var f fragments.Fragment
	if err := json.Unmarshal(record, &f); err != nil {
		return nil, s.storageErr("read_metadata", ownerID+"/"+id, err)
	}
	return &f, nil
}

func (s *Store) WriteData(ctx context.Context, ownerID, id string, data []byte) error {
	dir, err := s.ownerDir(ownerID, id)
	if err != nil {
		return s.storageErr("write_data", ownerID+"/"+id, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.storageErr("write_data", ownerID+"/"+id, err)
	}

	if err := os.WriteFile(filepath.Join(dir, id+dataSuffix), data, 0o644); err != nil {
		return s.storageErr("write_data", ownerID+"/"+id, err)
	}
	return nil
}

func (s *Store) ReadData(ctx context.Context, ownerID, id string) ([]byte, error) {
	dir, err := s.ownerDir(ownerID, id)
	if err != nil {
		return nil, s.storageErr("read_data", ownerID+"/"+id, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, id+dataSuffix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fragments.ErrFragmentNotFound
	} else if err != nil {
		return nil, s.storageErr("read_data", ownerID+"/"+id, err)
	}
	return data, nil
}

// ListIDs enumerates the owner's directory and keeps entries matching the
// metadata naming convention. An owner without a directory has no fragments
// yet; that is an empty listing, not an error.
func (s *Store) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	dir, err := s.ownerDir(ownerID)
	if err != nil {
		return nil, s.storageErr("list", ownerID, err)
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	} else if err != nil {
		return nil, s.storageErr("list", ownerID, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metadataSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, metadataSuffix))
	}
	return ids, nil
}

// Delete removes both the metadata file and the data file. Files already
// gone are fine; the goal is absence, not prior existence.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	dir, err := s.ownerDir(ownerID, id)
	if err != nil {
		return s.storageErr("delete", ownerID+"/"+id, err)
	}

	for _, suffix := range []string{metadataSuffix, dataSuffix} {
		if err := os.Remove(filepath.Join(dir, id+suffix)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s.storageErr("delete", ownerID+"/"+id, err)
		}
	}
	return nil
}

func (s *Store) storageErr(op, key string, err error) error {
	return &fragments.StorageError{Backend: "fs", Key: key, Op: op, Err: err}
}

// Package storage is the file abstraction behind products:export and
// products:import. The "local" disk is always configured; the "s3" disk
// (AWS S3, MinIO, R2) is added when S3_BUCKET is set.
//
//	m, err := storage.NewManager(ctx, storage.ConfigFromEnv())
//	disk, err := m.Disk("")          // default disk (STORAGE_DISK)
//	err = disk.Put(ctx, "exports/products.json", r)
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shashiranjanraj/productd/config"
)

// ErrNotExist is returned by Get when path does not exist on the disk.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is implemented by every driver. Paths are slash-separated and
// relative to the disk root.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader) error
	// Get opens path for reading. The caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes path. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// List returns every file path under prefix, recursively, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// URL returns the public URL of path.
	URL(path string) string
}

// Config selects and configures the disks.
type Config struct {
	Default   string
	LocalRoot string
	LocalURL  string

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string // empty for AWS; set for MinIO and friends
	S3URL      string
}

// ConfigFromEnv reads the STORAGE_* and S3_* settings.
func ConfigFromEnv() Config {
	return Config{
		Default:    config.StorageDefault(),
		LocalRoot:  config.StorageLocalRoot(),
		LocalURL:   config.StorageURL(),
		S3Bucket:   config.StorageS3Bucket(),
		S3Region:   config.StorageS3Region(),
		S3Key:      config.StorageS3Key(),
		S3Secret:   config.StorageS3Secret(),
		S3Endpoint: config.StorageS3Endpoint(),
		S3URL:      config.StorageS3URL(),
	}
}

// Manager holds the configured disks.
type Manager struct {
	disks       map[string]Disk
	defaultDisk string
}

// NewManager boots the local disk and, when a bucket is configured, the s3
// disk. It fails if the default disk cannot be booted.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	m := &Manager{disks: map[string]Disk{}, defaultDisk: cfg.Default}
	if m.defaultDisk == "" {
		m.defaultDisk = "local"
	}

	local, err := NewLocal(cfg.LocalRoot, cfg.LocalURL)
	if err != nil {
		return nil, err
	}
	m.disks["local"] = local

	if cfg.S3Bucket != "" {
		d, err := NewS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		m.disks["s3"] = d
	}

	if _, ok := m.disks[m.defaultDisk]; !ok {
		return nil, fmt.Errorf("storage: default disk %q is not configured", m.defaultDisk)
	}
	return m, nil
}

// Register adds or replaces a named disk.
func (m *Manager) Register(name string, d Disk) {
	m.disks[name] = d
}

// Disk returns the named disk, or the default disk when name is "".
func (m *Manager) Disk(name string) (Disk, error) {
	if name == "" {
		name = m.defaultDisk
	}
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

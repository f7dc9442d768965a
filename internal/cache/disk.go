package cache

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/peterbourgon/diskv/v3"
)

// DiskKV stores each key as one file under a base directory.
type DiskKV struct {
	d *diskv.Diskv
}

// NewDiskKV opens (or lazily creates) a store rooted at dir.
func NewDiskKV(dir string) *DiskKV {
	return &DiskKV{d: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
		FilePerm:     0o600,
		PathPerm:     0o700,
	})}
}

func (k *DiskKV) Get(key string) ([]byte, error) {
	v, err := k.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (k *DiskKV) Set(key string, value []byte) error {
	if err := k.d.Write(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

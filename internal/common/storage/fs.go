package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStorage implements ObjectStorage on a directory, typically a shared or synced folder.
// Buckets are subdirectories of Root and keys are slash-separated relative paths.
type FSStorage struct {
	Root string
}

var _ ObjectStorage = (*FSStorage)(nil)

func NewFSStorage(root string) (*FSStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir failed: %w", err)
	}
	return &FSStorage{Root: abs}, nil
}

func (s *FSStorage) path(bucket, objectKey string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("objectKey is required")
	}
	clean := filepath.Clean(filepath.FromSlash(objectKey))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("objectKey %q escapes the bucket", objectKey)
	}
	return filepath.Join(s.Root, bucket, clean), nil
}

func (s *FSStorage) GetObject(ctx context.Context, bucket, objectKey string) (ObjectReader, error) {
	path, err := s.path(bucket, objectKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, objectKey, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("open object failed: %w", err)
	}
	return f, nil
}

// PutObject writes through a temp file and renames it into place.
func (s *FSStorage) PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	if reader == nil {
		return fmt.Errorf("reader is required")
	}
	path, err := s.path(bucket, objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir failed: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object failed: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write object failed: %w", err)
	}
	if sizeBytes >= 0 && n != sizeBytes {
		return fmt.Errorf("write object: got %d bytes, want %d", n, sizeBytes)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit object failed: %w", err)
	}
	return nil
}

func (s *FSStorage) StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error) {
	path, err := s.path(bucket, objectKey)
	if err != nil {
		return ObjectStat{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectStat{}, fmt.Errorf("%s/%s: %w", bucket, objectKey, ErrObjectNotFound)
		}
		return ObjectStat{}, fmt.Errorf("stat object failed: %w", err)
	}
	sum := md5.Sum(data)
	return ObjectStat{SizeBytes: int64(len(data)), ETag: hex.EncodeToString(sum[:])}, nil
}

func (s *FSStorage) ListObjects(ctx context.Context, bucket, prefix string) <-chan ObjectInfo {
	out := make(chan ObjectInfo, 1)
	go func() {
		defer close(out)
		root := filepath.Join(s.Root, bucket)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && path == root {
					return filepath.SkipAll
				}
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)
			if !strings.HasPrefix(key, prefix) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			select {
			case out <- ObjectInfo{Key: key, SizeBytes: info.Size()}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			select {
			case out <- ObjectInfo{Err: fmt.Errorf("list objects failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

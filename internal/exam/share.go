package exam

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mockct/internal/common/storage"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// Share syncs snapshot files between a PoolDir and object storage.
type Share struct {
	Store  storage.ObjectStorage
	Bucket string
	Prefix string
}

func (s Share) key(name string) string {
	return path.Join(strings.TrimSuffix(s.Prefix, "/"), name)
}

func contentType(name string) string {
	if strings.HasSuffix(name, ".zst") {
		return "application/zstd"
	}
	return "application/json"
}

// Push uploads every snapshot file of dir. It returns the uploaded keys.
func (s Share) Push(ctx context.Context, dir PoolDir) ([]string, error) {
	names, err := dir.Files()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, appErr.Newf(appErr.PoolNotFound, "no pool snapshots in %s", dir.Dir)
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir.Dir, name))
		if err != nil {
			return keys, fmt.Errorf("read snapshot failed: %w", err)
		}
		key := s.key(name)
		if err := s.Store.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), contentType(name)); err != nil {
			return keys, appErr.Wrapf(err, appErr.StorageError, "upload %s", key)
		}
		logger.Info(ctx, "snapshot pushed", zap.String("key", key), zap.Int("bytes", len(data)))
		keys = append(keys, key)
	}
	return keys, nil
}

// Pull downloads every snapshot under the prefix into dir. Each file is checked to
// decode before it replaces the local copy.
func (s Share) Pull(ctx context.Context, dir PoolDir) ([]string, error) {
	prefix := strings.TrimSuffix(s.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var keys []string
	for obj := range s.Store.ListObjects(listCtx, s.Bucket, prefix) {
		if obj.Err != nil {
			return nil, appErr.Wrap(obj.Err, appErr.StorageError)
		}
		if rest := strings.TrimPrefix(obj.Key, prefix); strings.Contains(rest, "/") || !IsSnapshotFile(rest) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) == 0 {
		return nil, appErr.Newf(appErr.PoolNotFound, "no pool snapshots under %q", prefix)
	}

	if err := os.MkdirAll(dir.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pool dir failed: %w", err)
	}
	written := make([]string, 0, len(keys))
	for _, key := range keys {
		data, err := s.fetch(ctx, key)
		if err != nil {
			return written, err
		}
		name := path.Base(key)
		if _, err := DecodeSnapshot(name, data); err != nil {
			return written, err
		}
		dst := filepath.Join(dir.Dir, name)
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("write snapshot failed: %w", err)
		}
		logger.Info(ctx, "snapshot pulled", zap.String("key", key), zap.String("path", dst))
		written = append(written, dst)
	}
	return written, nil
}

func (s Share) fetch(ctx context.Context, key string) ([]byte, error) {
	r, err := s.Store.GetObject(ctx, s.Bucket, key)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "download %s", key)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "download %s", key)
	}
	return data, nil
}

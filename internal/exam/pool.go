package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	appErr "mockct/pkg/errors"
)

const (
	snapshotPrefix = "pool_"
	jsonExt        = ".json"
	zstdExt        = ".json.zst"
)

// Snapshot is a frozen candidate pool for one bucket, shared so that every participant
// picks from the same list.
type Snapshot struct {
	Bucket    Bucket    `json:"bucket"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []Problem `json:"items"`
}

// PoolDir reads and writes snapshots under a directory.
type PoolDir struct {
	Dir      string
	Compress bool
}

// Path returns where the snapshot for bucket is written.
func (p PoolDir) Path(bucket string) string {
	ext := jsonExt
	if p.Compress {
		ext = zstdExt
	}
	return filepath.Join(p.Dir, snapshotPrefix+bucket+ext)
}

// Save writes s, compressing with zstd when configured.
func (p PoolDir) Save(s Snapshot) (string, error) {
	if s.Tags == nil {
		s.Tags = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot failed: %w", err)
	}
	if p.Compress {
		if data, err = compress(data); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create pool dir failed: %w", err)
	}
	path := p.Path(s.Bucket.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot failed: %w", err)
	}
	return path, nil
}

// Load reads the snapshot for bucket. A compressed file wins over a plain one.
func (p PoolDir) Load(bucket string) (Snapshot, error) {
	for _, path := range []string{
		filepath.Join(p.Dir, snapshotPrefix+bucket+zstdExt),
		filepath.Join(p.Dir, snapshotPrefix+bucket+jsonExt),
	} {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("read snapshot failed: %w", err)
		}
		return DecodeSnapshot(path, data)
	}
	return Snapshot{}, appErr.Newf(appErr.PoolNotFound, "pool snapshot for %q not found in %s", bucket, p.Dir).
		WithDetail("path", p.Path(bucket))
}

// LoadAll loads the snapshot of every bucket.
func (p PoolDir) LoadAll(buckets []Bucket) (map[string]Snapshot, error) {
	out := make(map[string]Snapshot, len(buckets))
	for _, b := range buckets {
		s, err := p.Load(b.Name)
		if err != nil {
			return nil, err
		}
		out[b.Name] = s
	}
	return out, nil
}

// Files lists snapshot file names in the directory.
func (p PoolDir) Files() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pool dir failed: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsSnapshotFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IsSnapshotFile reports whether name looks like a pool snapshot.
func IsSnapshotFile(name string) bool {
	name = filepath.Base(name)
	return strings.HasPrefix(name, snapshotPrefix) &&
		(strings.HasSuffix(name, jsonExt) || strings.HasSuffix(name, zstdExt))
}

// DecodeSnapshot parses snapshot bytes; name decides whether they are zstd compressed.
func DecodeSnapshot(name string, data []byte) (Snapshot, error) {
	var s Snapshot
	if strings.HasSuffix(name, ".zst") {
		var err error
		if data, err = decompress(data); err != nil {
			return s, err
		}
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse snapshot %s failed: %w", filepath.Base(name), err)
	}
	return s, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer failed: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader failed: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot failed: %w", err)
	}
	return out, nil
}

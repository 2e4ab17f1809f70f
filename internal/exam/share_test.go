package exam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mockct/internal/common/storage"
	"mockct/internal/testutil"
	appErr "mockct/pkg/errors"
)

func TestSharePushPull(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFSStorage(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	share := Share{Store: store, Bucket: "mockct", Prefix: "pool/"}

	src := PoolDir{Dir: filepath.Join(t.TempDir(), "pool"), Compress: true}
	for _, b := range DefaultBuckets[:2] {
		if _, err := src.Save(Snapshot{Bucket: b, UpdatedAt: time.Now(), Items: []Problem{{ProblemID: 1000, Level: 1}}}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	keys, err := share.Push(ctx, src)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	testutil.AssertEqual(t, len(keys), 2)
	testutil.AssertEqual(t, keys[0], "pool/pool_easy.json.zst")

	dst := PoolDir{Dir: filepath.Join(t.TempDir(), "pool")}
	written, err := share.Pull(ctx, dst)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	testutil.AssertEqual(t, len(written), 2)

	snap, err := dst.Load("veasy")
	if err != nil {
		t.Fatalf("load pulled: %v", err)
	}
	testutil.AssertEqual(t, snap.Items[0].ProblemID, 1000)
}

func TestSharePushEmptyDir(t *testing.T) {
	store, _ := storage.NewFSStorage(t.TempDir())
	_, err := Share{Store: store}.Push(context.Background(), PoolDir{Dir: t.TempDir()})
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.PoolNotFound)
}

func TestSharePullNothing(t *testing.T) {
	store, _ := storage.NewFSStorage(t.TempDir())
	_, err := Share{Store: store, Prefix: "pool"}.Pull(context.Background(), PoolDir{Dir: t.TempDir()})
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.PoolNotFound)
}

// brokenLister fails the listing and keeps offering keys until ctx is canceled.
type brokenLister struct {
	storage.ObjectStorage
	stopped chan struct{}
}

func (b *brokenLister) ListObjects(ctx context.Context, bucket, prefix string) <-chan storage.ObjectInfo {
	out := make(chan storage.ObjectInfo)
	go func() {
		defer close(b.stopped)
		defer close(out)
		infos := []storage.ObjectInfo{{Err: errors.New("listing interrupted")}}
		for i := 0; i < 100; i++ {
			infos = append(infos, storage.ObjectInfo{Key: fmt.Sprintf("pool/pool_b%d.json", i)})
		}
		for _, info := range infos {
			select {
			case out <- info:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func TestSharePullListErrorStopsListing(t *testing.T) {
	lister := &brokenLister{stopped: make(chan struct{})}
	share := Share{Store: lister, Bucket: "mockct", Prefix: "pool"}

	_, err := share.Pull(context.Background(), PoolDir{Dir: t.TempDir()})
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.StorageError)
	select {
	case <-lister.stopped:
	case <-time.After(time.Second):
		t.Fatal("listing goroutine still running after Pull returned")
	}
}

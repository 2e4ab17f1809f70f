package exam

import (
	"context"
	"encoding/binary"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"mockct/pkg/utils/logger"
)

// Problem is one pool entry as returned by solved.ac.
type Problem struct {
	ProblemID int    `json:"problemId"`
	TitleKo   string `json:"titleKo,omitempty"`
	Title     string `json:"title,omitempty"`
	Level     int    `json:"level"`
}

// DisplayTitle prefers the Korean title.
func (p Problem) DisplayTitle() string {
	if p.TitleKo != "" {
		return p.TitleKo
	}
	return p.Title
}

// Seed derives the shuffle seed for an exam code and bucket name.
func Seed(examCode, bucket string) (uint64, uint64) {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(examCode + "|" + bucket))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:])
}

// Pick selects up to count problems from pool. The same exam code, bucket and pool
// always give the same pick.
func Pick(pool []Problem, examCode, bucket string, count int) []Problem {
	if len(pool) == 0 || count <= 0 {
		return nil
	}
	s1, s2 := Seed(examCode, bucket)
	rng := rand.New(rand.NewPCG(s1, s2))
	idx := rng.Perm(len(pool))
	if count > len(idx) {
		count = len(idx)
	}
	out := make([]Problem, 0, count)
	for _, i := range idx[:count] {
		out = append(out, pool[i])
	}
	return out
}

// Selection is the pick for one bucket.
type Selection struct {
	Bucket    Bucket
	Available int
	Problems  []Problem
}

// Short reports whether the pool held fewer problems than requested.
func (s Selection) Short() bool {
	return len(s.Problems) < s.Bucket.Count
}

// Compose picks every bucket from its snapshot. Snapshots are matched by bucket name.
func Compose(ctx context.Context, examCode string, buckets []Bucket, pools map[string]Snapshot) []Selection {
	out := make([]Selection, 0, len(buckets))
	for _, b := range buckets {
		items := pools[b.Name].Items
		sel := Selection{
			Bucket:    b,
			Available: len(items),
			Problems:  Pick(items, examCode, b.Name, b.Count),
		}
		if sel.Short() {
			logger.Warn(ctx, "not enough candidates in bucket",
				zap.String("bucket", b.Name),
				zap.Int("requested", b.Count),
				zap.Int("available", sel.Available),
			)
		}
		out = append(out, sel)
	}
	return out
}

// Flatten returns all picked problems in bucket order.
func Flatten(sels []Selection) []Problem {
	var out []Problem
	for _, s := range sels {
		out = append(out, s.Problems...)
	}
	return out
}

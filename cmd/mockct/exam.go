package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"mockct/internal/exam"
	appErr "mockct/pkg/errors"
)

var poolCmd = &cli.Command{
	Name:  "pool",
	Usage: "manage the shared problem pool snapshots",
	Commands: []*cli.Command{
		{
			Name:  "refresh",
			Usage: "search solved.ac and rewrite the snapshot of every bucket",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  "bucket",
					Usage: `custom bucket "name:TIER_RANGE:COUNT" (repeatable); default is the five shared buckets`,
				},
				&cli.StringFlag{
					Name:  "tags",
					Usage: "comma separated solved.ac tags, e.g. graphs,dp",
				},
			},
			Action: poolRefresh,
		},
		{
			Name:  "push",
			Usage: "upload the snapshots to the configured storage",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				a := appFrom(ctx)
				share, err := a.share()
				if err != nil {
					return err
				}
				keys, err := share.Push(ctx, a.poolDir())
				for _, k := range keys {
					a.out.Success("[ok] pushed %s", k)
				}
				return err
			},
		},
		{
			Name:  "pull",
			Usage: "download the snapshots from the configured storage",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				a := appFrom(ctx)
				share, err := a.share()
				if err != nil {
					return err
				}
				paths, err := share.Pull(ctx, a.poolDir())
				for _, p := range paths {
					a.out.Success("[ok] pulled %s", p)
				}
				return err
			},
		},
	},
}

func poolRefresh(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)
	buckets, err := bucketsFromFlags(cmd.StringSlice("bucket"), "")
	if err != nil {
		return err
	}
	if len(cmd.StringSlice("bucket")) == 0 {
		buckets = exam.DefaultBuckets
	}
	tags := a.cfg.Exam.Tags
	if cmd.IsSet("tags") {
		tags = splitTags(cmd.String("tags"))
	}

	search := a.solvedac()
	dir := a.poolDir()
	for _, b := range buckets {
		items, err := search.SearchBucket(ctx, b, tags)
		if err != nil {
			return err
		}
		path, err := dir.Save(exam.Snapshot{
			Bucket:    b,
			Tags:      tags,
			UpdatedAt: time.Now(),
			Items:     items,
		})
		if err != nil {
			return err
		}
		a.out.Success("[ok] %s: %d candidates -> %s", b.Name, len(items), path)
	}
	a.out.Info("share %s with the participants (mockct pool push)", dir.Dir)
	return nil
}

var examCmd = &cli.Command{
	Name:  "exam",
	Usage: "pick the exam problems for an exam code and write the announcement",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "exam-code",
			Usage: "exam code shared by every participant",
		},
		&cli.StringFlag{
			Name:  "difficulty",
			Usage: "difficulty preset: easy, mid or hard",
		},
		&cli.StringSliceFlag{
			Name:  "bucket",
			Usage: `custom bucket "name:TIER_RANGE:COUNT" (repeatable), overrides --difficulty`,
		},
		&cli.IntFlag{
			Name:  "duration",
			Usage: "exam length in minutes (default from config)",
		},
		&cli.StringFlag{
			Name:  "out",
			Value: "EXAM.md",
			Usage: "where to write the announcement",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		a := appFrom(ctx)

		code := strings.TrimSpace(cmd.String("exam-code"))
		for code == "" {
			answer, err := a.prompt.Ask(ctx, "exam code", "")
			if err != nil {
				return err
			}
			code = strings.TrimSpace(answer)
		}

		difficulty := cmd.String("difficulty")
		if difficulty == "" && len(cmd.StringSlice("bucket")) == 0 {
			answer, err := a.prompt.Ask(ctx, "difficulty (easy/mid/hard)", exam.DefaultPreset)
			if err != nil {
				return err
			}
			difficulty = answer
		}
		buckets, err := bucketsFromFlags(cmd.StringSlice("bucket"), difficulty)
		if err != nil {
			return err
		}

		pools, err := a.poolDir().LoadAll(buckets)
		if err != nil {
			if appErr.Is(err, appErr.PoolNotFound) {
				a.out.Failure("pool snapshot missing; the organizer runs `mockct pool refresh` and shares it first")
			}
			return err
		}
		sels := exam.Compose(ctx, code, buckets, pools)
		for _, s := range sels {
			if s.Short() {
				a.out.Failure("[warn] %s: wanted %d, only %d candidates", s.Bucket.Name, s.Bucket.Count, s.Available)
			}
		}

		a.out.Info("=== mock exam (exam code: %s) ===", code)
		for _, line := range exam.Listing(exam.Flatten(sels)) {
			a.out.Info("%s", line)
		}

		duration := a.cfg.Exam.Duration
		if cmd.IsSet("duration") {
			duration = int(cmd.Int("duration"))
		}
		out := cmd.String("out")
		if err := os.WriteFile(out, []byte(exam.Announcement(code, duration, sels)), 0o644); err != nil {
			return fmt.Errorf("write announcement failed: %w", err)
		}
		a.out.Success("[ok] announcement written to %s", out)
		return nil
	},
}

// bucketsFromFlags parses custom buckets, or falls back to the difficulty preset.
func bucketsFromFlags(raw []string, difficulty string) ([]exam.Bucket, error) {
	if len(raw) == 0 {
		if difficulty == "" {
			return nil, nil
		}
		return exam.PresetBuckets(difficulty)
	}
	out := make([]exam.Bucket, 0, len(raw))
	for _, r := range raw {
		b, err := exam.ParseBucket(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Package solvedac searches problems on the solved.ac API.
package solvedac

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	httpclient "mockct/internal/cli/http"
	"mockct/internal/exam"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

const searchPath = "/search/problem"

// Client queries solved.ac.
type Client struct {
	http     *httpclient.Client
	maxPages int
	pageSize int
}

func New(baseURL string, timeout time.Duration, maxPages, pageSize int) *Client {
	if maxPages <= 0 {
		maxPages = 3
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		http:     httpclient.New(baseURL, timeout, nil),
		maxPages: maxPages,
		pageSize: pageSize,
	}
}

type searchPage struct {
	Count int            `json:"count"`
	Items []exam.Problem `json:"items"`
}

// Query builds the search expression for a tier range and tags.
func Query(r exam.TierRange, tags []string) string {
	q := []string{r.Query()}
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			q = append(q, "tag:"+t)
		}
	}
	return strings.Join(q, " ")
}

// Search collects candidates page by page. It stops at maxPages, on a short page or on a
// non-200 answer; in the last case the pages fetched so far are kept. Results are sorted
// by problem id without duplicates.
func (c *Client) Search(ctx context.Context, query string) ([]exam.Problem, error) {
	var all []exam.Problem
	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("query", query)
		params.Set("page", strconv.Itoa(page))
		params.Set("size", strconv.Itoa(c.pageSize))

		resp, err := c.http.Get(ctx, searchPath, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, appErr.Wrapf(err, appErr.SearchFailed, "solved.ac search failed")
		}
		if resp.StatusCode != 200 {
			logger.Warn(ctx, "solved.ac answered with an error",
				zap.Int("status", resp.StatusCode),
				zap.String("body", truncate(string(resp.Body), 200)),
			)
			break
		}
		var p searchPage
		if err := json.Unmarshal(resp.Body, &p); err != nil {
			return nil, appErr.Wrapf(err, appErr.SearchFailed, "decode solved.ac page %d", page)
		}
		all = append(all, p.Items...)
		logger.Debug(ctx, "solved.ac page fetched", zap.Int("page", page), zap.Int("items", len(p.Items)))
		if len(p.Items) < c.pageSize {
			break
		}
	}
	return dedup(all), nil
}

// SearchBucket fetches the candidates for a bucket.
func (c *Client) SearchBucket(ctx context.Context, b exam.Bucket, tags []string) ([]exam.Problem, error) {
	r, err := b.Tiers()
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, Query(r, tags))
}

func dedup(items []exam.Problem) []exam.Problem {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProblemID < items[j].ProblemID })
	out := make([]exam.Problem, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.ProblemID == 0 {
			continue
		}
		if _, ok := seen[it.ProblemID]; ok {
			continue
		}
		seen[it.ProblemID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package solvedac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"mockct/internal/exam"
	"mockct/internal/testutil"
	appErr "mockct/pkg/errors"
)

type searchServer struct {
	pages   map[int][]exam.Problem
	failAt  int
	queries []string
}

func (s *searchServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/problem" {
		http.NotFound(w, r)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	s.queries = append(s.queries, r.URL.Query().Get("query"))
	if page == s.failAt {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	_ = json.NewEncoder(w).Encode(searchPage{Count: 0, Items: s.pages[page]})
}

func problems(ids ...int) []exam.Problem {
	out := make([]exam.Problem, len(ids))
	for i, id := range ids {
		out[i] = exam.Problem{ProblemID: id, Level: 3}
	}
	return out
}

func TestQuery(t *testing.T) {
	q := Query(exam.TierRange{Lo: 1, Hi: 3}, []string{" dp ", "", "graphs"})
	testutil.AssertEqual(t, q, "tier:1..3 tag:dp tag:graphs")
}

func TestSearchStopsOnShortPage(t *testing.T) {
	srv := &searchServer{pages: map[int][]exam.Problem{
		1: problems(30, 10),
		2: problems(20),
		3: problems(40, 50),
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := New(ts.URL, time.Second, 3, 2)
	got, err := c.Search(context.Background(), "tier:1..3")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	testutil.AssertEqual(t, len(srv.queries), 2)
	testutil.AssertEqual(t, srv.queries[0], "tier:1..3")
	testutil.AssertEqual(t, len(got), 3)
	testutil.AssertEqual(t, got[0].ProblemID, 10)
	testutil.AssertEqual(t, got[2].ProblemID, 30)
}

func TestSearchRespectsMaxPagesAndDedups(t *testing.T) {
	srv := &searchServer{pages: map[int][]exam.Problem{
		1: problems(5, 3),
		2: problems(3, 1),
		3: problems(9, 8),
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := New(ts.URL, time.Second, 2, 2).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	testutil.AssertEqual(t, len(srv.queries), 2)
	testutil.AssertEqual(t, len(got), 3)
	testutil.AssertEqual(t, got[0].ProblemID, 1)
	testutil.AssertEqual(t, got[1].ProblemID, 3)
	testutil.AssertEqual(t, got[2].ProblemID, 5)
}

func TestSearchKeepsPagesBeforeHTTPError(t *testing.T) {
	srv := &searchServer{failAt: 2, pages: map[int][]exam.Problem{1: problems(1, 2)}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := New(ts.URL, time.Second, 3, 2).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	testutil.AssertEqual(t, len(got), 2)
}

func TestSearchBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second, 1, 100).Search(context.Background(), "q")
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.SearchFailed)
}

func TestSearchBucketInvalidRange(t *testing.T) {
	_, err := New("http://127.0.0.1:1", time.Second, 1, 1).SearchBucket(context.Background(), exam.Bucket{Name: "x", Range: "Z9"}, nil)
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.InvalidTierRange)
}

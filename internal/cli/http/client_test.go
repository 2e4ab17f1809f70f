package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"mockct/internal/testutil"
)

func TestDoSendsTokenAndBody(t *testing.T) {
	var gotAuth, gotType, gotBody, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", time.Second, func() string { return "tok" })
	resp, err := client.PostJSON(context.Background(), "/api/v1/x", nil, map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertEqual(t, resp.StatusCode, http.StatusCreated)
	testutil.AssertTrue(t, resp.OK(), "201 is OK")
	testutil.AssertEqual(t, string(resp.Body), `{"ok":true}`)
	testutil.AssertEqual(t, gotAuth, "Bearer tok")
	testutil.AssertEqual(t, gotType, "application/json")
	testutil.AssertEqual(t, gotBody, `{"a":1}`)
	testutil.AssertEqual(t, gotUA, defaultUserAgent)
}

func TestGetEncodesQueryWithoutToken(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, func() string { return "" })
	_, err := client.Get(context.Background(), "/search", url.Values{"query": {"tier:1..3"}, "page": {"1"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertEqual(t, gotQuery, "page=1&query=tier%3A1..3")
	testutil.AssertEqual(t, gotAuth, "")
}

func TestDoHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := New(srv.URL, time.Second, nil)
	if _, err := client.Do(ctx, http.MethodGet, "/", nil, nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mockct/internal/testutil"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	testutil.AssertEqual(t, st.AccessToken, "")
	testutil.AssertFalse(t, st.AccessValid(time.Now()), "empty state is not valid")
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	in := SessionState{Username: "demo", AccessToken: "a", RefreshToken: "r", AccessExpiresAt: expires}

	if err := Save(path, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	testutil.AssertEqual(t, info.Mode().Perm(), os.FileMode(0o600))

	out, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	testutil.AssertEqual(t, out.Username, "demo")
	testutil.AssertTrue(t, out.AccessExpiresAt.Equal(expires), "expiry should survive round trip")

	if err := Clear(path); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("clear twice failed: %v", err)
	}
}

func TestValidity(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		st          SessionState
		wantAccess  bool
		wantRefresh bool
	}{
		{name: "no tokens", st: SessionState{}},
		{name: "no expiry", st: SessionState{AccessToken: "a"}, wantAccess: true},
		{name: "access expired refresh alive", st: SessionState{
			AccessToken: "a", AccessExpiresAt: now.Add(-time.Minute),
			RefreshToken: "r", RefreshExpiresAt: now.Add(time.Hour),
		}, wantRefresh: true},
		{name: "both expired", st: SessionState{
			AccessToken: "a", AccessExpiresAt: now.Add(-time.Minute),
			RefreshToken: "r", RefreshExpiresAt: now.Add(-time.Second),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.st.AccessValid(now), tt.wantAccess)
			testutil.AssertEqual(t, tt.st.RefreshValid(now), tt.wantRefresh)
		})
	}
}

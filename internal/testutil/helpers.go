// Package testutil holds assertion and fixture helpers shared by package tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertTrue checks if a condition is true
func AssertTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if !condition {
		t.Errorf("assertion failed: %s", message)
	}
}

// AssertFalse checks if a condition is false
func AssertFalse(t *testing.T, condition bool, message string) {
	t.Helper()
	if condition {
		t.Errorf("assertion failed: %s", message)
	}
}

// MustUnmarshalJSON unmarshals JSON data or fails the test
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}

// WriteFile creates parent directories and writes content, failing the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s failed: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s failed: %v", path, err)
	}
}

// ProblemDir lays out a problem folder with a solution file and paired test cases.
// cases maps case id to [input, expected output].
func ProblemDir(t *testing.T, root, problemID, solutionName, solution string, cases map[string][2]string) string {
	t.Helper()
	dir := filepath.Join(root, problemID)
	if solutionName != "" {
		WriteFile(t, filepath.Join(dir, solutionName), solution)
	}
	for id, pair := range cases {
		WriteFile(t, filepath.Join(dir, "testcases", id+".in"), pair[0])
		WriteFile(t, filepath.Join(dir, "testcases", id+".out"), pair[1])
	}
	return dir
}

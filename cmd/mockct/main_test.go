package main

import (
	"context"
	"errors"
	"testing"

	"mockct/internal/testutil"
	"mockct/internal/workflow"
	appErr "mockct/pkg/errors"
)

func TestTargets(t *testing.T) {
	got := targets(nil)
	testutil.AssertEqual(t, len(got), 1)
	testutil.AssertEqual(t, got[0].dir, ".")

	got = targets([]string{"1000", "./p/1001", ".", "A"})
	testutil.AssertEqual(t, got[0].id, "1000")
	testutil.AssertEqual(t, got[1].dir, "./p/1001")
	testutil.AssertEqual(t, got[2].dir, ".")
	testutil.AssertEqual(t, got[3].id, "A")
}

func TestExitCode(t *testing.T) {
	ctx := context.Background()
	testutil.AssertEqual(t, exitCode(ctx, nil), 0)
	testutil.AssertEqual(t, exitCode(ctx, exitStatus(4)), 4)
	testutil.AssertEqual(t, exitCode(ctx, appErr.New(appErr.InvalidCredentials)), 2)
	testutil.AssertEqual(t, exitCode(ctx, errors.New("boom")), 1)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	testutil.AssertEqual(t, exitCode(canceled, errors.New("interrupted")), 130)
}

func TestStopAfter(t *testing.T) {
	reports := []workflow.Report{
		{ProblemID: "1", State: workflow.StateDone},
		{ProblemID: "2", State: workflow.StateFailed, FailedStage: workflow.StateValidating, Err: appErr.MissingResourceError(appErr.ResourceSolution, "main.py")},
		{ProblemID: "3", State: workflow.StateFailed, FailedStage: workflow.StateAuthenticating, Err: appErr.New(appErr.AuthenticationFailed)},
	}
	testutil.AssertFalse(t, stopAfter(context.Background(), reports[:2]), "validation failure does not stop")
	testutil.AssertTrue(t, stopAfter(context.Background(), reports), "auth failure stops")
}

func TestBucketsFromFlags(t *testing.T) {
	b, err := bucketsFromFlags(nil, "easy")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	testutil.AssertEqual(t, b[0].Name, "veasy")

	b, err = bucketsFromFlags([]string{"x:B1~S5:2"}, "hard")
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	testutil.AssertEqual(t, len(b), 1)
	testutil.AssertEqual(t, b[0].Count, 2)

	_, err = bucketsFromFlags(nil, "nightmare")
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.InvalidBucket)
	testutil.AssertEqual(t, len(splitTags(" dp, ,graphs ")), 2)
}

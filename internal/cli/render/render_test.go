package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"mockct/internal/judge"
	"mockct/internal/testutil"
	"mockct/internal/workflow"
	"mockct/internal/workflow/sample"
	"mockct/internal/workflow/submission"
)

func TestCaseLines(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true, false)

	r.CaseGraded("A", sample.Result{CaseID: "1", Passed: true, Verdict: sample.VerdictAC, Elapsed: 12 * time.Millisecond})
	r.CaseGraded("A", sample.Result{CaseID: "2", Verdict: sample.VerdictWA, Diagnostic: `line 1: expected "1", got "2"`})

	out := buf.String()
	testutil.AssertTrue(t, strings.Contains(out, "  AC  case 1 12ms\n"), out)
	testutil.AssertTrue(t, strings.Contains(out, "  WA  case 2 0s\n      line 1: expected \"1\", got \"2\"\n"), out)
}

func TestFinished(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true, false)

	r.Finished(workflow.Report{
		ProblemID: "A",
		State:     workflow.StateDone,
		Samples:   sample.Results{{CaseID: "1", Passed: true}},
		Outcome:   &submission.Outcome{Status: judge.StatusAccepted, SubmissionID: "9", Verdict: "AC"},
	})
	r.Finished(workflow.Report{
		ProblemID:   "B",
		State:       workflow.StateFailed,
		FailedStage: workflow.StateValidating,
		Err:         errors.New("solution missing"),
	})
	r.Finished(workflow.Report{
		ProblemID: "C",
		State:     workflow.StateDone,
		Samples:   sample.Results{{CaseID: "1", Passed: true}, {CaseID: "2"}, {CaseID: "10"}},
		Outcome:   &submission.Outcome{Status: judge.StatusRejected, Verdict: "WA"},
	})

	out := buf.String()
	testutil.AssertTrue(t, strings.Contains(out, "[A] samples 1/1 passed\n"), out)
	testutil.AssertTrue(t, strings.Contains(out, "[A] submission #9 accepted AC\n"), out)
	testutil.AssertTrue(t, strings.Contains(out, "[B] FAILED at VALIDATING: solution missing\n"), out)
	testutil.AssertTrue(t, strings.Contains(out, "[C] samples 1/3 passed\n[C] failing cases: 2, 10\n"), out)
	testutil.AssertFalse(t, strings.Contains(out, "[A] failing cases"), out)
}

func TestStateLinesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true, true)

	r.StateChanged("A", workflow.StateInit, workflow.StateAuthenticating)
	r.StateChanged("A", workflow.StateAuthenticating, workflow.StateValidating)
	r.StateChanged("A", workflow.StateSubmitting, workflow.StateDone)
	r.Summary([]workflow.Report{
		{ProblemID: "A", State: workflow.StateDone},
		{ProblemID: "B", State: workflow.StateFailed, FailedStage: workflow.StateSampleTesting},
	})

	out := buf.String()
	testutil.AssertTrue(t, strings.Contains(out, "[A] checking session\n"), out)
	testutil.AssertTrue(t, strings.Contains(out, "[A] validating workspace\n"), out)
	testutil.AssertFalse(t, strings.Contains(out, "DONE\n[A]"), out)
	testutil.AssertTrue(t, strings.Contains(out, "FAILED@SAMPLE_TESTING"), out)
}

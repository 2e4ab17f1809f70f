package sample

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"mockct/internal/judge"
	"mockct/internal/testutil"
	"mockct/internal/workflow/workspace"
	appErr "mockct/pkg/errors"
)

// fakeExecutor runs a Go function in place of the solution.
type fakeExecutor struct {
	compileErr error
	language   string
	run        func(input string) (judge.CaseOutput, error)
	runs       []string
	closed     bool
}

func (f *fakeExecutor) Compile(ctx context.Context, solutionPath, language string) (judge.Program, error) {
	f.language = language
	if f.compileErr != nil {
		return nil, f.compileErr
	}
	return f, nil
}

func (f *fakeExecutor) Run(ctx context.Context, input io.Reader) (judge.CaseOutput, error) {
	data, _ := io.ReadAll(input)
	f.runs = append(f.runs, string(data))
	return f.run(string(data))
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

func echoUpper(input string) (judge.CaseOutput, error) {
	return judge.CaseOutput{Stdout: strings.ToUpper(input)}, nil
}

func problem(t *testing.T, cases map[string][2]string) workspace.Descriptor {
	t.Helper()
	base := t.TempDir()
	testutil.ProblemDir(t, base, "p", "main.py", "print()", cases)
	l := workspace.Layout{BaseDir: base, TestcaseDir: "testcases", Solutions: map[string]string{"py": "main.py"}, DefaultFiletype: "py"}
	d, err := l.Load("p")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return d
}

func TestRunAllPass(t *testing.T) {
	d := problem(t, map[string][2]string{
		"1": {"a\n", "A\n"},
		"2": {"b", "B\r\n\n\n"},
	})
	exec := &fakeExecutor{run: echoUpper}
	runner := NewRunner(exec, map[string]string{"py": "python3"})
	var seen []string
	results, err := runner.RunEach(context.Background(), d, func(r Result) { seen = append(seen, r.CaseID) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	testutil.AssertTrue(t, results.Passed(), "all cases should pass")
	testutil.AssertEqual(t, len(results), 2)
	testutil.AssertEqual(t, strings.Join(seen, ","), "1,2")
	testutil.AssertEqual(t, exec.language, "python3")
	testutil.AssertTrue(t, exec.closed, "program closed")
	testutil.AssertEqual(t, results.Summary(), "2/2 passed")
}

func TestRunRecordsFailuresInOrder(t *testing.T) {
	d := problem(t, map[string][2]string{
		"1": {"ok", "OK"},
		"2": {"wrong", "RIGHT"},
		"3": {"crash", "X"},
		"4": {"slow", "X"},
	})
	exec := &fakeExecutor{run: func(input string) (judge.CaseOutput, error) {
		switch input {
		case "crash":
			return judge.CaseOutput{ExitCode: 1, Stderr: "Traceback\nZeroDivisionError"}, nil
		case "slow":
			return judge.CaseOutput{TimedOut: true, ExitCode: -1}, nil
		}
		return echoUpper(input)
	}}

	results, err := NewRunner(exec, nil).Run(context.Background(), d)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	testutil.AssertFalse(t, results.Passed(), "aggregate should fail")
	want := []Verdict{VerdictAC, VerdictWA, VerdictRE, VerdictTLE}
	for i, v := range want {
		testutil.AssertEqual(t, results[i].Verdict, v)
	}
	testutil.AssertEqual(t, results[1].Diagnostic, `line 1: expected "RIGHT", got "WRONG"`)
	testutil.AssertEqual(t, results[2].Diagnostic, "exit code 1: ZeroDivisionError")
	testutil.AssertEqual(t, len(results.Failed()), 3)
	testutil.AssertEqual(t, exec.language, "py")
}

func TestRunCompileFailureAborts(t *testing.T) {
	d := problem(t, map[string][2]string{"1": {"a", "A"}})
	exec := &fakeExecutor{compileErr: appErr.New(appErr.CompilationError), run: echoUpper}

	results, err := NewRunner(exec, nil).Run(context.Background(), d)
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.CompilationError)
	testutil.AssertEqual(t, len(results), 0)
	testutil.AssertEqual(t, len(exec.runs), 0)
}

func TestRunStartFailureIsExecutionError(t *testing.T) {
	d := problem(t, map[string][2]string{"1": {"a", "A"}, "2": {"b", "B"}})
	exec := &fakeExecutor{run: func(string) (judge.CaseOutput, error) {
		return judge.CaseOutput{}, errors.New("exec format error")
	}}

	_, err := NewRunner(exec, nil).Run(context.Background(), d)
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.ExecutionFailed)
	testutil.AssertEqual(t, len(exec.runs), 1)
}

func TestRunCanceled(t *testing.T) {
	d := problem(t, map[string][2]string{"1": {"a", "A"}, "2": {"b", "B"}})
	ctx, cancel := context.WithCancel(context.Background())
	exec := &fakeExecutor{run: func(input string) (judge.CaseOutput, error) {
		cancel()
		return echoUpper(input)
	}}

	results, err := NewRunner(exec, nil).Run(ctx, d)
	testutil.AssertTrue(t, errors.Is(err, context.Canceled), "expected cancellation")
	testutil.AssertEqual(t, len(results), 1)
}

func TestGradeOutputLimit(t *testing.T) {
	res := Grade("1", "x", judge.CaseOutput{Stdout: "x", Truncated: true})
	testutil.AssertEqual(t, res.Verdict, VerdictOLE)
	testutil.AssertFalse(t, res.Passed, "truncated output never passes")
}

func TestEmptyResultsNotPassed(t *testing.T) {
	testutil.AssertFalse(t, Results{}.Passed(), "no cases is not a pass")
}

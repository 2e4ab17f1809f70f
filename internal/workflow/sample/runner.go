// Package sample runs a solution against the local test cases and grades each run.
package sample

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"mockct/internal/judge"
	"mockct/internal/workflow/workspace"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// Verdict is the per-case outcome, named like judge verdicts.
type Verdict string

const (
	VerdictAC  Verdict = "AC"
	VerdictWA  Verdict = "WA"
	VerdictRE  Verdict = "RE"
	VerdictTLE Verdict = "TLE"
	VerdictOLE Verdict = "OLE"
)

// Result is the graded outcome of one case.
type Result struct {
	CaseID     string
	Passed     bool
	Verdict    Verdict
	Diagnostic string
	ExitCode   int
	Elapsed    time.Duration
}

// Results keeps one entry per case in run order.
type Results []Result

// Passed reports whether every case passed. An empty set has not passed.
func (r Results) Passed() bool {
	if len(r) == 0 {
		return false
	}
	for _, res := range r {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the failing cases in order.
func (r Results) Failed() Results {
	var out Results
	for _, res := range r {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Summary is a one-line tally such as "2/3 passed".
func (r Results) Summary() string {
	passed := 0
	for _, res := range r {
		if res.Passed {
			passed++
		}
	}
	return fmt.Sprintf("%d/%d passed", passed, len(r))
}

// Runner grades a solution case by case through the executor.
type Runner struct {
	exec judge.SampleExecutor
	// languages maps filetype to the executor language; unmapped filetypes are passed through.
	languages map[string]string
}

func NewRunner(exec judge.SampleExecutor, languages map[string]string) *Runner {
	return &Runner{exec: exec, languages: languages}
}

// Run compiles once, then runs every case sequentially. A build or start failure
// aborts the remaining cases with an execution error.
func (r *Runner) Run(ctx context.Context, d workspace.Descriptor) (Results, error) {
	return r.RunEach(ctx, d, nil)
}

// RunEach is Run with a callback invoked after each graded case.
func (r *Runner) RunEach(ctx context.Context, d workspace.Descriptor, onCase func(Result)) (Results, error) {
	cases, err := d.Cases()
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, appErr.MissingResourceError(appErr.ResourceTestcases, d.TestcaseDir)
	}

	inputs := make([]judge.SampleInput, 0, len(cases))
	expected := make(map[string]string, len(cases))
	for _, tc := range cases {
		if _, err := os.Stat(tc.InputPath); err != nil {
			return nil, appErr.MissingResourceError(appErr.ResourceTestcases, tc.InputPath)
		}
		want, err := os.ReadFile(tc.AnswerPath)
		if err != nil {
			return nil, appErr.MissingResourceError(appErr.ResourceTestcases, tc.AnswerPath)
		}
		inputs = append(inputs, judge.SampleInput{CaseID: tc.ID, InputPath: tc.InputPath})
		expected[tc.ID] = string(want)
	}

	language := d.Filetype
	if mapped, ok := r.languages[d.Filetype]; ok {
		language = mapped
	}
	results := make(Results, 0, len(cases))
	_, err = judge.RunSamples(ctx, r.exec, d.SolutionPath, language, inputs, func(out judge.CaseOutput) error {
		res := Grade(out.CaseID, expected[out.CaseID], out)
		logger.Debug(ctx, "case graded",
			zap.String("case", res.CaseID),
			zap.String("verdict", string(res.Verdict)),
			zap.Duration("elapsed", res.Elapsed),
		)
		results = append(results, res)
		if onCase != nil {
			onCase(res)
		}
		return nil
	})
	if err != nil {
		return results, asExecutionError(err)
	}
	return results, nil
}

// Grade turns one raw run into a Result.
func Grade(caseID, expected string, out judge.CaseOutput) Result {
	res := Result{CaseID: caseID, ExitCode: out.ExitCode, Elapsed: out.Elapsed}
	switch {
	case out.TimedOut:
		res.Verdict = VerdictTLE
		res.Diagnostic = "time limit exceeded"
	case out.ExitCode != 0:
		res.Verdict = VerdictRE
		res.Diagnostic = fmt.Sprintf("exit code %d", out.ExitCode)
		if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
			res.Diagnostic += ": " + lastLine(stderr)
		}
	case out.Truncated:
		res.Verdict = VerdictOLE
		res.Diagnostic = "output limit exceeded"
	case Equal(expected, out.Stdout):
		res.Verdict = VerdictAC
		res.Passed = true
	default:
		res.Verdict = VerdictWA
		res.Diagnostic = Diff(expected, out.Stdout)
	}
	return res
}

// asExecutionError keeps execution, cancellation and missing-resource errors as they
// are and folds anything else into ExecutionFailed.
func asExecutionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch appErr.GetCode(err).Category() {
	case "execution", "missing_resource", "canceled":
		return err
	}
	return appErr.Wrapf(err, appErr.ExecutionFailed, "sample execution failed")
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

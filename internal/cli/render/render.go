// Package render prints workflow progress for humans.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"mockct/internal/judge"
	"mockct/internal/workflow"
	"mockct/internal/workflow/sample"
	"mockct/internal/workflow/submission"
)

// Terminal renders workflow events as colored lines.
type Terminal struct {
	w       io.Writer
	verbose bool

	ok    *color.Color
	bad   *color.Color
	warn  *color.Color
	faint *color.Color
	bold  *color.Color
}

var _ workflow.Observer = (*Terminal)(nil)

// New returns a renderer writing to w. noColor forces plain output.
func New(w io.Writer, noColor, verbose bool) *Terminal {
	t := &Terminal{
		w:       w,
		verbose: verbose,
		ok:      color.New(color.FgGreen, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		faint:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{t.ok, t.bad, t.warn, t.faint, t.bold} {
			c.DisableColor()
		}
	}
	return t
}

func (t *Terminal) StateChanged(problemID string, from, to workflow.State) {
	switch to {
	case workflow.StateDone, workflow.StateFailed:
		return
	case workflow.StateAuthenticating:
		t.line(t.faint, "[%s] checking session", problemID)
	case workflow.StateValidating:
		if t.verbose {
			t.line(t.faint, "[%s] validating workspace", problemID)
		}
	case workflow.StateSampleTesting:
		t.line(t.bold, "[%s] running samples", problemID)
	case workflow.StateSubmitting:
		t.line(t.bold, "[%s] submitting", problemID)
	}
}

func (t *Terminal) CaseGraded(problemID string, res sample.Result) {
	label := t.verdict(res.Verdict)
	elapsed := t.faint.Sprintf("%s", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(t.w, "  %s case %s %s\n", label, res.CaseID, elapsed)
	if !res.Passed && res.Diagnostic != "" {
		fmt.Fprintf(t.w, "      %s\n", res.Diagnostic)
	}
}

func (t *Terminal) Finished(rep workflow.Report) {
	if len(rep.Samples) > 0 {
		c := t.ok
		if !rep.Samples.Passed() {
			c = t.bad
		}
		t.line(c, "[%s] samples %s", rep.ProblemID, rep.Samples.Summary())
		if failed := rep.Samples.Failed(); len(failed) > 0 {
			ids := make([]string, 0, len(failed))
			for _, res := range failed {
				ids = append(ids, res.CaseID)
			}
			t.line(t.bad, "[%s] failing cases: %s", rep.ProblemID, strings.Join(ids, ", "))
		}
	}
	if rep.Outcome != nil {
		t.outcome(rep.ProblemID, *rep.Outcome)
	}
	if rep.Failed() {
		t.line(t.bad, "[%s] FAILED at %s: %v", rep.ProblemID, rep.FailedStage, rep.Err)
	}
}

func (t *Terminal) outcome(problemID string, o submission.Outcome) {
	id := ""
	if o.SubmissionID != "" {
		id = " #" + o.SubmissionID
	}
	switch o.Status {
	case judge.StatusAccepted:
		t.line(t.ok, "[%s] submission%s accepted %s", problemID, id, o.Verdict)
	case judge.StatusRejected:
		t.line(t.bad, "[%s] submission%s rejected %s", problemID, id, o.Verdict)
	default:
		t.line(t.warn, "[%s] submission%s pending", problemID, id)
	}
}

// Summary prints a table-like recap for several runs.
func (t *Terminal) Summary(reports []workflow.Report) {
	if len(reports) < 2 {
		return
	}
	t.line(t.bold, "summary")
	for _, rep := range reports {
		status := t.ok.Sprint(string(rep.State))
		if rep.Failed() {
			status = t.bad.Sprintf("%s@%s", rep.State, rep.FailedStage)
		}
		detail := ""
		if rep.Outcome != nil {
			detail = strings.TrimSpace(string(rep.Outcome.Status) + " " + rep.Outcome.Verdict)
		}
		fmt.Fprintf(t.w, "  %-12s %s %s\n", rep.ProblemID, status, detail)
	}
}

// Info prints a plain line.
func (t *Terminal) Info(format string, args ...interface{}) {
	fmt.Fprintf(t.w, format+"\n", args...)
}

// Success prints a green line.
func (t *Terminal) Success(format string, args ...interface{}) {
	t.line(t.ok, format, args...)
}

// Failure prints a red line.
func (t *Terminal) Failure(format string, args ...interface{}) {
	t.line(t.bad, format, args...)
}

func (t *Terminal) verdict(v sample.Verdict) string {
	switch v {
	case sample.VerdictAC:
		return t.ok.Sprintf("%-3s", v)
	case sample.VerdictTLE, sample.VerdictOLE:
		return t.warn.Sprintf("%-3s", v)
	default:
		return t.bad.Sprintf("%-3s", v)
	}
}

func (t *Terminal) line(c *color.Color, format string, args ...interface{}) {
	_, _ = c.Fprintf(t.w, format+"\n", args...)
}

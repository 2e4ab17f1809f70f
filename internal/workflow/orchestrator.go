// Package workflow drives one problem through login, sample testing and submission.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockct/internal/judge"
	"mockct/internal/workflow/sample"
	"mockct/internal/workflow/submission"
	"mockct/internal/workflow/workspace"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// State is a step of the run state machine.
type State string

const (
	StateInit           State = "INIT"
	StateAuthenticating State = "AUTHENTICATING"
	StateValidating     State = "VALIDATING"
	StateSampleTesting  State = "SAMPLE_TESTING"
	StateSubmitting     State = "SUBMITTING"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// SessionEnsurer yields a valid judge session.
type SessionEnsurer interface {
	Ensure(ctx context.Context) (judge.Session, error)
}

// WorkspaceLoader resolves problem folders.
type WorkspaceLoader interface {
	Load(problemID string) (workspace.Descriptor, error)
	LoadDir(dir string) (workspace.Descriptor, error)
}

// SampleRunner grades the solution against local cases.
type SampleRunner interface {
	RunEach(ctx context.Context, d workspace.Descriptor, onCase func(sample.Result)) (sample.Results, error)
}

// SubmissionTrigger sends the solution.
type SubmissionTrigger interface {
	Submit(ctx context.Context, d workspace.Descriptor, sess judge.Session, samples sample.Results) (submission.Outcome, error)
	Policy() submission.Policy
}

// Observer is told about progress. Calls happen on the run goroutine.
type Observer interface {
	StateChanged(problemID string, from, to State)
	CaseGraded(problemID string, res sample.Result)
	Finished(rep Report)
}

type nopObserver struct{}

func (nopObserver) StateChanged(string, State, State) {}
func (nopObserver) CaseGraded(string, sample.Result)  {}
func (nopObserver) Finished(Report)                   {}

// Report is the result of one run.
type Report struct {
	ProblemID   string
	RunID       string
	State       State
	FailedStage State
	Err         error
	Samples     sample.Results
	Outcome     *submission.Outcome
	Visited     []State
}

// Failed reports whether the run ended in FAILED.
func (r Report) Failed() bool {
	return r.State == StateFailed
}

// ExitCode maps the report to a process exit status.
func (r Report) ExitCode() int {
	if !r.Failed() {
		return 0
	}
	return appErr.GetCode(r.Err).ExitCode()
}

// Diagnostic is the one-line human message for a failed run.
func (r Report) Diagnostic() string {
	if !r.Failed() {
		return ""
	}
	return fmt.Sprintf("%s failed at %s: %v", r.ProblemID, r.FailedStage, r.Err)
}

// Orchestrator composes the workflow components. It performs no retries.
type Orchestrator struct {
	sessions SessionEnsurer
	loader   WorkspaceLoader
	runner   SampleRunner
	trigger  SubmissionTrigger
	observer Observer
}

func New(sessions SessionEnsurer, loader WorkspaceLoader, runner SampleRunner, trigger SubmissionTrigger, observer Observer) *Orchestrator {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Orchestrator{
		sessions: sessions,
		loader:   loader,
		runner:   runner,
		trigger:  trigger,
		observer: observer,
	}
}

// Run executes the full workflow for one problem id.
func (o *Orchestrator) Run(ctx context.Context, problemID string) Report {
	return o.run(ctx, problemID, func() (workspace.Descriptor, error) {
		return o.loader.Load(problemID)
	}, true)
}

// RunDir executes the full workflow for an explicit problem folder.
func (o *Orchestrator) RunDir(ctx context.Context, dir string) Report {
	return o.run(ctx, dir, func() (workspace.Descriptor, error) {
		return o.loader.LoadDir(dir)
	}, true)
}

// Test validates and runs samples without authenticating or submitting.
func (o *Orchestrator) Test(ctx context.Context, problemID string) Report {
	return o.run(ctx, problemID, func() (workspace.Descriptor, error) {
		return o.loader.Load(problemID)
	}, false)
}

// TestDir is Test for an explicit problem folder.
func (o *Orchestrator) TestDir(ctx context.Context, dir string) Report {
	return o.run(ctx, dir, func() (workspace.Descriptor, error) {
		return o.loader.LoadDir(dir)
	}, false)
}

// RunAll runs problems one after another with a shared session. It stops early on
// cancellation or when authentication fails, since later problems would fail the same way.
func (o *Orchestrator) RunAll(ctx context.Context, problemIDs []string) []Report {
	reports := make([]Report, 0, len(problemIDs))
	for _, id := range problemIDs {
		rep := o.Run(ctx, id)
		reports = append(reports, rep)
		if ctx.Err() != nil {
			break
		}
		if rep.Failed() && rep.FailedStage == StateAuthenticating {
			break
		}
	}
	return reports
}

type execution struct {
	o   *Orchestrator
	ctx context.Context
	rep Report
}

func (o *Orchestrator) run(ctx context.Context, label string, load func() (workspace.Descriptor, error), full bool) Report {
	r := &execution{
		o: o,
		rep: Report{
			ProblemID: label,
			RunID:     uuid.NewString(),
			State:     StateInit,
			Visited:   []State{StateInit},
		},
	}
	r.ctx = logger.WithProblemID(logger.WithRunID(ctx, r.rep.RunID), label)
	defer func() { o.observer.Finished(r.rep) }()

	var sess judge.Session
	if full {
		if !r.enter(StateAuthenticating) {
			return r.rep
		}
		var err error
		if sess, err = o.sessions.Ensure(r.ctx); err != nil {
			return r.fail(err)
		}
	}

	if !r.enter(StateValidating) {
		return r.rep
	}
	d, err := load()
	if err != nil {
		return r.fail(err)
	}
	if d.ProblemID != "" && d.ProblemID != r.rep.ProblemID {
		r.rep.ProblemID = d.ProblemID
		r.ctx = logger.WithProblemID(r.ctx, d.ProblemID)
	}
	if err := d.Validate(); err != nil {
		return r.fail(err)
	}

	if !r.enter(StateSampleTesting) {
		return r.rep
	}
	results, err := o.runner.RunEach(r.ctx, d, func(res sample.Result) {
		o.observer.CaseGraded(r.rep.ProblemID, res)
	})
	r.rep.Samples = results
	if err != nil {
		return r.fail(err)
	}
	logger.Info(r.ctx, "samples finished", zap.String("summary", results.Summary()))

	if !full {
		r.enter(StateDone)
		return r.rep
	}
	if err := o.trigger.Policy().Gate(results); err != nil {
		return r.fail(err)
	}

	if !r.enter(StateSubmitting) {
		return r.rep
	}
	outcome, err := o.trigger.Submit(r.ctx, d, sess, results)
	if err != nil {
		return r.fail(err)
	}
	r.rep.Outcome = &outcome
	logger.Info(r.ctx, "submission finished",
		zap.String("status", string(outcome.Status)),
		zap.String("verdict", outcome.Verdict),
		zap.String("submission_id", outcome.SubmissionID),
	)
	r.enter(StateDone)
	return r.rep
}

// enter moves to the next state unless the context is done, in which case the run
// fails at the current state.
func (r *execution) enter(next State) bool {
	if err := r.ctx.Err(); err != nil && !next.Terminal() {
		r.fail(appErr.Wrap(err, appErr.Canceled))
		return false
	}
	r.transition(next)
	return true
}

func (r *execution) transition(next State) {
	prev := r.rep.State
	r.rep.State = next
	r.rep.Visited = append(r.rep.Visited, next)
	r.ctx = logger.WithStage(r.ctx, string(next))
	logger.Debug(r.ctx, "state changed", zap.String("from", string(prev)), zap.String("to", string(next)))
	r.o.observer.StateChanged(r.rep.ProblemID, prev, next)
}

func (r *execution) fail(err error) Report {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if appErr.GetCode(err) != appErr.Canceled {
			err = appErr.Wrap(err, appErr.Canceled)
		}
	}
	r.rep.FailedStage = r.rep.State
	r.rep.Err = err
	logger.Warn(r.ctx, "run failed", zap.String("stage", string(r.rep.FailedStage)), zap.Error(err))
	r.transition(StateFailed)
	return r.rep
}

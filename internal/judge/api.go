// Package judge defines the judge-client capabilities consumed by the workflow.
package judge

import (
	"context"
	"io"
	"time"
)

// Credentials are supplied by a human during interactive login.
type Credentials struct {
	Username string
	Password string
}

// Session is one authenticated identity with the judge.
// The judge client owns the persisted tokens; the workflow only sees validity.
type Session struct {
	Username  string
	Valid     bool
	ExpiresAt time.Time
}

// Authenticator checks and establishes judge sessions.
type Authenticator interface {
	// HasValidSession reports whether a usable session already exists.
	HasValidSession(ctx context.Context) (Session, bool, error)
	// Login authenticates with the given credentials.
	Login(ctx context.Context, creds Credentials) (Session, error)
}

// SampleExecutor prepares a solution for local sample execution.
type SampleExecutor interface {
	// Compile builds the solution in a scratch area and returns a runnable program.
	// A solution that cannot be built or started yields an execution error.
	Compile(ctx context.Context, solutionPath string, language string) (Program, error)
}

// Program is a compiled solution that can be run once per test case.
type Program interface {
	Run(ctx context.Context, input io.Reader) (CaseOutput, error)
	Close() error
}

// CaseOutput is the raw result of one program run.
type CaseOutput struct {
	CaseID    string
	Stdout    string
	Stderr    string
	ExitCode  int
	Elapsed   time.Duration
	TimedOut  bool
	Truncated bool
}

// SubmitRequest describes one submission to the judge.
type SubmitRequest struct {
	ProblemID      string
	Language       string
	SourceCode     string
	IdempotencyKey string
}

// SubmitStatus is the coarse judge response state.
type SubmitStatus string

const (
	StatusAccepted SubmitStatus = "accepted"
	StatusRejected SubmitStatus = "rejected"
	StatusPending  SubmitStatus = "pending"
)

// SubmitReply is the judge's answer to a submission.
type SubmitReply struct {
	SubmissionID string
	Status       SubmitStatus
	Verdict      string
	Raw          string
}

// Submitter sends solutions to the judge.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitReply, error)
}

// StatusPoller reads back the state of an earlier submission.
type StatusPoller interface {
	SubmissionStatus(ctx context.Context, submissionID string) (SubmitReply, error)
}

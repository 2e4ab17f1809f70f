// Package submission sends a tested solution to the judge under the configured policy.
package submission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockct/internal/judge"
	"mockct/internal/workflow/sample"
	"mockct/internal/workflow/workspace"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// Policy controls when a submission may go out.
type Policy struct {
	RequireSamplesPass bool
	Confirm            bool
	// WaitVerdict > 0 polls the judge for a final verdict for at most this long.
	WaitVerdict  time.Duration
	PollInterval time.Duration
}

// DefaultPolicy requires passing samples and asks before submitting.
func DefaultPolicy() Policy {
	return Policy{RequireSamplesPass: true, Confirm: true, PollInterval: time.Second}
}

// Gate returns a SamplesNotPassed error when the policy blocks submission.
func (p Policy) Gate(samples sample.Results) error {
	if !p.RequireSamplesPass || samples.Passed() {
		return nil
	}
	return appErr.Newf(appErr.SamplesNotPassed, "samples did not pass (%s)", samples.Summary())
}

// Confirmer asks the user before the irreversible submit.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Outcome is the final answer of one submission.
type Outcome struct {
	Status       judge.SubmitStatus
	SubmissionID string
	Verdict      string
	Raw          string
}

// Accepted reports whether the judge accepted the solution.
func (o Outcome) Accepted() bool {
	return o.Status == judge.StatusAccepted
}

// Trigger submits solutions. It never retries.
type Trigger struct {
	submitter judge.Submitter
	confirmer Confirmer
	policy    Policy
	languages map[string]string
	newKey    func() string
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewTrigger(submitter judge.Submitter, confirmer Confirmer, policy Policy, languages map[string]string) *Trigger {
	if policy.PollInterval <= 0 {
		policy.PollInterval = time.Second
	}
	return &Trigger{
		submitter: submitter,
		confirmer: confirmer,
		policy:    policy,
		languages: languages,
		newKey:    uuid.NewString,
		sleep:     sleepCtx,
	}
}

// Policy returns the effective policy.
func (t *Trigger) Policy() Policy {
	return t.policy
}

// Submit sends the solution of d. Judge rejections unrelated to correctness come
// back as submission errors; a wrong answer is an outcome, not an error.
func (t *Trigger) Submit(ctx context.Context, d workspace.Descriptor, sess judge.Session, samples sample.Results) (Outcome, error) {
	if !sess.Valid {
		return Outcome{}, appErr.New(appErr.SessionExpired).WithMessage("submission requires a valid session")
	}
	if err := t.policy.Gate(samples); err != nil {
		return Outcome{}, err
	}
	if t.policy.Confirm {
		ok, err := t.confirm(ctx, d, samples)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, appErr.New(appErr.SubmissionDeclined)
		}
	}

	source, err := os.ReadFile(d.SolutionPath)
	if err != nil {
		return Outcome{}, appErr.MissingResourceError(appErr.ResourceSolution, d.SolutionPath)
	}
	language := d.Filetype
	if mapped, ok := t.languages[d.Filetype]; ok {
		language = mapped
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	req := judge.SubmitRequest{
		ProblemID:      d.ProblemID,
		Language:       language,
		SourceCode:     string(source),
		IdempotencyKey: t.newKey(),
	}
	logger.Info(ctx, "submitting",
		zap.String("language", language),
		zap.String("idempotency_key", req.IdempotencyKey),
	)
	reply, err := t.submitter.Submit(ctx, req)
	if err != nil {
		return Outcome{}, asSubmissionError(ctx, err)
	}
	outcome := toOutcome(reply)

	if outcome.Status == judge.StatusPending && t.policy.WaitVerdict > 0 {
		if poller, ok := t.submitter.(judge.StatusPoller); ok && outcome.SubmissionID != "" {
			outcome = t.waitVerdict(ctx, poller, outcome)
		}
	}
	return outcome, nil
}

func (t *Trigger) confirm(ctx context.Context, d workspace.Descriptor, samples sample.Results) (bool, error) {
	if t.confirmer == nil {
		return false, appErr.New(appErr.SubmissionDeclined).WithMessage("confirmation required but no prompt is available")
	}
	question := fmt.Sprintf("Submit %s (%s)?", d.ProblemID, d.Filetype)
	if len(samples) > 0 {
		question = fmt.Sprintf("Submit %s (%s, samples %s)?", d.ProblemID, d.Filetype, samples.Summary())
	}
	return t.confirmer.Confirm(ctx, question)
}

// waitVerdict polls until a final status or the wait budget runs out. Poll errors
// leave the outcome pending; the submission itself already happened.
func (t *Trigger) waitVerdict(ctx context.Context, poller judge.StatusPoller, outcome Outcome) Outcome {
	deadline := time.Now().Add(t.policy.WaitVerdict)
	for time.Now().Before(deadline) {
		if err := t.sleep(ctx, t.policy.PollInterval); err != nil {
			return outcome
		}
		reply, err := poller.SubmissionStatus(ctx, outcome.SubmissionID)
		if err != nil {
			logger.Warn(ctx, "poll submission status failed", zap.Error(err))
			return outcome
		}
		next := toOutcome(reply)
		if next.SubmissionID == "" {
			next.SubmissionID = outcome.SubmissionID
		}
		outcome = next
		if outcome.Status != judge.StatusPending {
			return outcome
		}
	}
	logger.Info(ctx, "verdict still pending", zap.String("submission_id", outcome.SubmissionID))
	return outcome
}

func toOutcome(reply judge.SubmitReply) Outcome {
	status := reply.Status
	if status == "" {
		status = judge.StatusPending
	}
	return Outcome{
		Status:       status,
		SubmissionID: reply.SubmissionID,
		Verdict:      reply.Verdict,
		Raw:          reply.Raw,
	}
}

func asSubmissionError(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if appErr.IsCategory(err, "submission") || appErr.IsCategory(err, "authentication") {
		return err
	}
	return appErr.Wrapf(err, appErr.SubmissionFailed, "submit failed")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package session makes sure an authenticated judge session exists before any
// judge-facing work starts.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"mockct/internal/judge"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// CredentialSource supplies credentials for an interactive login.
type CredentialSource interface {
	Credentials(ctx context.Context) (judge.Credentials, error)
}

// Manager checks for an existing session and logs in when there is none. A
// verified session is cached for the life of the manager.
type Manager struct {
	auth  judge.Authenticator
	creds CredentialSource

	mu     sync.Mutex
	cached *judge.Session
}

func NewManager(auth judge.Authenticator, creds CredentialSource) *Manager {
	return &Manager{auth: auth, creds: creds}
}

// Ensure returns a valid session. Login is attempted once; a failure is returned as
// an authentication error and not retried.
func (m *Manager) Ensure(ctx context.Context) (judge.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return *m.cached, nil
	}

	sess, ok, err := m.auth.HasValidSession(ctx)
	if err != nil {
		return judge.Session{}, asAuthError(ctx, err, "check session failed")
	}
	if ok && sess.Valid {
		logger.Debug(ctx, "reusing stored session", zap.String("username", sess.Username))
		m.cached = &sess
		return sess, nil
	}

	if m.creds == nil {
		return judge.Session{}, appErr.New(appErr.LoginAborted).WithMessage("no valid session and no way to prompt for credentials")
	}
	logger.Info(ctx, "no valid session, logging in")
	creds, err := m.creds.Credentials(ctx)
	if err != nil {
		return judge.Session{}, asAuthError(ctx, err, "read credentials failed")
	}
	sess, err = m.auth.Login(ctx, creds)
	if err != nil {
		return judge.Session{}, asAuthError(ctx, err, "login failed")
	}
	if !sess.Valid {
		return judge.Session{}, appErr.New(appErr.AuthenticationFailed).WithMessage("judge did not confirm the session")
	}
	m.cached = &sess
	return sess, nil
}

func asAuthError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if appErr.IsCategory(err, "authentication") {
		return err
	}
	return appErr.Wrapf(err, appErr.AuthenticationFailed, "%s", msg)
}

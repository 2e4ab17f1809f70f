// Package remote talks to the judge REST API and keeps the session state file in sync.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	httpclient "mockct/internal/cli/http"
	"mockct/internal/cli/state"
	"mockct/internal/judge"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

const (
	loginPath   = "/api/v1/user/login"
	refreshPath = "/api/v1/user/refresh-token"
	logoutPath  = "/api/v1/user/logout"
	submitPath  = "/api/v1/submissions"

	// server response codes
	codeSuccess             = 10000
	codeUnauthorized        = 10004
	codeTooManyRequests     = 10006
	codeInvalidCredentials  = 11000
	codeUserNotFound        = 11001
	codePasswordIncorrect   = 11002
	codeTokenExpired        = 11003
	codeTokenInvalid        = 11004
	codeLanguageUnsupported = 13003
	codeSubmitTooFrequently = 13004
)

// expirySkew treats tokens about to expire as already expired.
const expirySkew = 30 * time.Second

// Config configures the adapter.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	StatePath string
}

// Client implements judge.Authenticator, judge.Submitter and judge.StatusPoller.
type Client struct {
	http      *httpclient.Client
	statePath string
	now       func() time.Time

	mu     sync.Mutex
	st     state.SessionState
	loaded bool
}

var (
	_ judge.Authenticator = (*Client)(nil)
	_ judge.Submitter     = (*Client)(nil)
	_ judge.StatusPoller  = (*Client)(nil)
)

func New(cfg Config) *Client {
	c := &Client{statePath: cfg.StatePath, now: time.Now}
	c.http = httpclient.New(cfg.BaseURL, cfg.Timeout, c.accessToken)
	return c
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type authData struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type submitData struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Verdict      string `json:"verdict"`
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.AccessToken
}

func (c *Client) ensureLoaded() error {
	if c.loaded {
		return nil
	}
	st, err := state.Load(c.statePath)
	if err != nil {
		return appErr.Wrapf(err, appErr.SessionStoreFailed, "load session state failed")
	}
	c.st = st
	c.loaded = true
	return nil
}

// HasValidSession reports whether the stored access token can be used now. An expired
// access token is renewed with the refresh token when possible.
func (c *Client) HasValidSession(ctx context.Context) (judge.Session, bool, error) {
	c.mu.Lock()
	if err := c.ensureLoaded(); err != nil {
		c.mu.Unlock()
		return judge.Session{}, false, err
	}
	st := c.st
	c.mu.Unlock()

	now := c.now()
	st.AccessExpiresAt = tokenExpiry(st.AccessToken, st.AccessExpiresAt)
	if st.AccessValid(now.Add(expirySkew)) {
		return judge.Session{Username: st.Username, Valid: true, ExpiresAt: st.AccessExpiresAt}, true, nil
	}
	if !st.RefreshValid(now) {
		return judge.Session{Username: st.Username}, false, nil
	}

	logger.Debug(ctx, "access token expired, refreshing", zap.String("username", st.Username))
	sess, err := c.refresh(ctx, st)
	if err != nil {
		if refreshRejected(err) {
			logger.Warn(ctx, "refresh rejected, login required", zap.Error(err))
			_ = c.clear()
			return judge.Session{Username: st.Username}, false, nil
		}
		return judge.Session{}, false, err
	}
	return sess, true, nil
}

func refreshRejected(err error) bool {
	return appErr.Is(err, appErr.TokenInvalid) ||
		appErr.Is(err, appErr.SessionExpired) ||
		appErr.Is(err, appErr.InvalidCredentials)
}

func (c *Client) refresh(ctx context.Context, st state.SessionState) (judge.Session, error) {
	resp, err := c.http.PostJSON(ctx, refreshPath, nil, map[string]string{"refresh_token": st.RefreshToken})
	if err != nil {
		return judge.Session{}, transportError(ctx, err, appErr.AuthenticationFailed)
	}
	var data authData
	if err := decode(resp, &data, appErr.AuthenticationFailed); err != nil {
		return judge.Session{}, err
	}
	return c.store(st.Username, data)
}

// Login exchanges credentials for tokens and persists them.
func (c *Client) Login(ctx context.Context, creds judge.Credentials) (judge.Session, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return judge.Session{}, appErr.New(appErr.InvalidCredentials).WithMessage("username and password are required")
	}
	resp, err := c.http.PostJSON(ctx, loginPath, nil, map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return judge.Session{}, transportError(ctx, err, appErr.AuthenticationFailed)
	}
	var data authData
	if err := decode(resp, &data, appErr.AuthenticationFailed); err != nil {
		return judge.Session{}, err
	}
	if data.AccessToken == "" {
		return judge.Session{}, appErr.New(appErr.AuthenticationFailed).WithMessage("judge returned no access token")
	}
	sess, err := c.store(creds.Username, data)
	if err != nil {
		return judge.Session{}, err
	}
	logger.Info(ctx, "logged in", zap.String("username", creds.Username))
	return sess, nil
}

// Logout revokes the refresh token on the judge and removes local state. A failed
// judge call is logged; local state is cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	if err := c.ensureLoaded(); err != nil {
		c.mu.Unlock()
		return err
	}
	refreshToken := c.st.RefreshToken
	c.mu.Unlock()

	if refreshToken != "" {
		var callErr error
		resp, err := c.http.PostJSON(ctx, logoutPath, nil, map[string]string{"refresh_token": refreshToken})
		if err != nil {
			callErr = transportError(ctx, err, appErr.AuthenticationFailed)
		} else {
			callErr = decode(resp, nil, appErr.AuthenticationFailed)
		}
		if callErr != nil {
			logger.Warn(ctx, "judge logout failed", zap.Error(callErr))
		}
	}
	return c.clear()
}

func (c *Client) store(username string, data authData) (judge.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := state.SessionState{
		Username:         username,
		AccessToken:      data.AccessToken,
		RefreshToken:     data.RefreshToken,
		AccessExpiresAt:  data.AccessExpiresAt,
		RefreshExpiresAt: data.RefreshExpiresAt,
	}
	if st.RefreshToken == "" {
		st.RefreshToken = c.st.RefreshToken
		st.RefreshExpiresAt = c.st.RefreshExpiresAt
	}
	if err := state.Save(c.statePath, st); err != nil {
		return judge.Session{}, appErr.Wrapf(err, appErr.SessionStoreFailed, "save session state failed")
	}
	c.st = st
	c.loaded = true
	return judge.Session{
		Username:  username,
		Valid:     true,
		ExpiresAt: tokenExpiry(st.AccessToken, st.AccessExpiresAt),
	}, nil
}

// revokeAccess forgets the access token after the judge rejected it, so the next
// session check goes through refresh or login. The refresh token is kept.
func (c *Client) revokeAccess(ctx context.Context, err error) {
	if !appErr.Is(err, appErr.TokenInvalid) && !appErr.Is(err, appErr.SessionExpired) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.AccessToken == "" {
		return
	}
	c.st.AccessToken = ""
	c.st.AccessExpiresAt = time.Time{}
	logger.Warn(ctx, "judge rejected the access token", zap.Error(err))
	if saveErr := state.Save(c.statePath, c.st); saveErr != nil {
		logger.Warn(ctx, "save session state failed", zap.Error(saveErr))
	}
}

func (c *Client) clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st = state.SessionState{}
	c.loaded = true
	if err := state.Clear(c.statePath); err != nil {
		return appErr.Wrapf(err, appErr.SessionStoreFailed, "clear session state failed")
	}
	return nil
}

// Submit sends the source to the judge. The idempotency key travels as a header so
// a retried request maps to the same submission.
func (c *Client) Submit(ctx context.Context, req judge.SubmitRequest) (judge.SubmitReply, error) {
	payload := map[string]interface{}{
		"problem_id":  problemIDValue(req.ProblemID),
		"language_id": req.Language,
		"source_code": req.SourceCode,
	}
	if uid, ok := c.userID(); ok {
		payload["user_id"] = uid
	}
	headers := map[string]string{"Idempotency-Key": req.IdempotencyKey}

	resp, err := c.http.PostJSON(ctx, submitPath, headers, payload)
	if err != nil {
		return judge.SubmitReply{}, transportError(ctx, err, appErr.SubmissionFailed)
	}
	var data submitData
	if err := decode(resp, &data, appErr.SubmissionRejected); err != nil {
		c.revokeAccess(ctx, err)
		return judge.SubmitReply{SubmissionID: data.SubmissionID, Raw: string(resp.Body)}, err
	}
	logger.Info(ctx, "submission accepted by judge",
		zap.String("submission_id", data.SubmissionID),
		zap.String("status", data.Status),
	)
	return toReply(data, string(resp.Body)), nil
}

// SubmissionStatus reads the current state of a submission.
func (c *Client) SubmissionStatus(ctx context.Context, submissionID string) (judge.SubmitReply, error) {
	resp, err := c.http.Get(ctx, submitPath+"/"+url.PathEscape(submissionID), nil)
	if err != nil {
		return judge.SubmitReply{}, transportError(ctx, err, appErr.SubmissionFailed)
	}
	var data submitData
	if err := decode(resp, &data, appErr.SubmissionFailed); err != nil {
		c.revokeAccess(ctx, err)
		return judge.SubmitReply{}, err
	}
	if data.SubmissionID == "" {
		data.SubmissionID = submissionID
	}
	return toReply(data, string(resp.Body)), nil
}

// toReply maps the judge lifecycle onto the coarse submit status. Finished with AC
// is accepted; any other finished or failed verdict is rejected.
func toReply(data submitData, raw string) judge.SubmitReply {
	reply := judge.SubmitReply{SubmissionID: data.SubmissionID, Verdict: data.Verdict, Raw: raw}
	switch strings.ToLower(data.Status) {
	case "finished":
		if strings.EqualFold(data.Verdict, "AC") {
			reply.Status = judge.StatusAccepted
		} else {
			reply.Status = judge.StatusRejected
		}
	case "failed":
		reply.Status = judge.StatusRejected
	default:
		reply.Status = judge.StatusPending
	}
	return reply
}

func (c *Client) userID() (int64, bool) {
	token := c.accessToken()
	if token == "" {
		return 0, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// tokenExpiry prefers the exp claim and falls back to the expiry the judge reported.
// The signature is not checked; the judge remains the authority on validity.
func tokenExpiry(token string, fallback time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return fallback
}

func problemIDValue(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

// decode unwraps the judge envelope into out. Server codes without a local
// counterpart become fallback.
func decode(resp httpclient.ResponseInfo, out interface{}, fallback appErr.ErrorCode) error {
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		if !resp.OK() {
			return statusError(resp.StatusCode, strings.TrimSpace(string(resp.Body)), fallback)
		}
		return appErr.Wrapf(err, appErr.InternalError, "decode judge response failed")
	}
	if env.Code != codeSuccess {
		return serverError(resp.StatusCode, env.Code, env.Message, fallback)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return appErr.Wrapf(err, appErr.InternalError, "decode judge response data failed")
	}
	return nil
}

func serverError(status, code int, message string, fallback appErr.ErrorCode) error {
	var local appErr.ErrorCode
	switch code {
	case codeInvalidCredentials, codeUserNotFound, codePasswordIncorrect:
		local = appErr.InvalidCredentials
	case codeTokenExpired:
		local = appErr.SessionExpired
	case codeTokenInvalid, codeUnauthorized:
		local = appErr.TokenInvalid
	case codeSubmitTooFrequently, codeTooManyRequests:
		local = appErr.SubmitTooFrequently
	case codeLanguageUnsupported:
		local = appErr.LanguageUnsupported
	default:
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			local = appErr.TokenInvalid
		} else {
			local = fallback
		}
	}
	if message == "" {
		message = local.Message()
	}
	return appErr.New(local).WithMessage(message).
		WithDetail("server_code", code).
		WithDetail("http_status", status)
}

func statusError(status int, body string, fallback appErr.ErrorCode) error {
	code := fallback
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		code = appErr.TokenInvalid
	}
	return appErr.Newf(code, "judge responded HTTP %d", status).WithDetail("body", body)
}

func transportError(ctx context.Context, err error, code appErr.ErrorCode) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return appErr.Wrapf(err, code, "judge unreachable")
}

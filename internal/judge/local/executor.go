// Package local runs solutions on the host for sample testing.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"mockct/internal/judge"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

const compileLogLimit = 64 << 10

// Language describes how to build and start one solution language.
// Command templates may use {main} for the solution file name and {dir} for the scratch dir.
type Language struct {
	ID         string
	Main       string
	CompileCmd string
	RunCmd     string
}

// Config controls local execution.
type Config struct {
	Languages      map[string]Language
	WorkRoot       string // parent of scratch dirs; empty means os.TempDir()
	CompileTimeout time.Duration
	CaseTimeout    time.Duration
	MaxOutputBytes int64
}

// Executor implements judge.SampleExecutor with host processes.
type Executor struct {
	cfg Config
}

var _ judge.SampleExecutor = (*Executor)(nil)

func NewExecutor(cfg Config) (*Executor, error) {
	if len(cfg.Languages) == 0 {
		return nil, appErr.ValidationError("languages", "required")
	}
	if cfg.CaseTimeout <= 0 {
		cfg.CaseTimeout = 5 * time.Second
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = 30 * time.Second
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 8 << 20
	}
	return &Executor{cfg: cfg}, nil
}

// Compile copies the solution into a fresh scratch dir and builds it there,
// so the problem workspace is never written to.
func (e *Executor) Compile(ctx context.Context, solutionPath string, language string) (judge.Program, error) {
	lang, ok := e.cfg.Languages[language]
	if !ok {
		return nil, appErr.Newf(appErr.ExecutionFailed, "no run command configured for language %q", language)
	}
	if lang.Main == "" {
		lang.Main = filepath.Base(solutionPath)
	}

	workDir, err := os.MkdirTemp(e.cfg.WorkRoot, "mockct-run-*")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalError, "create scratch dir failed")
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	if err := copyFile(solutionPath, filepath.Join(workDir, lang.Main)); err != nil {
		cleanup()
		return nil, appErr.Wrapf(err, appErr.ExecutionFailed, "stage solution failed")
	}

	if strings.TrimSpace(lang.CompileCmd) != "" {
		if err := e.compile(ctx, workDir, lang); err != nil {
			cleanup()
			return nil, err
		}
	}

	argv, err := buildCommand(lang.RunCmd, lang, workDir)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := checkStartable(argv[0], workDir); err != nil {
		cleanup()
		return nil, err
	}

	return &program{
		dir:       workDir,
		argv:      argv,
		timeout:   e.cfg.CaseTimeout,
		maxOutput: e.cfg.MaxOutputBytes,
	}, nil
}

func (e *Executor) compile(ctx context.Context, workDir string, lang Language) error {
	argv, err := buildCommand(lang.CompileCmd, lang, workDir)
	if err != nil {
		return err
	}
	if err := checkStartable(argv[0], workDir); err != nil {
		return err
	}

	ctxCompile, cancel := context.WithTimeout(ctx, e.cfg.CompileTimeout)
	defer cancel()

	var out limitedBuffer
	out.limit = compileLogLimit
	cmd := exec.CommandContext(ctxCompile, argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug(ctx, "compile finished",
		zap.String("language", lang.ID),
		zap.Strings("cmd", argv),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr),
	)
	if runErr == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if errors.Is(ctxCompile.Err(), context.DeadlineExceeded) {
		return appErr.Newf(appErr.CompilationError, "compilation exceeded %s", e.cfg.CompileTimeout).
			WithDetail("log", out.String())
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return appErr.Newf(appErr.CompilationError, "compilation failed with exit code %d", exitErr.ExitCode()).
			WithDetail("log", out.String())
	}
	return appErr.Wrapf(runErr, appErr.ExecutionFailed, "start compiler failed")
}

type program struct {
	dir       string
	argv      []string
	timeout   time.Duration
	maxOutput int64
}

// Run executes the program once. Non-zero exits and timeouts are reported in the
// output, not as errors; an error means the program could not be started.
func (p *program) Run(ctx context.Context, input io.Reader) (judge.CaseOutput, error) {
	ctxRun, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout := limitedBuffer{limit: p.maxOutput}
	stderr := limitedBuffer{limit: compileLogLimit}
	cmd := exec.CommandContext(ctxRun, p.argv[0], p.argv[1:]...)
	cmd.Dir = p.dir
	cmd.Stdin = input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	out := judge.CaseOutput{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Elapsed:   time.Since(start),
		Truncated: stdout.truncated,
	}
	if runErr == nil {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if errors.Is(ctxRun.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		out.ExitCode = -1
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, appErr.Wrapf(runErr, appErr.ExecutionFailed, "start solution failed")
}

func (p *program) Close() error {
	return os.RemoveAll(p.dir)
}

func buildCommand(tpl string, lang Language, workDir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.Newf(appErr.ExecutionFailed, "language %q has no run command", lang.ID)
	}
	fields, err := shlex.Split(tpl)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ExecutionFailed, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.ExecutionFailed).WithMessage("command is empty after expansion")
	}
	for i, field := range fields {
		field = strings.ReplaceAll(field, "{main}", lang.Main)
		field = strings.ReplaceAll(field, "{dir}", workDir)
		fields[i] = field
	}
	return fields, nil
}

// checkStartable fails early when the command cannot be found, so a broken
// toolchain is one execution error rather than a failure on every case.
func checkStartable(name, workDir string) error {
	if strings.ContainsRune(name, filepath.Separator) || strings.HasPrefix(name, ".") {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return appErr.Newf(appErr.ExecutableNotFound, "executable %s was not produced", name)
		}
		return nil
	}
	if _, err := exec.LookPath(name); err != nil {
		return appErr.Wrapf(err, appErr.ExecutableNotFound, "%s not found in PATH", name)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s failed: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s failed: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s failed: %w", src, err)
	}
	return out.Close()
}

// limitedBuffer keeps the first limit bytes and drops the rest.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(b.buf.Len())
	if remaining <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}

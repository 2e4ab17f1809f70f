package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mockct/internal/cli/config"
	"mockct/internal/cli/prompt"
	"mockct/internal/cli/render"
	"mockct/internal/common/storage"
	"mockct/internal/exam"
	"mockct/internal/exam/solvedac"
	"mockct/internal/judge/local"
	"mockct/internal/judge/remote"
	"mockct/internal/workflow"
	"mockct/internal/workflow/sample"
	"mockct/internal/workflow/session"
	"mockct/internal/workflow/submission"
	"mockct/internal/workflow/workspace"
	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// app holds the loaded configuration and the shared terminal helpers.
type app struct {
	cfg     config.Config
	cfgPath string
	out     *render.Terminal
	prompt  *prompt.Prompter
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

func loadApp(cmd *cli.Command) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalError, "resolve working directory")
	}

	cfg := config.Default()
	path := cmd.String("config")
	if path == "" {
		path, _ = config.Resolve(cwd)
	}
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, appErr.Wrapf(err, appErr.ConfigInvalid, "config %s", path)
		}
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, appErr.Wrap(err, appErr.ConfigInvalid)
	}
	logger.Debug(context.Background(), "config loaded", zap.String("path", path))

	noColor := cmd.Bool("no-color") || color.NoColor
	return &app{
		cfg:     cfg,
		cfgPath: path,
		out:     render.New(os.Stdout, noColor, cmd.Bool("verbose")),
		prompt:  prompt.Stdio(cfg.Judge.Username),
	}, nil
}

func (a *app) judgeClient() *remote.Client {
	return remote.New(remote.Config{
		BaseURL:   a.cfg.Judge.BaseURL,
		Timeout:   a.cfg.Judge.Timeout,
		StatePath: a.cfg.Session.StatePath,
	})
}

func (a *app) layout() workspace.Layout {
	solutions := make(map[string]string, len(a.cfg.Filetypes))
	for name, ft := range a.cfg.Filetypes {
		solutions[name] = ft.Main
	}
	return workspace.Layout{
		BaseDir:         a.cfg.Workspace.OngoingDir,
		DescriptionFile: a.cfg.Workspace.DescriptionFile,
		TestcaseDir:     a.cfg.Workspace.TestcaseDir,
		Solutions:       solutions,
		DefaultFiletype: a.cfg.Workspace.DefaultFiletype,
	}
}

// judgeLanguages maps filetype to the language name the judge expects.
func (a *app) judgeLanguages() map[string]string {
	out := make(map[string]string, len(a.cfg.Filetypes))
	for name, ft := range a.cfg.Filetypes {
		if ft.Language != "" {
			out[name] = ft.Language
		}
	}
	return out
}

func (a *app) executor() (*local.Executor, error) {
	langs := make(map[string]local.Language, len(a.cfg.Filetypes))
	for name, ft := range a.cfg.Filetypes {
		langs[name] = local.Language{
			ID:         name,
			Main:       ft.Main,
			CompileCmd: ft.Compile,
			RunCmd:     ft.Run,
		}
	}
	return local.NewExecutor(local.Config{
		Languages:      langs,
		CompileTimeout: a.cfg.Run.CompileTimeout,
		CaseTimeout:    a.cfg.Run.CaseTimeout,
		MaxOutputBytes: a.cfg.Run.MaxOutputBytes,
	})
}

func (a *app) policy(yes, force bool) submission.Policy {
	return submission.Policy{
		RequireSamplesPass: a.cfg.RequireSamplesPass() && !force,
		Confirm:            a.cfg.ConfirmSubmit() && !yes,
		WaitVerdict:        a.cfg.Submit.WaitVerdict,
		PollInterval:       a.cfg.Submit.PollInterval,
	}
}

// orchestrator wires the workflow. The sample executor is keyed by filetype, so the
// runner gets no language mapping; the judge sees the configured language names.
func (a *app) orchestrator(yes, force bool) (*workflow.Orchestrator, error) {
	exec, err := a.executor()
	if err != nil {
		return nil, err
	}
	client := a.judgeClient()
	trigger := submission.NewTrigger(client, a.prompt, a.policy(yes, force), a.judgeLanguages())
	return workflow.New(
		session.NewManager(client, a.prompt),
		a.layout(),
		sample.NewRunner(exec, nil),
		trigger,
		a.out,
	), nil
}

func (a *app) poolDir() exam.PoolDir {
	return exam.PoolDir{Dir: a.cfg.Exam.PoolDir, Compress: a.cfg.Exam.Compress}
}

func (a *app) solvedac() *solvedac.Client {
	return solvedac.New(a.cfg.Exam.SolvedACBaseURL, a.cfg.Judge.Timeout, a.cfg.Exam.MaxPages, a.cfg.Exam.PageSize)
}

func (a *app) share() (exam.Share, error) {
	sc := a.cfg.Storage
	switch sc.Kind {
	case "minio":
		store, err := storage.NewMinIOStorage(sc.MinIO)
		if err != nil {
			return exam.Share{}, appErr.Wrap(err, appErr.ConfigInvalid)
		}
		return exam.Share{Store: store, Bucket: sc.MinIO.Bucket, Prefix: sc.Prefix}, nil
	default:
		if sc.Dir == "" {
			return exam.Share{}, appErr.ValidationError("storage.dir", "required for the fs storage kind")
		}
		store, err := storage.NewFSStorage(sc.Dir)
		if err != nil {
			return exam.Share{}, appErr.Wrap(err, appErr.ConfigInvalid)
		}
		return exam.Share{Store: store, Prefix: sc.Prefix}, nil
	}
}

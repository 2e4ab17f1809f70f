package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"mockct/internal/common/storage"
	"mockct/pkg/utils/logger"
)

const (
	AppName = "mockct"

	DefaultBaseURL         = "http://127.0.0.1:8080"
	DefaultTimeout         = 15 * time.Second
	DefaultOngoingDir      = "problems"
	DefaultDescriptionFile = "PROBLEM.md"
	DefaultTestcaseDir     = "testcases"
	DefaultFiletype        = "py"
	DefaultCompileTimeout  = 30 * time.Second
	DefaultCaseTimeout     = 5 * time.Second
	DefaultMaxOutputBytes  = 8 << 20
	DefaultPollInterval    = time.Second
	DefaultPoolDir         = "pool"
	DefaultSolvedACBaseURL = "https://solved.ac/api/v3"
	DefaultMaxPages        = 3
	DefaultPageSize        = 100
	DefaultDuration        = 120
)

// Config holds CLI configuration.
type Config struct {
	Judge     JudgeConfig         `yaml:"judge"`
	Session   SessionConfig       `yaml:"session"`
	Workspace WorkspaceConfig     `yaml:"workspace"`
	Filetypes map[string]Filetype `yaml:"filetypes"`
	Run       RunConfig           `yaml:"run"`
	Submit    SubmitConfig        `yaml:"submit"`
	Exam      ExamConfig          `yaml:"exam"`
	Storage   StorageConfig       `yaml:"storage"`
	Log       logger.Config       `yaml:"log"`
}

// JudgeConfig points at the judge REST API.
type JudgeConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	Username string        `yaml:"username"`
}

// SessionConfig controls where the judge session state is persisted.
type SessionConfig struct {
	StatePath string `yaml:"statePath"`
}

// WorkspaceConfig describes the per-problem folder layout.
type WorkspaceConfig struct {
	OngoingDir      string `yaml:"ongoingDir"`
	DescriptionFile string `yaml:"descriptionFile"`
	TestcaseDir     string `yaml:"testcaseDir"`
	DefaultFiletype string `yaml:"defaultFiletype"`
}

// Filetype binds a solution language to its judge language and local commands.
// Compile and Run are command templates; {main} expands to the solution file name.
type Filetype struct {
	Language string `yaml:"language"`
	Main     string `yaml:"main"`
	Compile  string `yaml:"compile"`
	Run      string `yaml:"run"`
}

// RunConfig limits local sample execution.
type RunConfig struct {
	CompileTimeout time.Duration `yaml:"compileTimeout"`
	CaseTimeout    time.Duration `yaml:"caseTimeout"`
	MaxOutputBytes int64         `yaml:"maxOutputBytes"`
}

// SubmitConfig is the submission policy.
type SubmitConfig struct {
	RequireSamplesPass *bool         `yaml:"requireSamplesPass"`
	Confirm            *bool         `yaml:"confirm"`
	WaitVerdict        time.Duration `yaml:"waitVerdict"`
	PollInterval       time.Duration `yaml:"pollInterval"`
}

// ExamConfig drives pool snapshots and exam picking.
type ExamConfig struct {
	PoolDir         string   `yaml:"poolDir"`
	Compress        bool     `yaml:"compress"`
	SolvedACBaseURL string   `yaml:"solvedacBaseURL"`
	MaxPages        int      `yaml:"maxPages"`
	PageSize        int      `yaml:"pageSize"`
	Duration        int      `yaml:"duration"`
	Tags            []string `yaml:"tags"`
}

// StorageConfig selects the backend used to share pool snapshots.
type StorageConfig struct {
	Kind   string              `yaml:"kind"` // fs or minio
	Dir    string              `yaml:"dir"`
	Prefix string              `yaml:"prefix"`
	MinIO  storage.MinIOConfig `yaml:"minio"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Resolve returns the first existing config path: ./.mockct/config.yaml, then the user
// config dir. ok is false when neither exists.
func Resolve(cwd string) (path string, ok bool) {
	for _, candidate := range SearchPaths(cwd) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// SearchPaths lists config locations in lookup order.
func SearchPaths(cwd string) []string {
	return []string{
		filepath.Join(cwd, "."+AppName, "config.yaml"),
		filepath.Join(configHome(), AppName, "config.yaml"),
	}
}

// Validate checks cross-field invariants after defaults are applied.
func (c Config) Validate() error {
	if _, ok := c.Filetypes[c.Workspace.DefaultFiletype]; !ok {
		return fmt.Errorf("default filetype %q has no filetypes entry", c.Workspace.DefaultFiletype)
	}
	for name, ft := range c.Filetypes {
		if ft.Main == "" {
			return fmt.Errorf("filetype %q: main is required", name)
		}
		if ft.Run == "" {
			return fmt.Errorf("filetype %q: run is required", name)
		}
	}
	switch c.Storage.Kind {
	case "fs", "minio":
	default:
		return fmt.Errorf("unknown storage kind %q", c.Storage.Kind)
	}
	return nil
}

// RequireSamplesPass reports the effective submission gate.
func (c Config) RequireSamplesPass() bool {
	return c.Submit.RequireSamplesPass == nil || *c.Submit.RequireSamplesPass
}

// ConfirmSubmit reports whether the user is asked before submitting.
func (c Config) ConfirmSubmit() bool {
	return c.Submit.Confirm == nil || *c.Submit.Confirm
}

// DefaultFiletypes mirrors the judge-cli defaults for python, C++ and Java.
func DefaultFiletypes() map[string]Filetype {
	return map[string]Filetype{
		"py": {
			Language: "python3",
			Main:     "main.py",
			Compile:  "python3 -m py_compile {main}",
			Run:      "python3 {main}",
		},
		"cpp": {
			Language: "c++17",
			Main:     "main.cc",
			Compile:  "g++ -std=c++17 -O2 -o main {main}",
			Run:      "./main",
		},
		"java": {
			Language: "java11",
			Main:     "Main.java",
			Compile:  "javac {main}",
			Run:      "java Main",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Judge.BaseURL == "" {
		cfg.Judge.BaseURL = DefaultBaseURL
	}
	if cfg.Judge.Timeout == 0 {
		cfg.Judge.Timeout = DefaultTimeout
	}
	if cfg.Session.StatePath == "" {
		cfg.Session.StatePath = filepath.Join(stateHome(), AppName, "session.json")
	}
	if cfg.Workspace.OngoingDir == "" {
		cfg.Workspace.OngoingDir = DefaultOngoingDir
	}
	if cfg.Workspace.DescriptionFile == "" {
		cfg.Workspace.DescriptionFile = DefaultDescriptionFile
	}
	if cfg.Workspace.TestcaseDir == "" {
		cfg.Workspace.TestcaseDir = DefaultTestcaseDir
	}
	if cfg.Workspace.DefaultFiletype == "" {
		cfg.Workspace.DefaultFiletype = DefaultFiletype
	}
	if cfg.Filetypes == nil {
		cfg.Filetypes = make(map[string]Filetype)
	}
	for name, ft := range DefaultFiletypes() {
		if _, ok := cfg.Filetypes[name]; !ok {
			cfg.Filetypes[name] = ft
		}
	}
	if cfg.Run.CompileTimeout == 0 {
		cfg.Run.CompileTimeout = DefaultCompileTimeout
	}
	if cfg.Run.CaseTimeout == 0 {
		cfg.Run.CaseTimeout = DefaultCaseTimeout
	}
	if cfg.Run.MaxOutputBytes == 0 {
		cfg.Run.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if cfg.Submit.RequireSamplesPass == nil {
		value := true
		cfg.Submit.RequireSamplesPass = &value
	}
	if cfg.Submit.Confirm == nil {
		value := true
		cfg.Submit.Confirm = &value
	}
	if cfg.Submit.PollInterval == 0 {
		cfg.Submit.PollInterval = DefaultPollInterval
	}
	if cfg.Exam.PoolDir == "" {
		cfg.Exam.PoolDir = DefaultPoolDir
	}
	if cfg.Exam.SolvedACBaseURL == "" {
		cfg.Exam.SolvedACBaseURL = DefaultSolvedACBaseURL
	}
	if cfg.Exam.MaxPages <= 0 {
		cfg.Exam.MaxPages = DefaultMaxPages
	}
	if cfg.Exam.PageSize <= 0 {
		cfg.Exam.PageSize = DefaultPageSize
	}
	if cfg.Exam.Duration <= 0 {
		cfg.Exam.Duration = DefaultDuration
	}
	if cfg.Storage.Kind == "" {
		cfg.Storage.Kind = "fs"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "pool/"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".config")
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "state")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
		if home == "" {
			home = os.TempDir()
		}
	}
	return home
}

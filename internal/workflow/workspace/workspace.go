// Package workspace describes one problem folder on disk and checks that it is
// complete enough to test and submit.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

// Layout is the folder convention shared by every problem.
type Layout struct {
	BaseDir         string
	DescriptionFile string
	TestcaseDir     string
	// Solutions maps filetype to solution file name, e.g. "py" -> "main.py".
	Solutions       map[string]string
	DefaultFiletype string
}

// Descriptor is the resolved on-disk layout of one problem. It is read-only to
// the workflow.
type Descriptor struct {
	ProblemID       string
	Dir             string
	SolutionPath    string
	TestcaseDir     string
	DescriptionPath string
	Filetype        string
}

// TestCase pairs one input with its expected output.
type TestCase struct {
	ID         string
	InputPath  string
	AnswerPath string
}

// Load resolves the descriptor for problemID under the layout base dir.
func (l Layout) Load(problemID string) (Descriptor, error) {
	problemID = strings.TrimSpace(problemID)
	if problemID == "" {
		return Descriptor{}, appErr.ValidationError("problem_id", "required")
	}
	if strings.ContainsAny(problemID, `/\`) || problemID == "." || problemID == ".." {
		return Descriptor{}, appErr.ValidationError("problem_id", "must be a folder name")
	}
	return l.LoadDir(filepath.Join(l.BaseDir, problemID))
}

// LoadDir resolves the descriptor for an explicit problem folder. The problem id is
// the folder name.
func (l Layout) LoadDir(dir string) (Descriptor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Descriptor{}, appErr.Wrapf(err, appErr.InvalidParams, "resolve problem dir failed")
	}
	filetype, main, err := l.detectSolution(abs)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		ProblemID:    filepath.Base(abs),
		Dir:          abs,
		SolutionPath: filepath.Join(abs, main),
		TestcaseDir:  filepath.Join(abs, l.TestcaseDir),
		Filetype:     filetype,
	}
	if l.DescriptionFile != "" {
		d.DescriptionPath = filepath.Join(abs, l.DescriptionFile)
	}
	return d, nil
}

// detectSolution prefers the default filetype, then any other configured filetype
// whose solution file exists. With none present it still returns the default so
// validation can report the missing solution.
func (l Layout) detectSolution(dir string) (string, string, error) {
	main, ok := l.Solutions[l.DefaultFiletype]
	if !ok {
		return "", "", appErr.Newf(appErr.UnknownFiletype, "filetype %q is not configured", l.DefaultFiletype)
	}
	if fileExists(filepath.Join(dir, main)) {
		return l.DefaultFiletype, main, nil
	}
	others := make([]string, 0, len(l.Solutions))
	for ft := range l.Solutions {
		if ft != l.DefaultFiletype {
			others = append(others, ft)
		}
	}
	sort.Strings(others)
	for _, ft := range others {
		if fileExists(filepath.Join(dir, l.Solutions[ft])) {
			return ft, l.Solutions[ft], nil
		}
	}
	return l.DefaultFiletype, main, nil
}

// Validate checks the solution file and the test cases. The first missing
// resource is reported.
func (d Descriptor) Validate() error {
	info, err := os.Stat(d.SolutionPath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return appErr.MissingResourceError(appErr.ResourceSolution, d.SolutionPath)
	}
	cases, err := d.Cases()
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return appErr.MissingResourceError(appErr.ResourceTestcases, d.TestcaseDir).
			WithMessage("no complete input/output pair found")
	}
	return nil
}

// Cases lists the complete test cases in natural order.
func (d Descriptor) Cases() ([]TestCase, error) {
	entries, err := os.ReadDir(d.TestcaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.MissingResourceError(appErr.ResourceTestcases, d.TestcaseDir)
		}
		return nil, appErr.Wrapf(err, appErr.MissingTestcases, "read testcase dir failed").
			WithDetail("kind", appErr.ResourceTestcases).
			WithDetail("path", d.TestcaseDir)
	}

	cases := make([]TestCase, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if tc, ok := d.dirCase(name); ok {
				cases = append(cases, tc)
			}
			continue
		}
		if filepath.Ext(name) != ".in" {
			continue
		}
		id := strings.TrimSuffix(name, ".in")
		tc := TestCase{ID: id, InputPath: filepath.Join(d.TestcaseDir, name)}
		for _, ext := range []string{".out", ".ans"} {
			candidate := filepath.Join(d.TestcaseDir, id+ext)
			if fileExists(candidate) {
				tc.AnswerPath = candidate
				break
			}
		}
		if tc.AnswerPath == "" {
			logger.Warn(context.Background(), "testcase input has no expected output, skipped",
				zap.String("problem", d.ProblemID),
				zap.String("case", id),
			)
			continue
		}
		cases = append(cases, tc)
	}

	sort.SliceStable(cases, func(i, j int) bool {
		return naturalLess(cases[i].ID, cases[j].ID)
	})
	for i := 1; i < len(cases); i++ {
		if cases[i].ID == cases[i-1].ID {
			return nil, appErr.Newf(appErr.DuplicateCase, "test case %s has both %s and %s", cases[i].ID,
				cases[i-1].InputPath, cases[i].InputPath).
				WithDetail("kind", appErr.ResourceTestcases).
				WithDetail("path", d.TestcaseDir)
		}
	}
	return cases, nil
}

func (d Descriptor) dirCase(name string) (TestCase, bool) {
	in := filepath.Join(d.TestcaseDir, name, "input.txt")
	out := filepath.Join(d.TestcaseDir, name, "output.txt")
	if !fileExists(in) {
		return TestCase{}, false
	}
	if !fileExists(out) {
		logger.Warn(context.Background(), "testcase input has no expected output, skipped",
			zap.String("problem", d.ProblemID),
			zap.String("case", name),
		)
		return TestCase{}, false
	}
	return TestCase{ID: name, InputPath: in, AnswerPath: out}, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

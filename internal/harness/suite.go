package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects scenario files below a directory.
const DefaultPattern = "**/*.{yaml,yml}"

// Discover returns the scenario files below dir whose path relative to dir
// matches pattern, sorted. An empty pattern means DefaultPattern. Files
// under a golden directory are never scenarios.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid scenario pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("find scenarios in %s: %w", dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		ext := filepath.Ext(m)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if strings.HasPrefix(m, "golden/") || strings.Contains(m, "/golden/") {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// SuiteResult summarizes the scenarios of a directory.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure is a scenario that failed to load, run or pass.
type SuiteFailure struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// RunSuite loads and runs every scenario below dir matching pattern.
func RunSuite(dir, pattern string) (*SuiteResult, error) {
	files, err := Discover(dir, pattern)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Total: len(files)}
	for _, path := range files {
		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(SuiteFailure{Path: path, Errors: []string{err.Error()}})
			continue
		}
		result, err := Run(scenario)
		if err != nil {
			suite.fail(SuiteFailure{Path: path, Name: scenario.Name, Errors: []string{err.Error()}})
			continue
		}
		if !result.Pass {
			suite.fail(SuiteFailure{Path: path, Name: scenario.Name, Errors: result.Errors})
			continue
		}
		suite.Passed++
	}
	return suite, nil
}

func (s *SuiteResult) fail(f SuiteFailure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}

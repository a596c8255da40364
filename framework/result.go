package framework

import (
	"errors"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

func (t TestID) IsRoot() bool {
	return len(t.Path) == 0
}

// reformatError strips the indentation that testify puts in front of its failure
// messages, so they line up with our own output.
func reformatError(err error) error {
	lines := strings.Split(err.Error(), "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, "\t ")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == len(lines) {
		return err
	}
	return errors.New(strings.Join(out, "\n"))
}

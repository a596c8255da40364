// Package validation decides whether a response from the service matches what a step
// expected.
package validation

import (
	"fmt"
	"strings"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/framework"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Expectation is what a step expects back. A null Body means that only the status is
// checked. Document marks an API document, whose body may also match on title and
// description alone.
type Expectation struct {
	Status   int
	Body     ldvalue.Value
	Document bool
}

// MismatchError describes why a response did not match its expectation.
type MismatchError struct {
	Label          string
	ExpectedStatus int
	ActualStatus   int
	ExpectedBody   ldvalue.Value
	ActualBody     client.Body
	Diff           string
	Problems       []string
}

func (e *MismatchError) Error() string {
	if e.ExpectedStatus != e.ActualStatus {
		return fmt.Sprintf("%s: expected status %d, got %d", e.Label, e.ExpectedStatus, e.ActualStatus)
	}
	if len(e.Problems) != 0 {
		return fmt.Sprintf("%s: %s", e.Label, strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("%s: response body did not match", e.Label)
}

// Validate checks a response against an expectation. On success it returns nil and logs
// the full response; on failure it logs a diagnostic and returns a *MismatchError.
func Validate(label string, actual client.Response, expected Expectation, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}

	mismatch := &MismatchError{
		Label:          label,
		ExpectedStatus: expected.Status,
		ActualStatus:   actual.StatusCode,
		ExpectedBody:   expected.Body,
		ActualBody:     actual.Body,
	}

	if actual.StatusCode != expected.Status {
		logMismatch(logger, mismatch)
		return mismatch
	}

	if expected.Body.IsNull() {
		logger.Printf("%s: status %d, body: %s", label, actual.StatusCode, actual.Body)
		return nil
	}

	actualValue := actual.Body.AsValue()
	resolved := ResolveTemplate(expected.Body, actualValue)
	if StructuralEqual(resolved, actualValue) ||
		(expected.Document && documentSubsetEqual(expected.Body, actualValue)) {
		logger.Printf("%s: status %d, body: %s", label, actual.StatusCode, actual.Body)
		return nil
	}

	mismatch.ExpectedBody = resolved
	mismatch.Diff = cmp.Diff(resolved.AsArbitraryValue(), actualValue.AsArbitraryValue())
	logMismatch(logger, mismatch)
	return mismatch
}

// documentSubsetEqual handles API documents, which are too large and volatile to match
// in full. If the expected body carries a title and description, either at the top level
// or under "info", only those two fields are compared.
func documentSubsetEqual(expected, actual ldvalue.Value) bool {
	for _, path := range [][]string{nil, {"info"}} {
		exp := valueAtPath(expected, path)
		if exp.Type() != ldvalue.ObjectType || !hasKey(exp, "title") || !hasKey(exp, "description") {
			continue
		}
		act := valueAtPath(actual, path)
		if act.Type() != ldvalue.ObjectType {
			return false
		}
		return exp.GetByKey("title").Equal(act.GetByKey("title")) &&
			exp.GetByKey("description").Equal(act.GetByKey("description"))
	}
	return false
}

func valueAtPath(v ldvalue.Value, path []string) ldvalue.Value {
	for _, k := range path {
		v = v.GetByKey(k)
	}
	return v
}

func logMismatch(logger framework.Logger, e *MismatchError) {
	logger.Printf("An error occurred while performing step %s", e.Label)
	logger.Printf("Status Code: %d, Expected: %d", e.ActualStatus, e.ExpectedStatus)
	logger.Printf("Response: %s", e.ActualBody)
	if !e.ExpectedBody.IsNull() {
		logger.Printf("Expected: %s", e.ExpectedBody.JSONString())
	}
	for _, p := range e.Problems {
		logger.Printf("  %s", p)
	}
	if e.Diff != "" {
		logger.Printf("Difference (-expected +actual):\n%s", e.Diff)
	}
}

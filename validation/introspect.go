package validation

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/framework"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Top-level sections of the metrics document.
const (
	MetersSection   = "meters"
	CountersSection = "counters"
	countField      = "count"
	healthyField    = "healthy"
)

// MetricsExpectation names the meters and counters that must be present, with their
// exact counts.
type MetricsExpectation struct {
	Status   int
	Meters   map[string]int
	Counters map[string]int
}

// CheckMetrics fails unless the status matches and every named meter and counter exists
// with exactly the expected count.
func CheckMetrics(label string, actual client.Response, expected MetricsExpectation, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}
	status := expected.Status
	if status == 0 {
		status = http.StatusOK
	}
	mismatch := &MismatchError{Label: label, ExpectedStatus: status, ActualStatus: actual.StatusCode, ActualBody: actual.Body}
	if actual.StatusCode != status {
		logMismatch(logger, mismatch)
		return mismatch
	}

	doc := actual.Body.AsValue()
	mismatch.Problems = append(mismatch.Problems, checkCounts(doc.GetByKey(MetersSection), "meter", expected.Meters)...)
	mismatch.Problems = append(mismatch.Problems, checkCounts(doc.GetByKey(CountersSection), "counter", expected.Counters)...)
	if len(mismatch.Problems) != 0 {
		logMismatch(logger, mismatch)
		return mismatch
	}
	for _, name := range sortedKeys(expected.Meters) {
		logger.Printf("meter %s: count %d", name, expected.Meters[name])
	}
	for _, name := range sortedKeys(expected.Counters) {
		logger.Printf("counter %s: count %d", name, expected.Counters[name])
	}
	return nil
}

func checkCounts(section ldvalue.Value, what string, expected map[string]int) []string {
	var problems []string
	for _, name := range sortedKeys(expected) {
		if section.Type() != ldvalue.ObjectType || !hasKey(section, name) {
			problems = append(problems, fmt.Sprintf("%s %q is missing", what, name))
			continue
		}
		count := section.GetByKey(name).GetByKey(countField)
		if count.Type() != ldvalue.NumberType || count.Float64Value() != float64(expected[name]) {
			problems = append(problems, fmt.Sprintf("%s %q has count %s, expected %d", what, name, count.JSONString(), expected[name]))
		}
	}
	return problems
}

// CheckHealth fails unless the status is 200 and every named indicator reports
// healthy: true.
func CheckHealth(label string, actual client.Response, indicators []string, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}
	mismatch := &MismatchError{Label: label, ExpectedStatus: http.StatusOK, ActualStatus: actual.StatusCode, ActualBody: actual.Body}
	if actual.StatusCode != http.StatusOK {
		logMismatch(logger, mismatch)
		return mismatch
	}

	doc := actual.Body.AsValue()
	for _, name := range indicators {
		if doc.Type() != ldvalue.ObjectType || !hasKey(doc, name) {
			mismatch.Problems = append(mismatch.Problems, fmt.Sprintf("health indicator %q is missing", name))
			continue
		}
		if !doc.GetByKey(name).GetByKey(healthyField).Equal(ldvalue.Bool(true)) {
			mismatch.Problems = append(mismatch.Problems, fmt.Sprintf("health indicator %q is not healthy: %s", name, doc.GetByKey(name).JSONString()))
		}
	}
	if len(mismatch.Problems) != 0 {
		logMismatch(logger, mismatch)
		return mismatch
	}
	logger.Printf("%s: all %d health indicators healthy", label, len(indicators))
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

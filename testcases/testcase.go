// Package testcases loads the ordered list of steps that make up a test plan.
package testcases

import (
	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// TestCase is one step of a test plan. Steps are immutable once loaded; anything the
// runner substitutes is applied to a copy.
type TestCase struct {
	Kind    Kind
	RawKind string

	// Label identifies the step in reports. Log is an optional human-readable
	// description that is printed when the step starts.
	Label string
	Log   string

	Disabled bool

	Body          ldvalue.Value
	Email         string
	Password      string
	ExistingEmail string
	Token         string
	ResponseType  servicedef.ResponseType
	Format        servicedef.DocumentFormat

	ExpectedStatus int
	// ExpectedBody is a template that may contain sentinel leaves. Null means that only
	// the status is checked.
	ExpectedBody ldvalue.Value

	Metrics MetricsParams
	Health  []string
}

// MetricsParams lists the meters and counters an introspectMetrics step looks for, with
// the count each is expected to have.
type MetricsParams struct {
	Meters   map[string]int `yaml:"meters"`
	Counters map[string]int `yaml:"counters"`
}

// BodyAddress returns body.email.address, or "" if the body has no such field.
func (t TestCase) BodyAddress() string {
	return servicedef.UserFromValue(t.Body).Address()
}

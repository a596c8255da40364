package testcases

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

type rawTestCase struct {
	Type             string        `yaml:"type"`
	Name             string        `yaml:"name"`
	Log              string        `yaml:"log"`
	Disabled         bool          `yaml:"disabled"`
	Body             interface{}   `yaml:"body"`
	Email            string        `yaml:"email"`
	Password         string        `yaml:"password"`
	ExistingEmail    string        `yaml:"existingEmail"`
	Token            string        `yaml:"token"`
	ResponseType     string        `yaml:"responseType"`
	Format           string        `yaml:"format"`
	ExpectedCode     int           `yaml:"expectedCode"`
	ExpectedResponse interface{}   `yaml:"expectedResponse"`
	Metrics          MetricsParams `yaml:"metrics"`
	Health           []string      `yaml:"health"`
}

// LoadFile reads a test plan from a YAML file.
func LoadFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read test file: %w", err)
	}
	cases, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Parse decodes a YAML list of steps. File order is preserved and disabled steps are
// kept. A step without a type is an error; a step with an unrecognized type is kept as
// KindUnknown.
func Parse(data []byte) ([]TestCase, error) {
	var raw []rawTestCase
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed test file: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("test file contains no steps")
	}

	cases := make([]TestCase, 0, len(raw))
	for i, r := range raw {
		if r.Type == "" {
			return nil, fmt.Errorf("step %d has no type", i+1)
		}
		body, err := toValue(r.Body)
		if err != nil {
			return nil, fmt.Errorf("step %d body: %w", i+1, err)
		}
		expected, err := toValue(r.ExpectedResponse)
		if err != nil {
			return nil, fmt.Errorf("step %d expectedResponse: %w", i+1, err)
		}

		tc := TestCase{
			Kind:           ParseKind(r.Type),
			RawKind:        r.Type,
			Label:          r.Name,
			Log:            r.Log,
			Disabled:       r.Disabled,
			Body:           body,
			Email:          r.Email,
			Password:       r.Password,
			ExistingEmail:  r.ExistingEmail,
			Token:          r.Token,
			ResponseType:   servicedef.ResponseType(r.ResponseType),
			Format:         servicedef.DocumentFormat(r.Format),
			ExpectedStatus: r.ExpectedCode,
			ExpectedBody:   expected,
			Metrics:        r.Metrics,
			Health:         r.Health,
		}
		if tc.Label == "" {
			tc.Label = defaultLabel(i, tc)
		}
		if tc.ExpectedStatus == 0 {
			tc.ExpectedStatus = tc.Kind.SuccessStatus()
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func defaultLabel(index int, tc TestCase) string {
	if tc.Log != "" {
		return tc.Log
	}
	return fmt.Sprintf("%d %s", index+1, tc.RawKind)
}

// toValue converts a decoded YAML tree into an ldvalue.Value. YAML allows mapping keys
// that are not strings, which JSON does not; those are rejected.
func toValue(in interface{}) (ldvalue.Value, error) {
	normalized, err := normalize(in)
	if err != nil {
		return ldvalue.Null(), err
	}
	return ldvalue.CopyArbitraryValue(normalized), nil
}

func normalize(in interface{}) (interface{}, error) {
	switch v := in.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("mapping key %v is not a string", k)
			}
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case time.Time:
		return timestampText(v), nil
	default:
		return v, nil
	}
}

// timestampText turns an unquoted YAML timestamp back into the text it was written as, so
// a date such as 2020-01-02 reaches the service unchanged.
func timestampText(t time.Time) string {
	if t.Location() == time.UTC && t.Equal(t.Truncate(24*time.Hour)) {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}

// ParseValue decodes a single YAML or JSON document, such as a user details file.
func ParseValue(data []byte) (ldvalue.Value, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ldvalue.Null(), fmt.Errorf("malformed document: %w", err)
	}
	return toValue(raw)
}

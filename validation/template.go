package validation

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Sentinel strings that may appear as leaves of an expected body. Each one stands for a
// value the service generates and the test file cannot know in advance.
const (
	SentinelGenerated = "GENERATED"
	SentinelHashed    = "HASHED"
	SentinelTime      = "TIME"
)

// IsSentinel reports whether v is one of the sentinel strings.
func IsSentinel(v ldvalue.Value) bool {
	if v.Type() != ldvalue.StringType {
		return false
	}
	switch v.StringValue() {
	case SentinelGenerated, SentinelHashed, SentinelTime:
		return true
	}
	return false
}

// ResolveTemplate returns a copy of expected in which every sentinel leaf is replaced by
// the value found at the same path in actual. A sentinel whose path does not exist in
// actual is left in place, so that the following comparison fails.
//
// Any value is accepted at a sentinel's path; the sentinel does not check that a token
// looks like a token or that a time looks like a time.
func ResolveTemplate(expected, actual ldvalue.Value) ldvalue.Value {
	switch expected.Type() {
	case ldvalue.StringType:
		if IsSentinel(expected) {
			return actual
		}
		return expected
	case ldvalue.ObjectType:
		out := ldvalue.ObjectBuild()
		for _, k := range expected.Keys() {
			child := expected.GetByKey(k)
			if actual.Type() == ldvalue.ObjectType && hasKey(actual, k) {
				out.Set(k, ResolveTemplate(child, actual.GetByKey(k)))
			} else {
				out.Set(k, child)
			}
		}
		return out.Build()
	case ldvalue.ArrayType:
		out := ldvalue.ArrayBuild()
		for i := 0; i < expected.Count(); i++ {
			child := expected.GetByIndex(i)
			if actual.Type() == ldvalue.ArrayType && i < actual.Count() {
				out.Add(ResolveTemplate(child, actual.GetByIndex(i)))
			} else {
				out.Add(child)
			}
		}
		return out.Build()
	default:
		return expected
	}
}

// StructuralEqual compares two values recursively. Arrays are compared in order; object
// keys are compared without regard to order; numbers are compared by value.
func StructuralEqual(a, b ldvalue.Value) bool {
	return a.Equal(b)
}

func hasKey(v ldvalue.Value, key string) bool {
	for _, k := range v.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

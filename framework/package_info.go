// Package framework contains the low-level test harness infrastructure that is not
// specific to Thunder.
//
// The general model is:
//
// 1. A test plan is an ordered list of steps. Each step runs inside its own Context,
// which is similar to Go's *testing.T: it accumulates failures, can be skipped, and
// captures debug output that is only shown when it is useful.
//
// 2. Steps run one at a time. The caller decides what to do when a step fails; Run
// reports the outcome so that the caller can stop the plan.
//
// 3. A TestLogger reports progress to the console as steps start, fail, finish or are
// skipped.
//
// The domain-specific code that knows what is being tested (the runner package) is
// responsible for deciding what each step does and how its result is checked.
package framework

package runner

import (
	"context"
	"errors"
	"fmt"
)

// ErrTestFailures is returned by Runner.Run when any step failed.
var ErrTestFailures = errors.New("there are integration test failures")

// Bootstrapper prepares the service's dependencies before any step runs. It must treat
// "already prepared" as success.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// BootstrapperFunc adapts a function to the Bootstrapper interface.
type BootstrapperFunc func(ctx context.Context) error

func (f BootstrapperFunc) Bootstrap(ctx context.Context) error { return f(ctx) }

// BootstrapError means the run was aborted before any step because the dependencies
// could not be prepared.
type BootstrapError struct {
	Err error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap failed: %s", e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

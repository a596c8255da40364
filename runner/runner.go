// Package runner executes a test plan against the service: one step at a time, carrying
// generated values forward, and cleaning up after itself when a step fails.
package runner

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/framework"
	"github.com/sanctionco/thunder-contract-tests/servicedef"
	"github.com/sanctionco/thunder-contract-tests/testcases"
	"github.com/sanctionco/thunder-contract-tests/validation"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// UserService is the set of operations the runner needs. *client.ThunderClient
// implements it; tests substitute fakes.
type UserService interface {
	CreateUser(ctx context.Context, user ldvalue.Value) (client.Response, error)
	GetUser(ctx context.Context, email, password string) (client.Response, error)
	UpdateUser(ctx context.Context, existingEmail, password string, user ldvalue.Value) (client.Response, error)
	DeleteUser(ctx context.Context, email, password string) (client.Response, error)
	SendVerificationEmail(ctx context.Context, email, password string) (client.Response, error)
	VerifyUser(ctx context.Context, email, token string, responseType servicedef.ResponseType) (client.Response, error)
	ResetVerificationStatus(ctx context.Context, email, password string) (client.Response, error)
	GetOpenAPI(ctx context.Context, format servicedef.DocumentFormat) (client.Response, error)
	GetSwaggerUI(ctx context.Context) (client.Response, error)
	GetMetrics(ctx context.Context) (client.Response, error)
	GetHealthcheck(ctx context.Context) (client.Response, error)
}

// Config controls a Runner.
type Config struct {
	// Bootstrapper, if not nil, runs once before the first step.
	Bootstrapper Bootstrapper
	// Filter, if not nil, excludes steps by name.
	Filter framework.Filter
	// TestLogger reports step progress.
	TestLogger framework.TestLogger
	// Logger receives run-level messages: bootstrap, cleanup and leftover users.
	Logger framework.Logger
	// SkipMetrics causes introspectMetrics steps to be skipped.
	SkipMetrics bool
}

// Runner executes test plans. Each Runner owns its own Tracker, so separate runs never
// share state.
type Runner struct {
	service UserService
	config  Config
	tracker *Tracker
}

func NewRunner(service UserService, config Config) *Runner {
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	return &Runner{
		service: service,
		config:  config,
		tracker: NewTracker(),
	}
}

// Tracker returns the resources the runner currently believes exist.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Run bootstraps the dependencies and then executes cases in order, stopping at the first
// failed step. If a step fails, every tracked user is deleted and ErrTestFailures is
// returned. A bootstrap failure returns a *BootstrapError without running any step.
func (r *Runner) Run(ctx context.Context, cases []testcases.TestCase) (framework.Results, error) {
	if r.config.Bootstrapper != nil {
		r.config.Logger.Printf("Bootstrapping dependencies...")
		if err := r.config.Bootstrapper.Bootstrap(ctx); err != nil {
			return framework.Results{}, &BootstrapError{Err: err}
		}
		r.config.Logger.Printf("Done bootstrapping dependencies")
	}

	r.config.Logger.Printf("Running %d steps", len(cases))
	results := framework.Run(r.config.Filter, r.config.TestLogger, func(c *framework.Context) {
		for _, tc := range cases {
			if ctx.Err() != nil {
				return
			}
			tc := tc
			if failed := c.Run(tc.Label, func(sc *framework.Context) { r.runStep(ctx, sc, tc) }); failed {
				return
			}
		}
	})

	if !results.OK() || ctx.Err() != nil {
		r.config.Logger.Printf("Attempting to clean up from failure by deleting users...")
		r.cleanup(context.WithoutCancel(ctx))
		if !results.OK() {
			return results, ErrTestFailures
		}
		return results, ctx.Err()
	}

	for _, res := range r.tracker.Resources() {
		r.config.Logger.Printf("INFO: User %s still exists in the database after test completion.", res.Email)
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, c *framework.Context, tc testcases.TestCase) {
	if tc.Disabled {
		c.SkipWithReason("disabled")
	}
	if tc.Kind == testcases.KindUnknown {
		r.config.Logger.Printf("WARN: unknown step type %q, step %q will be skipped", tc.RawKind, tc.Label)
		c.SkipWithReason(fmt.Sprintf("unknown step type %q", tc.RawKind))
	}
	if tc.Kind == testcases.KindIntrospectMetrics && r.config.SkipMetrics {
		c.SkipWithReason("metrics checks are disabled")
	}

	if tc.Log != "" {
		c.Debug("%s", tc.Log)
	}

	step := r.resolveReferences(tc)
	resp, err := r.invoke(ctx, step)
	require.NoError(c, err, "error performing %s request", step.RawKind)

	if step.Kind.IsUserResource() {
		r.updateTracker(step, resp)
	}

	if err := r.validate(c, step, resp); err != nil {
		c.Fail(err)
	}
}

func (r *Runner) invoke(ctx context.Context, step testcases.TestCase) (client.Response, error) {
	switch step.Kind {
	case testcases.KindCreate:
		return r.service.CreateUser(ctx, step.Body)
	case testcases.KindGet:
		return r.service.GetUser(ctx, step.Email, step.Password)
	case testcases.KindUpdate:
		return r.service.UpdateUser(ctx, step.ExistingEmail, step.Password, step.Body)
	case testcases.KindDelete:
		return r.service.DeleteUser(ctx, step.Email, step.Password)
	case testcases.KindSendEmail:
		return r.service.SendVerificationEmail(ctx, step.Email, step.Password)
	case testcases.KindVerify:
		return r.service.VerifyUser(ctx, step.Email, step.Token, step.ResponseType)
	case testcases.KindResetVerification:
		return r.service.ResetVerificationStatus(ctx, step.Email, step.Password)
	case testcases.KindOpenAPI:
		return r.service.GetOpenAPI(ctx, step.Format)
	case testcases.KindSwagger:
		return r.service.GetSwaggerUI(ctx)
	case testcases.KindIntrospectMetrics:
		return r.service.GetMetrics(ctx)
	case testcases.KindIntrospectHealth:
		return r.service.GetHealthcheck(ctx)
	default:
		return client.Response{}, fmt.Errorf("no operation for step type %q", step.RawKind)
	}
}

func (r *Runner) validate(c *framework.Context, step testcases.TestCase, resp client.Response) error {
	logger := c.DebugLogger()
	switch step.Kind {
	case testcases.KindIntrospectMetrics:
		return validation.CheckMetrics(step.Label, resp, validation.MetricsExpectation{
			Status:   step.ExpectedStatus,
			Meters:   step.Metrics.Meters,
			Counters: step.Metrics.Counters,
		}, logger)
	case testcases.KindIntrospectHealth:
		return validation.CheckHealth(step.Label, resp, step.Health, logger)
	}

	expected := validation.Expectation{
		Status:   step.ExpectedStatus,
		Body:     step.ExpectedBody,
		Document: step.Kind == testcases.KindOpenAPI,
	}
	if statusOnly(step) {
		expected.Body = ldvalue.Null()
	}
	return validation.Validate(step.Label, resp, expected, logger)
}

// statusOnly reports whether a step's response is a page or document that is never
// compared structurally.
func statusOnly(step testcases.TestCase) bool {
	switch step.Kind {
	case testcases.KindVerify:
		return step.ResponseType.IsHTML()
	case testcases.KindSwagger:
		return true
	case testcases.KindOpenAPI:
		return step.Format == servicedef.DocumentFormatYAML
	}
	return false
}

// resolveReferences returns a copy of the step in which GENERATED verification tokens are
// replaced with the token last seen for the step's user.
func (r *Runner) resolveReferences(tc testcases.TestCase) testcases.TestCase {
	switch tc.Kind {
	case testcases.KindVerify:
		if tc.Token == validation.SentinelGenerated {
			tc.Token = r.trackedToken(tc)
		}
	case testcases.KindUpdate:
		user := servicedef.UserFromValue(tc.Body)
		if user.VerificationToken() == validation.SentinelGenerated {
			tc.Body = user.WithVerificationToken(r.trackedToken(tc)).Value()
		}
	}
	return tc
}

// trackedToken finds the verification token of the user a step refers to. The address is
// taken from the step's email, then its existing email, then the body. If that user is
// not tracked the sentinel itself is returned.
func (r *Runner) trackedToken(tc testcases.TestCase) string {
	address := tc.Email
	if address == "" {
		address = tc.ExistingEmail
	}
	if address == "" {
		address = tc.BodyAddress()
	}
	if res, ok := r.tracker.Get(address); ok {
		if token := res.VerificationToken(); token != "" {
			return token
		}
	}
	return validation.SentinelGenerated
}

func (r *Runner) updateTracker(step testcases.TestCase, resp client.Response) {
	if resp.Body.Kind != client.BodyStructured {
		if step.Kind == testcases.KindDelete && resp.StatusCode == http.StatusOK {
			r.tracker.Remove(step.Email)
		}
		return
	}
	user := servicedef.UserFromValue(resp.Body.Value)
	returned := user.Address()

	switch resp.StatusCode {
	case http.StatusCreated:
		if returned == "" {
			return
		}
		r.tracker.Put(TrackedResource{
			Email:    returned,
			Body:     resp.Body.Value,
			Password: credential(step, user, ""),
		})

	case http.StatusOK:
		switch {
		case step.Kind == testcases.KindDelete:
			if returned == "" {
				returned = step.Email
			}
			r.tracker.Remove(returned)

		case step.Kind == testcases.KindUpdate && step.ExistingEmail != "" && returned != "" && step.ExistingEmail != returned:
			old, _ := r.tracker.Get(step.ExistingEmail)
			r.tracker.Rename(step.ExistingEmail, TrackedResource{
				Email:    returned,
				Body:     resp.Body.Value,
				Password: credential(step, user, old.Password),
			})

		case returned != "":
			existing, ok := r.tracker.Get(returned)
			if !ok {
				return
			}
			password := existing.Password
			if step.Kind == testcases.KindUpdate {
				password = credential(step, user, existing.Password)
			}
			r.tracker.Put(TrackedResource{Email: returned, Body: resp.Body.Value, Password: password})
		}
	}
}

// credential picks the password that will authenticate the user after a create or update:
// the one sent in the request body if there was one, otherwise the previously known one,
// otherwise whatever the service returned.
func credential(step testcases.TestCase, returned servicedef.User, previous string) string {
	if p := servicedef.UserFromValue(step.Body).Password(); p != "" {
		return p
	}
	if previous != "" {
		return previous
	}
	return returned.Password()
}

// cleanup issues one delete per tracked user, concurrently. A failed delete is logged and
// does not affect the others.
func (r *Runner) cleanup(ctx context.Context) {
	resources := r.tracker.Resources()
	var wg sync.WaitGroup
	for _, res := range resources {
		res := res
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.config.Logger.Printf("Deleting user %s...", res.Email)
			resp, err := r.service.DeleteUser(ctx, res.Email, res.Password)
			if err == nil && resp.StatusCode != http.StatusOK {
				err = fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body)
			}
			if err != nil {
				r.config.Logger.Printf("WARN: Failed to delete user %s, it may be orphaned: %s", res.Email, err)
			}
		}()
	}
	wg.Wait()
}

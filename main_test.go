package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sanctionco/thunder-contract-tests/dynamo"
	"github.com/sanctionco/thunder-contract-tests/fakeservice"
	"github.com/sanctionco/thunder-contract-tests/framework"
	"github.com/sanctionco/thunder-contract-tests/runner"

	"github.com/fatih/color"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleTestLoggerDumpsOutputOnFailure(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}

	framework.Run(nil, logger, func(c *framework.Context) {
		c.Run("get the user", func(c *framework.Context) {
			c.Debug("Status Code: 404, Expected: 200")
			c.Fail(errors.New("get the user: expected status 200, got 404"))
		})
		c.Run("disabled step", func(c *framework.Context) { c.SkipWithReason("disabled") })
	})

	out := buf.String()
	assert.Contains(t, out, "[get the user]")
	assert.Contains(t, out, "  get the user: expected status 200, got 404")
	assert.Contains(t, out, "  FAILED: get the user")
	assert.Contains(t, out, "    DEBUG [")
	assert.Contains(t, out, "] Status Code: 404, Expected: 200")
	assert.Contains(t, out, "  SKIPPED: disabled step (disabled)")
}

func TestConsoleTestLoggerHidesSuccessOutputUnlessVerbose(t *testing.T) {
	color.NoColor = true
	for _, verbose := range []bool{false, true} {
		var buf bytes.Buffer
		logger := &ConsoleTestLogger{DebugOutputOnFailure: true, DebugOutputOnSuccess: verbose, Out: &buf}
		framework.Run(nil, logger, func(c *framework.Context) {
			c.Run("create", func(c *framework.Context) { c.Debug("created") })
		})
		assert.Equal(t, verbose, bytes.Contains(buf.Bytes(), []byte("] created")))
	}
}

func TestClientConfigParsesAuth(t *testing.T) {
	p := commandParams{endpoint: "http://thunder:8080", auth: "app:s3cret"}
	config, err := p.clientConfig()
	require.NoError(t, err)
	assert.Equal(t, "app", config.Application)
	assert.Equal(t, "s3cret", config.Secret)
	assert.Equal(t, "http://thunder:8080", config.Endpoint)

	p.auth = "nocolon"
	_, err = p.clientConfig()
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	assert.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99", hashPassword("password", true))
	assert.Equal(t, "password", hashPassword("password", false))
}

func TestDynamoConfigFollowsDockerFlag(t *testing.T) {
	p := runParams{docker: true, tableName: "t", region: "us-west-2"}
	config := p.dynamoConfig()
	assert.Equal(t, "http://docker:4567", config.Endpoint)
	assert.Equal(t, "t", config.TableName)

	p.dynamoEndpoint = "http://elsewhere:8000"
	assert.Equal(t, "http://elsewhere:8000", p.dynamoConfig().Endpoint)
}

func TestAwaitDynamoWaitsForEndpoint(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(400), func(server *httptest.Server) {
		var out bytes.Buffer
		assert.NoError(t, awaitDynamo(context.Background(), dynamo.Config{Endpoint: server.URL}, time.Second, &out))
	})

	var url string
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		url = server.URL
	})
	var out bytes.Buffer
	err := awaitDynamo(context.Background(), dynamo.Config{Endpoint: url}, 150*time.Millisecond, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), url)
}

func TestRunTestsAgainstFakeService(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "tests.yaml")
	require.NoError(t, os.WriteFile(testFile, []byte(`
- {type: create, body: {email: {address: a@test.com}, password: x}, expectedCode: 201}
- {type: get, email: a@test.com, password: x}
- {type: get, name: wrong status, email: a@test.com, password: x, expectedCode: 418}
- {type: delete, email: a@test.com, password: x}
`), 0o600))

	fake := fakeservice.New("application", "secret")
	httphelpers.WithServer(fake.Handler(), func(app *httptest.Server) {
		httphelpers.WithServer(fake.AdminHandler(), func(admin *httptest.Server) {
			params = commandParams{endpoint: app.URL, adminEndpoint: admin.URL, auth: "application:secret"}
			runOptions = runParams{noBootstrap: true, metrics: true}

			err := runTests(context.Background(), testFile)
			assert.True(t, errors.Is(err, runner.ErrTestFailures))
			// the failed step left a user behind, which cleanup deleted
			assert.Equal(t, 0, fake.UserCount())
		})
	})
}

package framework

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
)

func TestAwaitServiceReturnsOnAnyStatus(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(503), func(server *httptest.Server) {
		var out bytes.Buffer
		assert.NoError(t, AwaitService(context.Background(), server.URL, time.Second, &out))
		assert.Contains(t, out.String(), "Service responded with status 503")
	})
}

func TestAwaitServiceTimesOut(t *testing.T) {
	var url string
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		url = server.URL
	})
	var out bytes.Buffer
	assert.Error(t, AwaitService(context.Background(), url, 150*time.Millisecond, &out))
}

func TestPrintResults(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("create", func(c *Context) {})
		c.Run("get", func(c *Context) { c.Fail(errors.New("expected status 200, got 404")) })
	})

	var out bytes.Buffer
	PrintResults(&out, results)
	assert.Contains(t, out.String(), "Ran 2 steps, 0 skipped")
	assert.Contains(t, out.String(), "FAILED STEPS (1):")
	assert.Contains(t, out.String(), "* get")
	assert.Contains(t, out.String(), "expected status 200, got 404")
}

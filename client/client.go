package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sanctionco/thunder-contract-tests/framework"
	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	DefaultEndpoint      = "http://localhost:8080"
	DefaultAdminEndpoint = "http://localhost:8081"
	DefaultApplication   = "application"
	DefaultSecret        = "secret"
)

// Config describes how to reach the service.
type Config struct {
	// Endpoint is the base URL of the application endpoint.
	Endpoint string
	// AdminEndpoint is the base URL of the admin endpoint that serves metrics and
	// healthchecks.
	AdminEndpoint string
	// Application and Secret are the basic authentication credentials.
	Application string
	Secret      string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

// ThunderClient makes one HTTP call per logical operation against the service. It never
// retries, and it does not treat error statuses as errors: only a transport failure, or
// a failure to build the request, produces a non-nil error.
type ThunderClient struct {
	endpoint      string
	adminEndpoint string
	application   string
	secret        string
	httpClient    *http.Client
	logger        framework.Logger
}

// NewThunderClient creates a client. Empty fields of config take their defaults.
func NewThunderClient(config Config, logger framework.Logger) *ThunderClient {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.AdminEndpoint == "" {
		config.AdminEndpoint = DefaultAdminEndpoint
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &ThunderClient{
		endpoint:      strings.TrimSuffix(config.Endpoint, "/"),
		adminEndpoint: strings.TrimSuffix(config.AdminEndpoint, "/"),
		application:   config.Application,
		secret:        config.Secret,
		httpClient:    &http.Client{Timeout: config.Timeout},
		logger:        logger,
	}
}

// WithLogger returns a client that shares this client's connection pool but writes its
// debug output to a different logger.
func (c *ThunderClient) WithLogger(logger framework.Logger) *ThunderClient {
	if logger == nil {
		logger = framework.NullLogger()
	}
	copied := *c
	copied.logger = logger
	return &copied
}

type request struct {
	method   string
	baseURL  string
	path     string
	query    url.Values
	password *string
	body     *ldvalue.Value
	auth     bool
	textOnly bool
}

func (c *ThunderClient) do(ctx context.Context, r request) (Response, error) {
	u := r.baseURL + r.path
	if len(r.query) != 0 {
		u += "?" + r.query.Encode()
	}

	var reqBody io.Reader
	if r.body != nil {
		data, err := json.Marshal(*r.body)
		if err != nil {
			return Response{}, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, reqBody)
	if err != nil {
		return Response{}, err
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth {
		req.SetBasicAuth(c.application, c.secret)
	}
	if r.password != nil {
		req.Header.Set(servicedef.PasswordHeader, *r.password)
	}

	c.logger.Printf("Sending %s %s", r.method, u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: error reading response body: %w", r.method, r.path, err)
	}

	var body Body
	if r.textOnly {
		body = TextBody(data)
	} else {
		body = ParseBody(data)
	}
	c.logger.Printf("Received status %d, body: %s", resp.StatusCode, body)
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func emailQuery(email string) url.Values {
	return url.Values{servicedef.EmailQueryParam: []string{email}}
}

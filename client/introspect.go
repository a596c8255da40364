package client

import (
	"context"
	"net/http"

	"github.com/sanctionco/thunder-contract-tests/servicedef"
)

// GetOpenAPI fetches the generated API document. The YAML form is returned as text.
func (c *ThunderClient) GetOpenAPI(ctx context.Context, format servicedef.DocumentFormat) (Response, error) {
	if format == "" {
		format = servicedef.DocumentFormatJSON
	}
	return c.do(ctx, request{
		method:   http.MethodGet,
		baseURL:  c.endpoint,
		path:     servicedef.OpenAPIPathPrefix + string(format),
		textOnly: format != servicedef.DocumentFormatJSON,
	})
}

func (c *ThunderClient) GetSwaggerUI(ctx context.Context) (Response, error) {
	return c.do(ctx, request{
		method:   http.MethodGet,
		baseURL:  c.endpoint,
		path:     servicedef.SwaggerPath,
		textOnly: true,
	})
}

// GetMetrics reads the metrics registry from the admin endpoint.
func (c *ThunderClient) GetMetrics(ctx context.Context) (Response, error) {
	return c.do(ctx, request{
		method:  http.MethodGet,
		baseURL: c.adminEndpoint,
		path:    servicedef.MetricsPath,
	})
}

// GetHealthcheck reads the health indicators from the admin endpoint. An unhealthy
// service answers 500 with the same document.
func (c *ThunderClient) GetHealthcheck(ctx context.Context) (Response, error) {
	return c.do(ctx, request{
		method:  http.MethodGet,
		baseURL: c.adminEndpoint,
		path:    servicedef.HealthcheckPath,
	})
}

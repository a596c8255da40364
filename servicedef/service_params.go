// Package servicedef describes the HTTP surface of the Thunder user-management service
// that the contract tests talk to.
package servicedef

// Resource paths on the main application endpoint.
const (
	UsersPath             = "/users"
	VerifyPath            = "/verify"
	ResetVerificationPath = "/verify/reset"
	SwaggerPath           = "/swagger"
	OpenAPIPathPrefix     = "/openapi."
)

// Resource paths on the admin endpoint.
const (
	MetricsPath     = "/metrics"
	HealthcheckPath = "/healthcheck"
)

// Request parameter names.
const (
	PasswordHeader         = "password"
	EmailQueryParam        = "email"
	TokenQueryParam        = "token"
	ResponseTypeQueryParam = "response_type"
)

// ResponseType selects the representation returned by the verify endpoint.
type ResponseType string

const (
	ResponseTypeJSON ResponseType = "json"
	ResponseTypeHTML ResponseType = "html"
)

// IsHTML reports whether the HTML success page was requested.
func (r ResponseType) IsHTML() bool {
	return r == ResponseTypeHTML
}

// DocumentFormat selects which OpenAPI document to fetch.
type DocumentFormat string

const (
	DocumentFormatJSON DocumentFormat = "json"
	DocumentFormatYAML DocumentFormat = "yaml"
)

// Field names of the user resource that the test harness needs to look at.
const (
	EmailField             = "email"
	AddressField           = "address"
	VerificationTokenField = "verificationToken"
	VerifiedField          = "verified"
	PasswordField          = "password"
	CreationTimeField      = "creationTime"
	LastUpdateTimeField    = "lastUpdateTime"
)

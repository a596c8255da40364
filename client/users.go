package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// CreateUser posts a new user. The service answers 201 on success.
func (c *ThunderClient) CreateUser(ctx context.Context, user ldvalue.Value) (Response, error) {
	return c.do(ctx, request{
		method:  http.MethodPost,
		baseURL: c.endpoint,
		path:    servicedef.UsersPath,
		body:    &user,
		auth:    true,
	})
}

func (c *ThunderClient) GetUser(ctx context.Context, email, password string) (Response, error) {
	return c.do(ctx, request{
		method:   http.MethodGet,
		baseURL:  c.endpoint,
		path:     servicedef.UsersPath,
		query:    emailQuery(email),
		password: &password,
		auth:     true,
	})
}

// UpdateUser replaces a user. When existingEmail is empty the email query parameter is
// omitted and the service identifies the user by the address in the body; otherwise the
// update may rename the user from existingEmail to the body's address.
func (c *ThunderClient) UpdateUser(ctx context.Context, existingEmail, password string, user ldvalue.Value) (Response, error) {
	var query url.Values
	if existingEmail != "" {
		query = emailQuery(existingEmail)
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		baseURL:  c.endpoint,
		path:     servicedef.UsersPath,
		query:    query,
		password: &password,
		body:     &user,
		auth:     true,
	})
}

func (c *ThunderClient) DeleteUser(ctx context.Context, email, password string) (Response, error) {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		baseURL:  c.endpoint,
		path:     servicedef.UsersPath,
		query:    emailQuery(email),
		password: &password,
		auth:     true,
	})
}

// SendVerificationEmail asks the service to generate a verification token and mail it.
func (c *ThunderClient) SendVerificationEmail(ctx context.Context, email, password string) (Response, error) {
	return c.do(ctx, request{
		method:   http.MethodPost,
		baseURL:  c.endpoint,
		path:     servicedef.VerifyPath,
		query:    emailQuery(email),
		password: &password,
		auth:     true,
	})
}

// VerifyUser follows the link from a verification email. The endpoint is public, so no
// credentials are sent. With ResponseTypeHTML the service answers with a web page, which
// is always returned as text.
func (c *ThunderClient) VerifyUser(ctx context.Context, email, token string, responseType servicedef.ResponseType) (Response, error) {
	query := emailQuery(email)
	query.Set(servicedef.TokenQueryParam, token)
	if responseType.IsHTML() {
		query.Set(servicedef.ResponseTypeQueryParam, string(servicedef.ResponseTypeHTML))
	}
	return c.do(ctx, request{
		method:   http.MethodGet,
		baseURL:  c.endpoint,
		path:     servicedef.VerifyPath,
		query:    query,
		textOnly: responseType.IsHTML(),
	})
}

func (c *ThunderClient) ResetVerificationStatus(ctx context.Context, email, password string) (Response, error) {
	return c.do(ctx, request{
		method:   http.MethodPost,
		baseURL:  c.endpoint,
		path:     servicedef.ResetVerificationPath,
		query:    emailQuery(email),
		password: &password,
		auth:     true,
	})
}

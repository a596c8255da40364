// Package fakeservice is an in-memory stand-in for the Thunder service. It implements
// enough of the user, verification, documentation and admin endpoints to exercise the
// harness end to end without a real deployment.
package fakeservice

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"github.com/go-chi/chi/v5"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Metric names reported by the admin endpoint.
const (
	MeterDeleteRequests            = "com.sanctionco.thunder.resources.UserResource.delete-requests"
	MeterGetRequests               = "com.sanctionco.thunder.resources.UserResource.get-requests"
	MeterCreateRequests            = "com.sanctionco.thunder.resources.UserResource.post-requests"
	MeterUpdateRequests            = "com.sanctionco.thunder.resources.UserResource.update-requests"
	MeterResetVerificationRequests = "com.sanctionco.thunder.resources.VerificationResource.reset-verification-requests"
	MeterSendEmailRequests         = "com.sanctionco.thunder.resources.VerificationResource.send-email-requests"
	MeterVerifyEmailRequests       = "com.sanctionco.thunder.resources.VerificationResource.verify-email-requests"
	MeterSwaggerUIRequests         = "com.sanctionco.thunder.openapi.SwaggerResource.swagger-ui-requests"
	CounterEmailSendSuccess        = "com.sanctionco.thunder.email.EmailService.email-send-success"
)

// Health indicator names reported by the admin endpoint.
var HealthIndicators = []string{"Database", "Email", "deadlocks"}

const (
	apiTitle       = "Thunder API"
	apiDescription = "A fully customizable user management REST API"
	successPage    = "<!DOCTYPE html><html><body><h1>Success!</h1><p>Your account has been verified.</p></body></html>"
)

// Service holds the state of one fake deployment.
type Service struct {
	application string
	secret      string
	users       *userStore
	meters      map[string]int
	counters    map[string]int
	metricsLock sync.Mutex
}

func New(application, secret string) *Service {
	return &Service{
		application: application,
		secret:      secret,
		users:       newUserStore(),
		meters:      make(map[string]int),
		counters:    make(map[string]int),
	}
}

// UserCount returns the number of users currently stored.
func (s *Service) UserCount() int {
	return s.users.count()
}

// Handler returns the application endpoint.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Post(servicedef.UsersPath, s.metered(MeterCreateRequests, s.createUser))
		r.Get(servicedef.UsersPath, s.metered(MeterGetRequests, s.getUser))
		r.Put(servicedef.UsersPath, s.metered(MeterUpdateRequests, s.updateUser))
		r.Delete(servicedef.UsersPath, s.metered(MeterDeleteRequests, s.deleteUser))
		r.Post(servicedef.VerifyPath, s.metered(MeterSendEmailRequests, s.sendEmail))
		r.Post(servicedef.ResetVerificationPath, s.metered(MeterResetVerificationRequests, s.resetVerification))
	})
	r.Get(servicedef.VerifyPath, s.metered(MeterVerifyEmailRequests, s.verifyEmail))
	r.Get(servicedef.OpenAPIPathPrefix+"json", s.openAPIJSON)
	r.Get(servicedef.OpenAPIPathPrefix+"yaml", s.openAPIYAML)
	r.Get(servicedef.SwaggerPath, s.metered(MeterSwaggerUIRequests, s.swaggerUI))
	return r
}

// AdminHandler returns the admin endpoint.
func (s *Service) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Get(servicedef.MetricsPath, s.metrics)
	r.Get(servicedef.HealthcheckPath, s.healthcheck)
	return r
}

func (s *Service) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app, secret, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(app), []byte(s.application)) != 1 ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="application"`)
			writeText(w, http.StatusUnauthorized, "Credentials are required to access this resource.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) metered(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metricsLock.Lock()
		s.meters[name]++
		s.metricsLock.Unlock()
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(v.JSONString()))
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func writeStoreError(w http.ResponseWriter, err error, email string) {
	switch err {
	case errNotFound:
		writeText(w, http.StatusNotFound, fmt.Sprintf("User not found in the database. (User: %s)", email))
	case errConflict:
		writeText(w, http.StatusConflict, fmt.Sprintf("A user with the same email address already exists. (User: %s)", email))
	default:
		writeText(w, http.StatusServiceUnavailable, err.Error())
	}
}

func readUser(r *http.Request) (ldvalue.Value, bool) {
	var v ldvalue.Value
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil || v.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), false
	}
	if servicedef.UserFromValue(v).Address() == "" {
		return ldvalue.Null(), false
	}
	return v, true
}

// authenticate loads the user named by the email query parameter and checks the password
// header. It writes the error response itself and returns false on failure.
func (s *Service) authenticate(w http.ResponseWriter, r *http.Request, email string) (ldvalue.Value, bool) {
	if email == "" {
		writeText(w, http.StatusBadRequest, "Incorrect or missing email query parameter.")
		return ldvalue.Null(), false
	}
	password := r.Header.Get(servicedef.PasswordHeader)
	if password == "" {
		writeText(w, http.StatusBadRequest, "Credentials are required to access this resource.")
		return ldvalue.Null(), false
	}
	user, err := s.users.get(email)
	if err != nil {
		writeStoreError(w, err, email)
		return ldvalue.Null(), false
	}
	if servicedef.UserFromValue(user).Password() != password {
		writeText(w, http.StatusUnauthorized, fmt.Sprintf("Unable to validate user with provided credentials. (User: %s)", email))
		return ldvalue.Null(), false
	}
	return user, true
}

func (s *Service) createUser(w http.ResponseWriter, r *http.Request) {
	user, ok := readUser(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "Cannot post a user without an email address.")
		return
	}
	stored, err := s.users.insert(withEmail(user, false, ldvalue.Null()))
	if err != nil {
		writeStoreError(w, err, servicedef.UserFromValue(user).Address())
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Service) getUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r, r.URL.Query().Get(servicedef.EmailQueryParam))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Service) updateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := readUser(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "Cannot put a user without an email address.")
		return
	}
	existing := r.URL.Query().Get(servicedef.EmailQueryParam)
	if existing == "" {
		existing = servicedef.UserFromValue(user).Address()
	}
	old, ok := s.authenticate(w, r, existing)
	if !ok {
		return
	}

	oldUser := servicedef.UserFromValue(old)
	var updated ldvalue.Value
	if servicedef.UserFromValue(user).Address() == existing {
		// Keep the verification state unless the address changes.
		email := old.GetByKey(servicedef.EmailField)
		updated = withEmail(user, email.GetByKey(servicedef.VerifiedField).BoolValue(),
			email.GetByKey(servicedef.VerificationTokenField))
	} else {
		updated = withEmail(user, false, ldvalue.Null())
	}
	if servicedef.UserFromValue(updated).Password() == "" {
		updated = withFields(updated, map[string]ldvalue.Value{servicedef.PasswordField: ldvalue.String(oldUser.Password())})
	}

	stored, err := s.users.update(existing, updated)
	if err != nil {
		writeStoreError(w, err, servicedef.UserFromValue(user).Address())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) deleteUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(servicedef.EmailQueryParam)
	if _, ok := s.authenticate(w, r, email); !ok {
		return
	}
	deleted, err := s.users.delete(email)
	if err != nil {
		writeStoreError(w, err, email)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Service) sendEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(servicedef.EmailQueryParam)
	user, ok := s.authenticate(w, r, email)
	if !ok {
		return
	}
	stored, err := s.users.update(email, withEmail(user, false, ldvalue.String(newToken())))
	if err != nil {
		writeStoreError(w, err, email)
		return
	}
	s.metricsLock.Lock()
	s.counters[CounterEmailSendSuccess]++
	s.metricsLock.Unlock()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) verifyEmail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	email := query.Get(servicedef.EmailQueryParam)
	token := query.Get(servicedef.TokenQueryParam)
	if email == "" {
		writeText(w, http.StatusBadRequest, "Incorrect or missing email query parameter.")
		return
	}
	if token == "" {
		writeText(w, http.StatusBadRequest, "Incorrect or missing verification token query parameter.")
		return
	}
	user, err := s.users.get(email)
	if err != nil {
		writeStoreError(w, err, email)
		return
	}
	if servicedef.UserFromValue(user).VerificationToken() != token {
		writeText(w, http.StatusBadRequest, "Incorrect verification token.")
		return
	}
	stored, err := s.users.update(email, withEmail(user, true, ldvalue.String(token)))
	if err != nil {
		writeStoreError(w, err, email)
		return
	}
	if servicedef.ResponseType(query.Get(servicedef.ResponseTypeQueryParam)).IsHTML() {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(successPage))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) resetVerification(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(servicedef.EmailQueryParam)
	user, ok := s.authenticate(w, r, email)
	if !ok {
		return
	}
	stored, err := s.users.update(email, withEmail(user, false, ldvalue.Null()))
	if err != nil {
		writeStoreError(w, err, email)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) openAPIJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().
		Set("openapi", ldvalue.String("3.0.1")).
		Set("info", ldvalue.ObjectBuild().
			Set("title", ldvalue.String(apiTitle)).
			Set("description", ldvalue.String(apiDescription)).
			Build()).
		Set("paths", ldvalue.ObjectBuild().Build()).
		Build())
}

func (s *Service) openAPIYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "openapi: 3.0.1\ninfo:\n  title: %s\n  description: %s\npaths: {}\n", apiTitle, apiDescription)
}

func (s *Service) swaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Swagger UI</title></head><body></body></html>"))
}

func (s *Service) metrics(w http.ResponseWriter, r *http.Request) {
	s.metricsLock.Lock()
	defer s.metricsLock.Unlock()
	meters := ldvalue.ObjectBuild()
	for name, n := range s.meters {
		meters.Set(name, ldvalue.ObjectBuild().Set("count", ldvalue.Int(n)).Build())
	}
	counters := ldvalue.ObjectBuild()
	for name, n := range s.counters {
		counters.Set(name, ldvalue.ObjectBuild().Set("count", ldvalue.Int(n)).Build())
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().
		Set("version", ldvalue.String("4.0.0")).
		Set("meters", meters.Build()).
		Set("counters", counters.Build()).
		Build())
}

func (s *Service) healthcheck(w http.ResponseWriter, r *http.Request) {
	out := ldvalue.ObjectBuild()
	for _, name := range HealthIndicators {
		out.Set(name, ldvalue.ObjectBuild().Set("healthy", ldvalue.Bool(true)).Build())
	}
	writeJSON(w, http.StatusOK, out.Build())
}

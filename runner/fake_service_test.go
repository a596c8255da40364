package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type recordedCall struct {
	op       string
	email    string
	password string
	token    string
	body     ldvalue.Value
}

// scriptedService answers each call with the next canned response for that operation.
type scriptedService struct {
	responses map[string][]client.Response
	failOn    map[string]error
	calls     []recordedCall
	lock      sync.Mutex
}

func newScriptedService() *scriptedService {
	return &scriptedService{
		responses: make(map[string][]client.Response),
		failOn:    make(map[string]error),
	}
}

func (s *scriptedService) respond(op string, resp client.Response) *scriptedService {
	s.responses[op] = append(s.responses[op], resp)
	return s
}

func (s *scriptedService) callsTo(op string) []recordedCall {
	s.lock.Lock()
	defer s.lock.Unlock()
	var ret []recordedCall
	for _, c := range s.calls {
		if c.op == op {
			ret = append(ret, c)
		}
	}
	return ret
}

func (s *scriptedService) handle(call recordedCall) (client.Response, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = append(s.calls, call)
	if err, ok := s.failOn[call.op+":"+call.email]; ok {
		return client.Response{}, err
	}
	queue := s.responses[call.op]
	if len(queue) == 0 {
		return client.Response{}, errors.New("no response scripted for " + call.op)
	}
	s.responses[call.op] = queue[1:]
	return queue[0], nil
}

func (s *scriptedService) CreateUser(ctx context.Context, user ldvalue.Value) (client.Response, error) {
	return s.handle(recordedCall{op: "create", body: user})
}

func (s *scriptedService) GetUser(ctx context.Context, email, password string) (client.Response, error) {
	return s.handle(recordedCall{op: "get", email: email, password: password})
}

func (s *scriptedService) UpdateUser(ctx context.Context, existingEmail, password string, user ldvalue.Value) (client.Response, error) {
	return s.handle(recordedCall{op: "update", email: existingEmail, password: password, body: user})
}

func (s *scriptedService) DeleteUser(ctx context.Context, email, password string) (client.Response, error) {
	return s.handle(recordedCall{op: "delete", email: email, password: password})
}

func (s *scriptedService) SendVerificationEmail(ctx context.Context, email, password string) (client.Response, error) {
	return s.handle(recordedCall{op: "sendEmail", email: email, password: password})
}

func (s *scriptedService) VerifyUser(ctx context.Context, email, token string, responseType servicedef.ResponseType) (client.Response, error) {
	return s.handle(recordedCall{op: "verify", email: email, token: token})
}

func (s *scriptedService) ResetVerificationStatus(ctx context.Context, email, password string) (client.Response, error) {
	return s.handle(recordedCall{op: "reset", email: email, password: password})
}

func (s *scriptedService) GetOpenAPI(ctx context.Context, format servicedef.DocumentFormat) (client.Response, error) {
	return s.handle(recordedCall{op: "openapi"})
}

func (s *scriptedService) GetSwaggerUI(ctx context.Context) (client.Response, error) {
	return s.handle(recordedCall{op: "swagger"})
}

func (s *scriptedService) GetMetrics(ctx context.Context) (client.Response, error) {
	return s.handle(recordedCall{op: "metrics"})
}

func (s *scriptedService) GetHealthcheck(ctx context.Context) (client.Response, error) {
	return s.handle(recordedCall{op: "health"})
}

func userValue(address, password, token string) ldvalue.Value {
	tokenValue := ldvalue.Null()
	if token != "" {
		tokenValue = ldvalue.String(token)
	}
	return ldvalue.ObjectBuild().
		Set("email", ldvalue.ObjectBuild().
			Set("address", ldvalue.String(address)).
			Set("verified", ldvalue.Bool(false)).
			Set("verificationToken", tokenValue).
			Build()).
		Set("password", ldvalue.String(password)).
		Build()
}

func userResponse(status int, address, password, token string) client.Response {
	return client.Response{StatusCode: status, Body: client.StructuredBody(userValue(address, password, token))}
}

func textResponse(status int, text string) client.Response {
	return client.Response{StatusCode: status, Body: client.TextBody([]byte(text))}
}

// lockedLogger is a concurrency-safe Printf sink for run-level messages.
type lockedLogger struct {
	lines []string
	lock  sync.Mutex
}

func (l *lockedLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.lines = append(l.lines, fmt.Sprintf(message, args...))
	l.lock.Unlock()
}

func (l *lockedLogger) Lines() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.lines...)
}

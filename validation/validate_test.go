package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func parse(t *testing.T, s string) ldvalue.Value {
	var v ldvalue.Value
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func structured(status int, v ldvalue.Value) client.Response {
	return client.Response{StatusCode: status, Body: client.StructuredBody(v)}
}

func TestCreatedUserMatchesTemplateWithSentinels(t *testing.T) {
	actual := parse(t, `{"email":{"address":"a@test.com","verified":false,"verificationToken":"8b1d4f"},
		"password":"$2a$10$abcdef","creationTime":1598300000,"lastUpdateTime":1598300000}`)
	expected := parse(t, `{"email":{"address":"a@test.com","verified":false,"verificationToken":"GENERATED"},
		"password":"HASHED","creationTime":"TIME","lastUpdateTime":"TIME"}`)

	var logger framework.CapturingLogger
	err := Validate("create", structured(201, actual), Expectation{Status: 201, Body: expected}, &logger)
	assert.NoError(t, err)
	assert.NotEmpty(t, logger.Output().Messages())
}

func TestStatusMismatchFailsRegardlessOfBody(t *testing.T) {
	body := parse(t, `{"a":1}`)
	err := Validate("get", structured(200, body), Expectation{Status: 401, Body: body}, nil)

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 401, mismatch.ExpectedStatus)
	assert.Equal(t, 200, mismatch.ActualStatus)
	assert.Contains(t, err.Error(), "get")
}

func TestExpectedStatusWithPlainTextBody(t *testing.T) {
	resp := client.Response{StatusCode: 401, Body: client.ParseBody([]byte("Unable to validate user with provided credentials."))}
	err := Validate("get with wrong password", resp,
		Expectation{Status: 401, Body: ldvalue.String("Unable to validate user with provided credentials.")}, nil)
	assert.NoError(t, err)
}

func TestBodyMismatchIncludesDiff(t *testing.T) {
	var logger framework.CapturingLogger
	err := Validate("update", structured(200, parse(t, `{"name":"b"}`)),
		Expectation{Status: 200, Body: parse(t, `{"name":"a"}`)}, &logger)

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.NotEmpty(t, mismatch.Diff)
	assert.Contains(t, logger.Output().Messages(), "Status Code: 200, Expected: 200")
}

func TestSentinelWithMissingPathFails(t *testing.T) {
	err := Validate("create", structured(201, parse(t, `{"email":{"address":"a@test.com"}}`)),
		Expectation{Status: 201, Body: parse(t, `{"email":{"address":"a@test.com","verificationToken":"GENERATED"}}`)}, nil)
	assert.Error(t, err)
}

func TestStatusOnlyWhenNoBodyExpected(t *testing.T) {
	page := client.Response{StatusCode: 200, Body: client.TextBody([]byte("<html>ok</html>"))}
	assert.NoError(t, Validate("verify html", page, Expectation{Status: 200}, nil))
}

func TestDocumentTitleAndDescriptionSubset(t *testing.T) {
	doc := parse(t, `{"openapi":"3.0.1","info":{"title":"Thunder API","description":"A fully customizable user management REST API","version":"3.1.0"},"paths":{}}`)

	assert.NoError(t, Validate("openapi", structured(200, doc), Expectation{Status: 200, Document: true,
		Body: parse(t, `{"info":{"title":"Thunder API","description":"A fully customizable user management REST API"}}`)}, nil))

	assert.Error(t, Validate("openapi", structured(200, doc), Expectation{Status: 200, Document: true,
		Body: parse(t, `{"info":{"title":"Other API","description":"A fully customizable user management REST API"}}`)}, nil))
}

func TestTitleAndDescriptionAloneDoNotMatchUser(t *testing.T) {
	actual := parse(t, `{"title":"t","description":"d","email":{"address":"a@test.com"},"password":"WRONG"}`)
	expected := parse(t, `{"title":"t","description":"d","email":{"address":"b@test.com"},"password":"x"}`)

	err := Validate("get user", structured(200, actual), Expectation{Status: 200, Body: expected}, nil)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.NotEmpty(t, mismatch.Diff)
}

func TestResolveTemplate(t *testing.T) {
	actual := parse(t, `{"a":"x","b":[1,{"c":"y"}],"d":5}`)
	expected := parse(t, `{"a":"GENERATED","b":[1,{"c":"TIME"}],"d":5,"e":"HASHED"}`)

	resolved := ResolveTemplate(expected, actual)
	assert.True(t, resolved.Equal(parse(t, `{"a":"x","b":[1,{"c":"y"}],"d":5,"e":"HASHED"}`)), resolved.JSONString())

	// resolving again changes nothing
	assert.True(t, ResolveTemplate(resolved, actual).Equal(resolved))
}

func TestStructuralEqual(t *testing.T) {
	assert.True(t, StructuralEqual(parse(t, `{"a":1,"b":2}`), parse(t, `{"b":2,"a":1.0}`)))
	assert.False(t, StructuralEqual(parse(t, `[1,2]`), parse(t, `[2,1]`)))
	assert.False(t, StructuralEqual(parse(t, `{"a":1}`), parse(t, `{"a":1,"b":2}`)))
}

func TestCheckMetrics(t *testing.T) {
	doc := parse(t, `{"meters":{"post-requests":{"count":1,"m1_rate":0.1}},"counters":{"email-send-success":{"count":2}}}`)
	expected := MetricsExpectation{
		Status:   200,
		Meters:   map[string]int{"post-requests": 1},
		Counters: map[string]int{"email-send-success": 2},
	}
	assert.NoError(t, CheckMetrics("metrics", structured(200, doc), expected, nil))

	expected.Meters["delete-requests"] = 1
	expected.Counters["email-send-success"] = 3
	err := CheckMetrics("metrics", structured(200, doc), expected, nil)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Len(t, mismatch.Problems, 2)
}

func TestCheckHealth(t *testing.T) {
	doc := parse(t, `{"Database":{"healthy":true},"Email":{"healthy":true},"deadlocks":{"healthy":false}}`)
	assert.NoError(t, CheckHealth("health", structured(200, doc), []string{"Database", "Email"}, nil))
	assert.Error(t, CheckHealth("health", structured(200, doc), []string{"Database", "deadlocks"}, nil))
	assert.Error(t, CheckHealth("health", structured(200, doc), []string{"Missing"}, nil))
	assert.Error(t, CheckHealth("health", structured(500, doc), nil, nil))
}

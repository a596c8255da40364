package client

import (
	"encoding/json"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// BodyKind says how a response body was interpreted.
type BodyKind int

const (
	// BodyEmpty means the response had no content.
	BodyEmpty BodyKind = iota
	// BodyStructured means the content was valid JSON and is held in Body.Value.
	BodyStructured
	// BodyText means the content was not JSON (plain-text errors, HTML pages) and is held
	// in Body.Text.
	BodyText
)

func (k BodyKind) String() string {
	switch k {
	case BodyEmpty:
		return "empty"
	case BodyStructured:
		return "structured"
	case BodyText:
		return "text"
	default:
		return fmt.Sprintf("BodyKind(%d)", int(k))
	}
}

// Body is the content of a response. Exactly one of Value or Text is meaningful,
// depending on Kind.
type Body struct {
	Kind  BodyKind
	Value ldvalue.Value
	Text  string
}

// ParseBody interprets raw response content. JSON is parsed opportunistically; anything
// that does not parse is kept verbatim as text.
func ParseBody(data []byte) Body {
	if len(data) == 0 {
		return Body{Kind: BodyEmpty}
	}
	var v ldvalue.Value
	if err := json.Unmarshal(data, &v); err == nil {
		return Body{Kind: BodyStructured, Value: v}
	}
	return Body{Kind: BodyText, Text: string(data)}
}

// TextBody returns a body that is always treated as text, regardless of whether it
// happens to be valid JSON.
func TextBody(data []byte) Body {
	if len(data) == 0 {
		return Body{Kind: BodyEmpty}
	}
	return Body{Kind: BodyText, Text: string(data)}
}

// StructuredBody wraps an already-parsed value.
func StructuredBody(v ldvalue.Value) Body {
	return Body{Kind: BodyStructured, Value: v}
}

// String returns the body in a form suitable for log output.
func (b Body) String() string {
	switch b.Kind {
	case BodyStructured:
		return b.Value.JSONString()
	case BodyText:
		return b.Text
	default:
		return ""
	}
}

// AsValue returns the body as a structured value. Text becomes a JSON string and an
// empty body becomes null.
func (b Body) AsValue() ldvalue.Value {
	switch b.Kind {
	case BodyStructured:
		return b.Value
	case BodyText:
		return ldvalue.String(b.Text)
	default:
		return ldvalue.Null()
	}
}

// Response is the canonical result of every client operation. A non-2xx status is not
// an error; it is reported here for the caller to judge.
type Response struct {
	StatusCode int
	Body       Body
}

func (r Response) String() string {
	return fmt.Sprintf("%d %s", r.StatusCode, r.Body)
}

package testcases

import "net/http"

// Kind is the operation a step performs.
type Kind string

const (
	KindCreate            Kind = "create"
	KindGet               Kind = "get"
	KindUpdate            Kind = "update"
	KindDelete            Kind = "delete"
	KindSendEmail         Kind = "sendEmail"
	KindVerify            Kind = "verify"
	KindResetVerification Kind = "resetVerification"
	KindIntrospectMetrics Kind = "introspectMetrics"
	KindIntrospectHealth  Kind = "introspectHealth"
	KindOpenAPI           Kind = "openapi"
	KindSwagger           Kind = "swagger"

	// KindUnknown is used for any type string that is not recognized. The raw string is
	// kept in TestCase.RawKind.
	KindUnknown Kind = ""
)

var kindsByName = map[string]Kind{
	"create":            KindCreate,
	"get":               KindGet,
	"update":            KindUpdate,
	"delete":            KindDelete,
	"sendEmail":         KindSendEmail,
	"email":             KindSendEmail,
	"verify":            KindVerify,
	"resetVerification": KindResetVerification,
	"reset":             KindResetVerification,
	"introspectMetrics": KindIntrospectMetrics,
	"metrics":           KindIntrospectMetrics,
	"introspectHealth":  KindIntrospectHealth,
	"health":            KindIntrospectHealth,
	"healthcheck":       KindIntrospectHealth,
	"openapi":           KindOpenAPI,
	"swagger":           KindSwagger,
}

// ParseKind maps a type string, including the older short aliases, to a Kind. It returns
// KindUnknown for anything it does not recognize.
func ParseKind(s string) Kind {
	return kindsByName[s]
}

// IsUserResource reports whether steps of this kind read or change a user record, and
// so take part in resource tracking.
func (k Kind) IsUserResource() bool {
	switch k {
	case KindCreate, KindGet, KindUpdate, KindDelete, KindSendEmail, KindVerify, KindResetVerification:
		return true
	}
	return false
}

// SuccessStatus is the status the service returns when an operation of this kind
// succeeds.
func (k Kind) SuccessStatus() int {
	if k == KindCreate {
		return http.StatusCreated
	}
	return http.StatusOK
}

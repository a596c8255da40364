package servicedef

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

// User is a read-only view of a user resource as returned by the service. The service
// allows arbitrary extra properties, so the harness keeps the whole JSON object and
// only pulls out the fields it needs.
type User struct {
	value ldvalue.Value
}

// UserFromValue wraps a parsed JSON object. Any other kind of value yields a User whose
// accessors all return empty strings.
func UserFromValue(v ldvalue.Value) User {
	return User{value: v}
}

func (u User) Value() ldvalue.Value { return u.value }

// IsObject reports whether the underlying value is a JSON object.
func (u User) IsObject() bool { return u.value.Type() == ldvalue.ObjectType }

func (u User) Address() string {
	return u.value.GetByKey(EmailField).GetByKey(AddressField).StringValue()
}

func (u User) VerificationToken() string {
	return u.value.GetByKey(EmailField).GetByKey(VerificationTokenField).StringValue()
}

func (u User) Password() string {
	return u.value.GetByKey(PasswordField).StringValue()
}

// WithVerificationToken returns a copy of the user with email.verificationToken replaced.
func (u User) WithVerificationToken(token string) User {
	email := u.value.GetByKey(EmailField)
	newEmail := ldvalue.ObjectBuild()
	for _, k := range email.Keys() {
		if k != VerificationTokenField {
			newEmail.Set(k, email.GetByKey(k))
		}
	}
	newEmail.Set(VerificationTokenField, ldvalue.String(token))

	out := ldvalue.ObjectBuild()
	for _, k := range u.value.Keys() {
		if k != EmailField {
			out.Set(k, u.value.GetByKey(k))
		}
	}
	out.Set(EmailField, newEmail.Build())
	return User{value: out.Build()}
}

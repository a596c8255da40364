package fakeservice

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

var (
	errNotFound = errors.New("user not found")
	errConflict = errors.New("user already exists")
)

// userStore keeps users in memory, keyed by email address.
type userStore struct {
	users map[string]ldvalue.Value
	mu    sync.Mutex
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]ldvalue.Value)}
}

func (s *userStore) get(email string) (ldvalue.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return ldvalue.Null(), errNotFound
	}
	return u, nil
}

func (s *userStore) insert(user ldvalue.Value) (ldvalue.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := servicedef.UserFromValue(user).Address()
	if _, ok := s.users[email]; ok {
		return ldvalue.Null(), errConflict
	}
	now := nowMillis()
	stored := withFields(user, map[string]ldvalue.Value{
		servicedef.CreationTimeField:   ldvalue.Int(now),
		servicedef.LastUpdateTimeField: ldvalue.Int(now),
	})
	s.users[email] = stored
	return stored, nil
}

// update replaces the user stored under existing with user, which may have a different
// address.
func (s *userStore) update(existing string, user ldvalue.Value) (ldvalue.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[existing]
	if !ok {
		return ldvalue.Null(), errNotFound
	}
	email := servicedef.UserFromValue(user).Address()
	if email != existing {
		if _, taken := s.users[email]; taken {
			return ldvalue.Null(), errConflict
		}
	}
	stored := withFields(user, map[string]ldvalue.Value{
		servicedef.CreationTimeField:   old.GetByKey(servicedef.CreationTimeField),
		servicedef.LastUpdateTimeField: ldvalue.Int(nowMillis()),
	})
	delete(s.users, existing)
	s.users[email] = stored
	return stored, nil
}

func (s *userStore) delete(email string) (ldvalue.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return ldvalue.Null(), errNotFound
	}
	delete(s.users, email)
	return u, nil
}

func (s *userStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func nowMillis() int {
	return int(time.Now().UnixNano() / int64(time.Millisecond))
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// withFields returns a copy of obj with the given top-level fields set.
func withFields(obj ldvalue.Value, fields map[string]ldvalue.Value) ldvalue.Value {
	out := ldvalue.ObjectBuild()
	for _, k := range obj.Keys() {
		if _, replaced := fields[k]; !replaced {
			out.Set(k, obj.GetByKey(k))
		}
	}
	for k, v := range fields {
		out.Set(k, v)
	}
	return out.Build()
}

// withEmail returns a copy of user whose email object has the given verification state.
func withEmail(user ldvalue.Value, verified bool, token ldvalue.Value) ldvalue.Value {
	address := servicedef.UserFromValue(user).Address()
	return withFields(user, map[string]ldvalue.Value{
		servicedef.EmailField: ldvalue.ObjectBuild().
			Set(servicedef.AddressField, ldvalue.String(address)).
			Set(servicedef.VerifiedField, ldvalue.Bool(verified)).
			Set(servicedef.VerificationTokenField, token).
			Build(),
	})
}

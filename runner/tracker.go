package runner

import (
	"sort"

	"github.com/sanctionco/thunder-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// TrackedResource is what the runner believes about a user that currently exists in the
// service.
type TrackedResource struct {
	// Email is the user's current address, which is also the tracking key.
	Email string
	// Body is the last full user object the service returned.
	Body ldvalue.Value
	// Password is the credential last known to authenticate the user.
	Password string
}

// VerificationToken returns the token from the last known body.
func (r TrackedResource) VerificationToken() string {
	return servicedef.UserFromValue(r.Body).VerificationToken()
}

// Tracker records the users created during a run so that generated values can be carried
// forward and leftovers can be deleted. It is mutated only between steps and is not safe
// for concurrent modification.
type Tracker struct {
	resources map[string]TrackedResource
}

func NewTracker() *Tracker {
	return &Tracker{resources: make(map[string]TrackedResource)}
}

func (t *Tracker) Get(email string) (TrackedResource, bool) {
	r, ok := t.resources[email]
	return r, ok
}

func (t *Tracker) Put(r TrackedResource) {
	t.resources[r.Email] = r
}

func (t *Tracker) Remove(email string) {
	delete(t.resources, email)
}

// Rename replaces the entry for oldEmail with r in a single operation.
func (t *Tracker) Rename(oldEmail string, r TrackedResource) {
	delete(t.resources, oldEmail)
	t.resources[r.Email] = r
}

func (t *Tracker) Len() int {
	return len(t.resources)
}

// Resources returns every tracked resource, sorted by email.
func (t *Tracker) Resources() []TrackedResource {
	ret := make([]TrackedResource, 0, len(t.resources))
	for _, r := range t.resources {
		ret = append(ret, r)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Email < ret[j].Email })
	return ret
}

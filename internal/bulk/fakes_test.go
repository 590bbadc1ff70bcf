package bulk

import (
	"context"
	"fmt"

	"github.com/spec-kit/roster-service/internal/membership"
	"github.com/spec-kit/roster-service/internal/persistence"
)

// memStore is an in-memory persistence.Store for tests.
type memStore struct {
	data    map[string][]byte
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return nil, persistence.ErrKeyNotFound
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	if s.failSet {
		return fmt.Errorf("store unavailable")
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

// fakeScheduler records schedule requests without running them; tests drive
// ProcessBatch directly.
type fakeScheduler struct {
	scheduled []string
	refuse    bool
}

func (f *fakeScheduler) ScheduleAfter(_ int, jobID string) bool {
	if f.refuse {
		return false
	}
	f.scheduled = append(f.scheduled, jobID)
	return true
}

// stubClient is a minimal membership.Client for engine tests. Everything
// succeeds; lookups miss unless seeded.
type stubClient struct {
	personsByEmail map[string]*membership.Person
	seatsByEmail   map[string]*membership.PersonMembership
	groupRecords   map[string]*membership.GroupMembership
	activeByPerson map[string][]membership.PersonMembership
	seq            int
}

func newStubClient() *stubClient {
	return &stubClient{
		personsByEmail: map[string]*membership.Person{},
		seatsByEmail:   map[string]*membership.PersonMembership{},
		groupRecords:   map[string]*membership.GroupMembership{},
		activeByPerson: map[string][]membership.PersonMembership{},
	}
}

func (s *stubClient) FindPersonByEmail(_ context.Context, email string) (*membership.Person, error) {
	if p, ok := s.personsByEmail[email]; ok {
		return p, nil
	}
	return nil, membership.ErrNotFound
}

func (s *stubClient) CreatePerson(_ context.Context, input membership.PersonInput) (*membership.Person, error) {
	s.seq++
	p := &membership.Person{
		UUID:      fmt.Sprintf("person-%d", s.seq),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	}
	s.personsByEmail[input.Email] = p
	return p, nil
}

func (s *stubClient) UpdatePerson(_ context.Context, _ string, _ membership.PersonInput) error {
	return nil
}

func (s *stubClient) GetOrganization(_ context.Context, orgUUID string) (*membership.Organization, error) {
	return &membership.Organization{UUID: orgUUID, Name: "Acme"}, nil
}

func (s *stubClient) ListOrganizationMembers(_ context.Context, _ string) ([]membership.Person, error) {
	return nil, nil
}

func (s *stubClient) FindRelationship(_ context.Context, _, _ string) (*membership.Relationship, error) {
	return nil, membership.ErrNotFound
}

func (s *stubClient) CreateRelationship(_ context.Context, input membership.RelationshipInput) (*membership.Relationship, error) {
	return &membership.Relationship{ID: "rel-1", PersonUUID: input.PersonUUID, OrgUUID: input.OrgUUID, Type: input.Type, Active: true}, nil
}

func (s *stubClient) FindMembershipByOrg(_ context.Context, orgUUID string) (*membership.Membership, error) {
	return &membership.Membership{UUID: "m-1", OrgUUID: orgUUID}, nil
}

func (s *stubClient) GetMembership(_ context.Context, membershipUUID string) (*membership.Membership, error) {
	return &membership.Membership{UUID: membershipUUID, OrgUUID: "org-1"}, nil
}

func (s *stubClient) AssignSeat(_ context.Context, _, _ string) error { return nil }

func (s *stubClient) FindSeatAssignment(_ context.Context, _, email string) (*membership.PersonMembership, error) {
	if pm, ok := s.seatsByEmail[email]; ok {
		return pm, nil
	}
	return nil, membership.ErrNotFound
}

func (s *stubClient) ListPersonMemberships(_ context.Context, personUUID, _ string) ([]membership.PersonMembership, error) {
	return s.activeByPerson[personUUID], nil
}

func (s *stubClient) GetPersonMembership(_ context.Context, _ string) (*membership.PersonMembership, error) {
	return nil, membership.ErrNotFound
}

func (s *stubClient) EndDatePersonMembership(_ context.Context, _ string) error { return nil }

func (s *stubClient) ListRoles(_ context.Context, _, _ string) ([]string, error) { return nil, nil }

func (s *stubClient) AssignRole(_ context.Context, _, _, _ string) error { return nil }

func (s *stubClient) RemoveRole(_ context.Context, _, _, _ string) error { return nil }

func (s *stubClient) GetGroup(_ context.Context, groupUUID string) (*membership.Group, error) {
	return &membership.Group{UUID: groupUUID, OrgUUID: "org-1", Name: "Varsity"}, nil
}

func (s *stubClient) CanManageGroup(_ context.Context, _ string) (bool, error) { return true, nil }

func (s *stubClient) FindGroupMembership(_ context.Context, groupUUID, personUUID string) (*membership.GroupMembership, error) {
	if gm, ok := s.groupRecords[groupUUID+"|"+personUUID]; ok {
		return gm, nil
	}
	return nil, membership.ErrNotFound
}

func (s *stubClient) CreateGroupMembership(_ context.Context, input membership.GroupMembershipInput) (*membership.GroupMembership, error) {
	gm := &membership.GroupMembership{
		ID: "gm-1", GroupUUID: input.GroupUUID, PersonUUID: input.PersonUUID,
		Role: input.Role, OrgName: input.OrgName, Active: true,
	}
	s.groupRecords[input.GroupUUID+"|"+input.PersonUUID] = gm
	return gm, nil
}

func (s *stubClient) EndDateGroupMembership(_ context.Context, _ string) error { return nil }

func (s *stubClient) DeleteGroupMembership(_ context.Context, _ string) error { return nil }

func (s *stubClient) CountGroupMembersByRole(_ context.Context, _, _ string) (int, error) {
	return 0, nil
}

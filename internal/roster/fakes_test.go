package roster

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
)

// fakeClient is an in-memory membership.Client that records every mutating
// call so tests can assert exactly what a strategy touched.
type fakeClient struct {
	personsByEmail  map[string]*membership.Person
	org             *membership.Organization
	relationships   map[string]*membership.Relationship
	orgMembership   map[string]*membership.Membership
	membershipsByID map[string]*membership.Membership
	personRecords   map[string]*membership.PersonMembership
	seatsByEmail    map[string]*membership.PersonMembership
	rolesHeld       map[string][]string
	groups          map[string]*membership.Group
	groupRecords    map[string]*membership.GroupMembership
	groupCounts     map[string]int
	canManage       bool

	assignSeatErr error

	createdPersons      []membership.PersonInput
	updatedPersons      []string
	createdRels         []membership.RelationshipInput
	assignedSeats       []string
	endedRecords        []string
	assignedRoles       []string
	removedRoles        []string
	createdGroupRecords []membership.GroupMembershipInput
	endedGroupRecords   []string
	deletedGroupRecords []string
	calls               []string

	seq int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		personsByEmail:  map[string]*membership.Person{},
		relationships:   map[string]*membership.Relationship{},
		orgMembership:   map[string]*membership.Membership{},
		membershipsByID: map[string]*membership.Membership{},
		personRecords:   map[string]*membership.PersonMembership{},
		seatsByEmail:    map[string]*membership.PersonMembership{},
		rolesHeld:       map[string][]string{},
		groups:          map[string]*membership.Group{},
		groupRecords:    map[string]*membership.GroupMembership{},
		groupCounts:     map[string]int{},
		canManage:       true,
	}
}

func (f *fakeClient) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeClient) called(call string) bool {
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeClient) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func pairKey(a, b string) string { return a + "|" + b }

func (f *fakeClient) FindPersonByEmail(_ context.Context, email string) (*membership.Person, error) {
	f.record("FindPersonByEmail")
	if p, ok := f.personsByEmail[email]; ok {
		return p, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) CreatePerson(_ context.Context, input membership.PersonInput) (*membership.Person, error) {
	f.record("CreatePerson")
	f.createdPersons = append(f.createdPersons, input)
	p := &membership.Person{
		UUID:      f.nextID("person"),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Title:     input.Title,
		Phone:     input.Phone,
	}
	f.personsByEmail[input.Email] = p
	return p, nil
}

func (f *fakeClient) UpdatePerson(_ context.Context, personUUID string, _ membership.PersonInput) error {
	f.record("UpdatePerson")
	f.updatedPersons = append(f.updatedPersons, personUUID)
	return nil
}

func (f *fakeClient) GetOrganization(_ context.Context, orgUUID string) (*membership.Organization, error) {
	f.record("GetOrganization")
	if f.org != nil {
		return f.org, nil
	}
	return &membership.Organization{UUID: orgUUID, Name: "Acme"}, nil
}

func (f *fakeClient) ListOrganizationMembers(_ context.Context, _ string) ([]membership.Person, error) {
	f.record("ListOrganizationMembers")
	return nil, nil
}

func (f *fakeClient) FindRelationship(_ context.Context, personUUID, orgUUID string) (*membership.Relationship, error) {
	f.record("FindRelationship")
	if rel, ok := f.relationships[pairKey(personUUID, orgUUID)]; ok {
		return rel, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) CreateRelationship(_ context.Context, input membership.RelationshipInput) (*membership.Relationship, error) {
	f.record("CreateRelationship")
	f.createdRels = append(f.createdRels, input)
	rel := &membership.Relationship{
		ID:          f.nextID("rel"),
		PersonUUID:  input.PersonUUID,
		OrgUUID:     input.OrgUUID,
		Type:        input.Type,
		Description: input.Description,
		Active:      true,
	}
	f.relationships[pairKey(input.PersonUUID, input.OrgUUID)] = rel
	return rel, nil
}

func (f *fakeClient) FindMembershipByOrg(_ context.Context, orgUUID string) (*membership.Membership, error) {
	f.record("FindMembershipByOrg")
	if m, ok := f.orgMembership[orgUUID]; ok {
		return m, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) GetMembership(_ context.Context, membershipUUID string) (*membership.Membership, error) {
	f.record("GetMembership")
	if m, ok := f.membershipsByID[membershipUUID]; ok {
		return m, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) AssignSeat(_ context.Context, membershipUUID, personUUID string) error {
	f.record("AssignSeat")
	if f.assignSeatErr != nil {
		return f.assignSeatErr
	}
	f.assignedSeats = append(f.assignedSeats, pairKey(membershipUUID, personUUID))
	return nil
}

func (f *fakeClient) FindSeatAssignment(_ context.Context, _, email string) (*membership.PersonMembership, error) {
	f.record("FindSeatAssignment")
	if pm, ok := f.seatsByEmail[email]; ok {
		return pm, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) ListPersonMemberships(_ context.Context, personUUID, orgUUID string) ([]membership.PersonMembership, error) {
	f.record("ListPersonMemberships")
	var out []membership.PersonMembership
	for _, pm := range f.personRecords {
		if pm.PersonUUID == personUUID && pm.OrgUUID == orgUUID {
			out = append(out, *pm)
		}
	}
	return out, nil
}

func (f *fakeClient) GetPersonMembership(_ context.Context, personMembershipID string) (*membership.PersonMembership, error) {
	f.record("GetPersonMembership")
	if pm, ok := f.personRecords[personMembershipID]; ok {
		return pm, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) EndDatePersonMembership(_ context.Context, personMembershipID string) error {
	f.record("EndDatePersonMembership")
	f.endedRecords = append(f.endedRecords, personMembershipID)
	if pm, ok := f.personRecords[personMembershipID]; ok {
		pm.Active = false
	}
	return nil
}

func (f *fakeClient) ListRoles(_ context.Context, personUUID, orgUUID string) ([]string, error) {
	f.record("ListRoles")
	return f.rolesHeld[pairKey(personUUID, orgUUID)], nil
}

func (f *fakeClient) AssignRole(_ context.Context, personUUID, orgUUID, role string) error {
	f.record("AssignRole")
	f.assignedRoles = append(f.assignedRoles, role)
	key := pairKey(personUUID, orgUUID)
	f.rolesHeld[key] = append(f.rolesHeld[key], role)
	return nil
}

func (f *fakeClient) RemoveRole(_ context.Context, _, _, role string) error {
	f.record("RemoveRole")
	f.removedRoles = append(f.removedRoles, role)
	return nil
}

func (f *fakeClient) GetGroup(_ context.Context, groupUUID string) (*membership.Group, error) {
	f.record("GetGroup")
	if g, ok := f.groups[groupUUID]; ok {
		return g, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) CanManageGroup(_ context.Context, _ string) (bool, error) {
	f.record("CanManageGroup")
	return f.canManage, nil
}

func (f *fakeClient) FindGroupMembership(_ context.Context, groupUUID, personUUID string) (*membership.GroupMembership, error) {
	f.record("FindGroupMembership")
	if gm, ok := f.groupRecords[pairKey(groupUUID, personUUID)]; ok {
		return gm, nil
	}
	return nil, membership.ErrNotFound
}

func (f *fakeClient) CreateGroupMembership(_ context.Context, input membership.GroupMembershipInput) (*membership.GroupMembership, error) {
	f.record("CreateGroupMembership")
	f.createdGroupRecords = append(f.createdGroupRecords, input)
	gm := &membership.GroupMembership{
		ID:         f.nextID("gm"),
		GroupUUID:  input.GroupUUID,
		PersonUUID: input.PersonUUID,
		Role:       input.Role,
		OrgName:    input.OrgName,
		Active:     true,
	}
	f.groupRecords[pairKey(input.GroupUUID, input.PersonUUID)] = gm
	return gm, nil
}

func (f *fakeClient) EndDateGroupMembership(_ context.Context, groupMembershipID string) error {
	f.record("EndDateGroupMembership")
	f.endedGroupRecords = append(f.endedGroupRecords, groupMembershipID)
	return nil
}

func (f *fakeClient) DeleteGroupMembership(_ context.Context, groupMembershipID string) error {
	f.record("DeleteGroupMembership")
	f.deletedGroupRecords = append(f.deletedGroupRecords, groupMembershipID)
	return nil
}

func (f *fakeClient) CountGroupMembersByRole(_ context.Context, groupUUID, role string) (int, error) {
	f.record("CountGroupMembersByRole")
	return f.groupCounts[pairKey(groupUUID, role)], nil
}

type fakeNotifier struct {
	notices        []string
	removalNotices []string
	touchpoints    []string
}

func (f *fakeNotifier) SendAssignmentNotice(_ context.Context, personUUID, orgUUID string) {
	f.notices = append(f.notices, pairKey(personUUID, orgUUID))
}

func (f *fakeNotifier) SendRemovalNotice(_ context.Context, personUUID, orgUUID string) {
	f.removalNotices = append(f.removalNotices, pairKey(personUUID, orgUUID))
}

func (f *fakeNotifier) WriteTouchpoint(_ context.Context, personUUID, _ string, note string) {
	f.touchpoints = append(f.touchpoints, personUUID+": "+note)
}

func testRosterConfig(mode string) config.RosterConfig {
	return config.RosterConfig{
		Mode:                     domain.RosterMode(mode),
		DefaultRelationshipType:  "member",
		AllowedRelationshipTypes: []string{"member", "alumni", "staff"},
		BaseRole:                 "Member",
		AutoRoles:                []string{"Portal Access"},
		OwnerRole:                "Owner",
		ProtectOwner:             true,
		RosterRoles:              []string{"Player", "Coach"},
		GroupMemberRole:          "Player",
		GroupManagerRole:         "Coach",
		GroupRemovalMode:         "end_date",
	}
}

func testDeps(client *fakeClient, notifier Notifier, cfg config.RosterConfig) Dependencies {
	return Dependencies{
		Client:   client,
		Notifier: notifier,
		Config:   cfg,
		Logger:   zap.NewNop(),
	}
}

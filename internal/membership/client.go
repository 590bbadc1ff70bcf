package membership

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by Client implementations.
var (
	ErrNotFound        = errors.New("membership api: not found")
	ErrNoSeatAvailable = errors.New("membership api: no seat available")
	ErrAlreadyAssigned = errors.New("membership api: person already assigned")
)

// Client is the boundary to the external membership API. All calls are
// synchronous; lookups return ErrNotFound for absent records.
type Client interface {
	// People.
	FindPersonByEmail(ctx context.Context, email string) (*Person, error)
	CreatePerson(ctx context.Context, input PersonInput) (*Person, error)
	UpdatePerson(ctx context.Context, personUUID string, input PersonInput) error

	// Organizations.
	GetOrganization(ctx context.Context, orgUUID string) (*Organization, error)
	ListOrganizationMembers(ctx context.Context, orgUUID string) ([]Person, error)

	// Relationships.
	FindRelationship(ctx context.Context, personUUID, orgUUID string) (*Relationship, error)
	CreateRelationship(ctx context.Context, input RelationshipInput) (*Relationship, error)

	// Memberships and seats.
	FindMembershipByOrg(ctx context.Context, orgUUID string) (*Membership, error)
	GetMembership(ctx context.Context, membershipUUID string) (*Membership, error)
	AssignSeat(ctx context.Context, membershipUUID, personUUID string) error
	FindSeatAssignment(ctx context.Context, membershipUUID, email string) (*PersonMembership, error)
	ListPersonMemberships(ctx context.Context, personUUID, orgUUID string) ([]PersonMembership, error)
	GetPersonMembership(ctx context.Context, personMembershipID string) (*PersonMembership, error)
	EndDatePersonMembership(ctx context.Context, personMembershipID string) error

	// Roles.
	ListRoles(ctx context.Context, personUUID, orgUUID string) ([]string, error)
	AssignRole(ctx context.Context, personUUID, orgUUID, role string) error
	RemoveRole(ctx context.Context, personUUID, orgUUID, role string) error

	// Groups.
	GetGroup(ctx context.Context, groupUUID string) (*Group, error)
	CanManageGroup(ctx context.Context, groupUUID string) (bool, error)
	FindGroupMembership(ctx context.Context, groupUUID, personUUID string) (*GroupMembership, error)
	CreateGroupMembership(ctx context.Context, input GroupMembershipInput) (*GroupMembership, error)
	EndDateGroupMembership(ctx context.Context, groupMembershipID string) error
	DeleteGroupMembership(ctx context.Context, groupMembershipID string) error
	CountGroupMembersByRole(ctx context.Context, groupUUID, role string) (int, error)
}

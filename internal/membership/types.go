package membership

import "time"

// Person is a platform person record.
type Person struct {
	UUID      string `json:"uuid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Title     string `json:"title,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// PersonInput carries fields for person create/update.
type PersonInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Title     string `json:"title,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Organization is a platform organization record.
type Organization struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	OwnerPersonUUID string `json:"owner_person_uuid,omitempty"`
}

// Relationship connects a person to an organization with a typed reason.
type Relationship struct {
	ID          string `json:"id"`
	PersonUUID  string `json:"person_uuid"`
	OrgUUID     string `json:"org_uuid"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// RelationshipInput carries fields for relationship creation.
type RelationshipInput struct {
	PersonUUID  string `json:"person_uuid"`
	OrgUUID     string `json:"org_uuid"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Membership is an organization's subscription record with seat capacity.
type Membership struct {
	UUID       string `json:"uuid"`
	OrgUUID    string `json:"org_uuid"`
	Name       string `json:"name,omitempty"`
	SeatsTotal int    `json:"seats_total"`
	SeatsUsed  int    `json:"seats_used"`
}

// PersonMembership is one person's occupancy of a membership seat.
type PersonMembership struct {
	ID             string     `json:"id"`
	PersonUUID     string     `json:"person_uuid"`
	MembershipUUID string     `json:"membership_uuid"`
	OrgUUID        string     `json:"org_uuid"`
	Active         bool       `json:"active"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Group is a roster group within an organization.
type Group struct {
	UUID    string `json:"uuid"`
	OrgUUID string `json:"org_uuid"`
	Name    string `json:"name"`
}

// GroupMembership is one person's membership in a group.
type GroupMembership struct {
	ID         string     `json:"id"`
	GroupUUID  string     `json:"group_uuid"`
	PersonUUID string     `json:"person_uuid"`
	Role       string     `json:"role"`
	OrgName    string     `json:"org_name,omitempty"`
	Active     bool       `json:"active"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// GroupMembershipInput carries fields for group-membership creation.
type GroupMembershipInput struct {
	GroupUUID  string `json:"group_uuid"`
	PersonUUID string `json:"person_uuid"`
	Role       string `json:"role"`
	OrgName    string `json:"org_name,omitempty"`
}

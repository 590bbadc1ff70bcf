package dto

// AddMemberRequest payload for direct roster additions.
type AddMemberRequest struct {
	FirstName               string   `json:"first_name"`
	LastName                string   `json:"last_name"`
	Email                   string   `json:"email"`
	Title                   string   `json:"title,omitempty"`
	Phone                   string   `json:"phone,omitempty"`
	Roles                   []string `json:"roles,omitempty"`
	RelationshipType        string   `json:"relationship_type,omitempty"`
	RelationshipDescription string   `json:"relationship_description,omitempty"`

	// Mode-specific context.
	MembershipUUID string `json:"membership_uuid,omitempty"`
	GroupUUID      string `json:"group_uuid,omitempty"`
	Role           string `json:"role,omitempty"`
	OrgName        string `json:"org_name,omitempty"`
}

// RemoveMemberRequest payload for roster removals.
type RemoveMemberRequest struct {
	MembershipUUID     string `json:"membership_uuid,omitempty"`
	GroupUUID          string `json:"group_uuid,omitempty"`
	PersonMembershipID string `json:"person_membership_id,omitempty"`
}

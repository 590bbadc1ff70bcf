package domain

// RosterMode selects how people are attached to an organization.
type RosterMode string

const (
	RosterModeCascade         RosterMode = "cascade"
	RosterModeDirect          RosterMode = "direct"
	RosterModeGroups          RosterMode = "groups"
	RosterModeMembershipCycle RosterMode = "membership_cycle"
)

// Valid reports whether the mode is one of the known roster modes.
func (m RosterMode) Valid() bool {
	switch m {
	case RosterModeCascade, RosterModeDirect, RosterModeGroups, RosterModeMembershipCycle:
		return true
	}
	return false
}

// ResultStatus discriminates strategy outcomes.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// StrategyResult is the outcome of one roster operation. A result carries
// either a success with the affected person, or an error message, never both.
type StrategyResult struct {
	Status     ResultStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	PersonUUID string       `json:"person_uuid,omitempty"`
}

// MemberAdditionRequest describes one person to attach to an organization.
type MemberAdditionRequest struct {
	FirstName               string   `json:"first_name"`
	LastName                string   `json:"last_name"`
	Email                   string   `json:"email"`
	Title                   string   `json:"title,omitempty"`
	Phone                   string   `json:"phone,omitempty"`
	Roles                   []string `json:"roles,omitempty"`
	RelationshipType        string   `json:"relationship_type,omitempty"`
	RelationshipDescription string   `json:"relationship_description,omitempty"`
}

// RosterContext carries optional mode-specific identifiers alongside a
// request. Each strategy reads only the fields it owns and ignores the rest.
type RosterContext struct {
	MembershipUUID     string `json:"membership_uuid,omitempty"`
	GroupUUID          string `json:"group_uuid,omitempty"`
	Role               string `json:"role,omitempty"`
	PersonMembershipID string `json:"person_membership_id,omitempty"`
	OrgName            string `json:"org_name,omitempty"`
}

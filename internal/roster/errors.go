package roster

import (
	"net/http"

	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Stable error codes surfaced by the roster layer. Callers branch on these
// rather than on messages.
const (
	CodeMembershipMismatch        = "MEMBERSHIP_ORG_MISMATCH"
	CodeMembershipNotResolved     = "MEMBERSHIP_NOT_RESOLVED"
	CodeMissingMembershipUUID     = "MISSING_MEMBERSHIP_UUID"
	CodeMissingGroupUUID          = "MISSING_GROUP_UUID"
	CodeMissingPersonMembershipID = "MISSING_PERSON_MEMBERSHIP_ID"
	CodeNoSeatAvailable           = "NO_SEAT_AVAILABLE"
	CodeMemberExists              = "MEMBER_EXISTS"
	CodeOwnerRemovalForbidden     = "OWNER_REMOVAL_FORBIDDEN"
	CodeGroupAccessDenied         = "GROUP_ACCESS_DENIED"
	CodeProtectedRole             = "PROTECTED_ROLE"
	CodeSeatLimitReached          = "SEAT_LIMIT_REACHED"
)

func errMembershipMismatch(membershipUUID, orgUUID string) error {
	return apperrors.NewConflictWithCode(CodeMembershipMismatch,
		"membership does not belong to organization",
		map[string]any{"membership_uuid": membershipUUID, "org_uuid": orgUUID})
}

func errMembershipNotResolved(orgUUID string) error {
	return apperrors.NewDomainError(CodeMembershipNotResolved,
		"no membership resolved for organization",
		http.StatusNotFound,
		map[string]any{"org_uuid": orgUUID})
}

func errMissingMembershipUUID() error {
	return apperrors.NewValidationWithCode(CodeMissingMembershipUUID,
		"missing membership uuid", nil)
}

func errMissingGroupUUID() error {
	return apperrors.NewValidationWithCode(CodeMissingGroupUUID,
		"missing group uuid", nil)
}

func errMissingPersonMembershipID() error {
	return apperrors.NewValidationWithCode(CodeMissingPersonMembershipID,
		"missing person membership id", nil)
}

func errNoSeatAvailable(membershipUUID string) error {
	return apperrors.NewConflictWithCode(CodeNoSeatAvailable,
		"no seat available on membership",
		map[string]any{"membership_uuid": membershipUUID})
}

func errMemberExists(personUUID string) error {
	return apperrors.NewConflictWithCode(CodeMemberExists,
		"member already exists",
		map[string]any{"person_uuid": personUUID})
}

func errOwnerRemovalForbidden(personUUID string) error {
	return apperrors.NewConflictWithCode(CodeOwnerRemovalForbidden,
		"owner removal forbidden",
		map[string]any{"person_uuid": personUUID})
}

func errGroupAccessDenied(groupUUID string) error {
	return apperrors.NewDomainError(CodeGroupAccessDenied,
		"caller may not manage group",
		http.StatusForbidden,
		map[string]any{"group_uuid": groupUUID})
}

func errProtectedRole(role string) error {
	return apperrors.NewConflictWithCode(CodeProtectedRole,
		"target holds a protected role",
		map[string]any{"role": role})
}

func errSeatLimitReached(groupUUID, role string) error {
	return apperrors.NewConflictWithCode(CodeSeatLimitReached,
		"group seat limit reached for role",
		map[string]any{"group_uuid": groupUUID, "role": role})
}

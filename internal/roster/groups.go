package roster

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// groupsStrategy rosters people into a specific group instead of a
// membership seat. The group must be supplied in context and manageable by
// the caller; a group-membership record carries the role and an
// org-identifying custom field.
type groupsStrategy struct {
	baseStrategy
}

// NewGroupsStrategy creates the groups-mode strategy.
func NewGroupsStrategy(deps Dependencies) Strategy {
	return &groupsStrategy{baseStrategy: newBase(deps)}
}

func (s *groupsStrategy) AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if rctx.GroupUUID == "" {
		return nil, errMissingGroupUUID()
	}

	group, err := s.verifyGroup(ctx, rctx.GroupUUID, orgUUID)
	if err != nil {
		return nil, err
	}

	role := s.pickRole(rctx.Role, req.Roles)

	if s.cfg.GroupSeatLimit > 0 {
		count, err := s.client.CountGroupMembersByRole(ctx, group.UUID, role)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if count >= s.cfg.GroupSeatLimit {
			return nil, errSeatLimitReached(group.UUID, role)
		}
	}

	person, err := s.persons.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.client.FindGroupMembership(ctx, group.UUID, person.UUID)
	if err != nil && !errors.Is(err, membership.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}
	if existing != nil && existing.Active {
		return nil, errMemberExists(person.UUID)
	}

	if _, _, err := s.orgs.EnsureRelationship(ctx, person.UUID, orgUUID, req.RelationshipType, req.RelationshipDescription); err != nil {
		return nil, err
	}

	orgName := rctx.OrgName
	if orgName == "" {
		if org, err := s.client.GetOrganization(ctx, orgUUID); err == nil {
			orgName = org.Name
		}
	}
	if _, err := s.client.CreateGroupMembership(ctx, membership.GroupMembershipInput{
		GroupUUID:  group.UUID,
		PersonUUID: person.UUID,
		Role:       role,
		OrgName:    orgName,
	}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	assignable := s.roles.FilterToRoster(s.roles.BuildRoles(append([]string{role}, req.Roles...)))
	if err := s.roles.Assign(ctx, person.UUID, orgUUID, assignable); err != nil {
		return nil, err
	}

	s.notifyAdded(ctx, person.UUID, orgUUID)
	return successResult(person.UUID, "member added to group"), nil
}

func (s *groupsStrategy) RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if personUUID == "" {
		return nil, apperrors.NewValidationError("person uuid is required", nil)
	}
	if rctx.GroupUUID == "" {
		return nil, errMissingGroupUUID()
	}

	group, err := s.verifyGroup(ctx, rctx.GroupUUID, orgUUID)
	if err != nil {
		return nil, err
	}

	if err := s.guardOwner(ctx, orgUUID, personUUID); err != nil {
		return nil, err
	}

	record, err := s.client.FindGroupMembership(ctx, group.UUID, personUUID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, apperrors.NewNotFound("group membership", map[string]any{
				"group_uuid": group.UUID, "person_uuid": personUUID,
			})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if strings.EqualFold(record.Role, s.cfg.GroupManagerRole) {
		return nil, errProtectedRole(record.Role)
	}

	if s.cfg.GroupRemovalMode == "delete" {
		err = s.client.DeleteGroupMembership(ctx, record.ID)
	} else {
		err = s.client.EndDateGroupMembership(ctx, record.ID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.notifyRemoved(ctx, personUUID, orgUUID)
	s.logger.Info("group removal complete",
		zap.String("person_uuid", personUUID),
		zap.String("group_uuid", group.UUID),
		zap.String("mode", s.cfg.GroupRemovalMode))
	return successResult(personUUID, "member removed from group"), nil
}

// verifyGroup loads the group, checks it belongs to the organization, and
// checks the caller may manage it.
func (s *groupsStrategy) verifyGroup(ctx context.Context, groupUUID, orgUUID string) (*membership.Group, error) {
	group, err := s.client.GetGroup(ctx, groupUUID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, apperrors.NewNotFound("group", map[string]any{"group_uuid": groupUUID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if group.OrgUUID != orgUUID {
		return nil, errGroupAccessDenied(groupUUID)
	}
	can, err := s.client.CanManageGroup(ctx, groupUUID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !can {
		return nil, errGroupAccessDenied(groupUUID)
	}
	return group, nil
}

// pickRole selects the first candidate that is a valid roster role, falling
// back to the configured group member role.
func (s *groupsStrategy) pickRole(contextRole string, rowRoles []string) string {
	candidates := rowRoles
	if contextRole != "" {
		candidates = append([]string{contextRole}, rowRoles...)
	}
	for _, candidate := range candidates {
		if s.roles.RosterRoleValid(candidate) {
			return candidate
		}
	}
	return s.cfg.GroupMemberRole
}

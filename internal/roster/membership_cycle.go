package roster

import (
	"context"
	"errors"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// membershipCycleStrategy scopes every operation to an explicitly named
// membership cycle. It is the only strategy that refuses to guess: a
// membership id is required in context and no implicit resolution happens.
type membershipCycleStrategy struct {
	baseStrategy
}

// NewMembershipCycleStrategy creates the membership-cycle strategy.
func NewMembershipCycleStrategy(deps Dependencies) Strategy {
	return &membershipCycleStrategy{baseStrategy: newBase(deps)}
}

func (s *membershipCycleStrategy) AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if rctx.MembershipUUID == "" {
		return nil, errMissingMembershipUUID()
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	m, err := s.memberships.Verify(ctx, rctx.MembershipUUID, orgUUID)
	if err != nil {
		return nil, err
	}

	person, err := s.persons.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.orgs.EnsureRelationship(ctx, person.UUID, orgUUID, req.RelationshipType, req.RelationshipDescription); err != nil {
		return nil, err
	}

	alreadySeated, err := s.memberships.AssignSeat(ctx, m.UUID, person.UUID)
	if err != nil {
		return nil, err
	}

	if err := s.roles.Assign(ctx, person.UUID, orgUUID, s.roles.BuildRoles(req.Roles)); err != nil {
		return nil, err
	}

	s.notifyAdded(ctx, person.UUID, orgUUID)

	message := "member added"
	if alreadySeated {
		message = "member already on roster"
	}
	return successResult(person.UUID, message), nil
}

func (s *membershipCycleStrategy) RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if personUUID == "" {
		return nil, apperrors.NewValidationError("person uuid is required", nil)
	}
	if rctx.PersonMembershipID == "" {
		return nil, errMissingPersonMembershipID()
	}

	if err := s.guardOwner(ctx, orgUUID, personUUID); err != nil {
		return nil, err
	}

	record, err := s.client.GetPersonMembership(ctx, rctx.PersonMembershipID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, apperrors.NewNotFound("person membership", map[string]any{
				"person_membership_id": rctx.PersonMembershipID,
			})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if record.OrgUUID != orgUUID || record.PersonUUID != personUUID {
		return nil, errMembershipMismatch(record.MembershipUUID, orgUUID)
	}

	if err := s.client.EndDatePersonMembership(ctx, record.ID); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.notifyRemoved(ctx, personUUID, orgUUID)
	return successResult(personUUID, "membership cycle ended"), nil
}

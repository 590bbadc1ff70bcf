package roster

import (
	"context"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// directStrategy assigns people to an explicit membership seat. A membership
// id supplied in context must belong to the organization; without one the
// organization's membership is resolved implicitly. Removal strips roles only
// and deliberately leaves the relationship and seat intact.
type directStrategy struct {
	baseStrategy
}

// NewDirectStrategy creates the direct-mode strategy.
func NewDirectStrategy(deps Dependencies) Strategy {
	return &directStrategy{baseStrategy: newBase(deps)}
}

func (s *directStrategy) AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Membership verification precedes person resolution so that a
	// mismatched context id mutates nothing.
	var m *membership.Membership
	var err error
	if rctx.MembershipUUID != "" {
		m, err = s.memberships.Verify(ctx, rctx.MembershipUUID, orgUUID)
	} else {
		m, err = s.memberships.ResolveForOrg(ctx, orgUUID)
	}
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

func (s *directStrategy) RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if personUUID == "" {
		return nil, apperrors.NewValidationError("person uuid is required", nil)
	}

	if err := s.roles.RemoveAll(ctx, personUUID, orgUUID); err != nil {
		return nil, err
	}

	s.notifyRemoved(ctx, personUUID, orgUUID)
	return successResult(personUUID, "roles removed"), nil
}

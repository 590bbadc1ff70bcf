package roster

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// cascadeStrategy attaches people through the organization's single org-wide
// membership. Removal cascades: the person's membership records are end-dated
// and all roles stripped.
type cascadeStrategy struct {
	baseStrategy
}

// NewCascadeStrategy creates the cascade-mode strategy.
func NewCascadeStrategy(deps Dependencies) Strategy {
	return &cascadeStrategy{baseStrategy: newBase(deps)}
}

func (s *cascadeStrategy) AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	person, err := s.persons.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	m, err := s.memberships.ResolveForOrg(ctx, orgUUID)
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

func (s *cascadeStrategy) RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	if personUUID == "" {
		return nil, apperrors.NewValidationError("person uuid is required", nil)
	}

	if err := s.guardOwner(ctx, orgUUID, personUUID); err != nil {
		return nil, err
	}

	records, err := s.client.ListPersonMemberships(ctx, personUUID, orgUUID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for _, record := range records {
		if !record.Active {
			continue
		}
		if err := s.client.EndDatePersonMembership(ctx, record.ID); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	if err := s.roles.RemoveAll(ctx, personUUID, orgUUID); err != nil {
		return nil, err
	}

	s.notifyRemoved(ctx, personUUID, orgUUID)
	s.logger.Info("cascade removal complete",
		zap.String("person_uuid", personUUID),
		zap.String("org_uuid", orgUUID),
		zap.Int("memberships_ended", len(records)))
	return successResult(personUUID, "member removed"), nil
}

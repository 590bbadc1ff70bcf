package roster

import (
	"context"
	"fmt"

	"github.com/spec-kit/roster-service/internal/domain"
)

// Orchestrator binds the configured roster mode to its strategy once at
// construction and delegates unchanged. Callers never branch on mode.
type Orchestrator struct {
	mode     domain.RosterMode
	strategy Strategy
	orgs     *OrgConnector
}

// NewOrchestrator selects the strategy for the configured mode.
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	var strategy Strategy
	switch deps.Config.Mode {
	case domain.RosterModeCascade:
		strategy = NewCascadeStrategy(deps)
	case domain.RosterModeDirect:
		strategy = NewDirectStrategy(deps)
	case domain.RosterModeGroups:
		strategy = NewGroupsStrategy(deps)
	case domain.RosterModeMembershipCycle:
		strategy = NewMembershipCycleStrategy(deps)
	default:
		return nil, fmt.Errorf("unknown roster mode: %q", deps.Config.Mode)
	}

	return &Orchestrator{
		mode:     deps.Config.Mode,
		strategy: strategy,
		orgs:     NewOrgConnector(deps.Client, deps.Config, deps.Logger),
	}, nil
}

// Mode returns the bound roster mode.
func (o *Orchestrator) Mode() domain.RosterMode {
	return o.mode
}

// RelationshipTypeAllowed reports whether t passes the configured allow-list.
func (o *Orchestrator) RelationshipTypeAllowed(t string) bool {
	return o.orgs.TypeAllowed(t)
}

// AddMember delegates to the bound strategy.
func (o *Orchestrator) AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	return o.strategy.AddMember(ctx, orgUUID, req, rctx)
}

// RemoveMember delegates to the bound strategy.
func (o *Orchestrator) RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error) {
	return o.strategy.RemoveMember(ctx, orgUUID, personUUID, rctx)
}

package roster

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Notifier is the best-effort side channel consumed by strategies. All calls
// log their own failures and never report them back.
type Notifier interface {
	SendAssignmentNotice(ctx context.Context, personUUID, orgUUID string)
	SendRemovalNotice(ctx context.Context, personUUID, orgUUID string)
	WriteTouchpoint(ctx context.Context, personUUID, orgUUID, note string)
}

// Strategy is the polymorphic roster-management contract. One implementation
// exists per roster mode; all of them compose the same four leaves in
// different orders.
type Strategy interface {
	AddMember(ctx context.Context, orgUUID string, req domain.MemberAdditionRequest, rctx domain.RosterContext) (*domain.StrategyResult, error)
	RemoveMember(ctx context.Context, orgUUID, personUUID string, rctx domain.RosterContext) (*domain.StrategyResult, error)
}

// Dependencies bundles collaborators for strategy construction.
type Dependencies struct {
	Client   membership.Client
	Notifier Notifier
	Config   config.RosterConfig
	Logger   *zap.Logger
}

// baseStrategy carries the shared leaves and helpers.
type baseStrategy struct {
	client      membership.Client
	persons     *PersonResolver
	orgs        *OrgConnector
	memberships *MembershipAssigner
	roles       *RoleAssigner
	notifier    Notifier
	cfg         config.RosterConfig
	logger      *zap.Logger
}

func newBase(deps Dependencies) baseStrategy {
	return baseStrategy{
		client:      deps.Client,
		persons:     NewPersonResolver(deps.Client, deps.Logger),
		orgs:        NewOrgConnector(deps.Client, deps.Config, deps.Logger),
		memberships: NewMembershipAssigner(deps.Client, deps.Logger),
		roles:       NewRoleAssigner(deps.Client, deps.Config, deps.Logger),
		notifier:    deps.Notifier,
		cfg:         deps.Config,
		logger:      deps.Logger,
	}
}

// validateRequest fails fast on missing identity fields before any API call.
func validateRequest(req domain.MemberAdditionRequest) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return apperrors.NewValidationError("first and last name are required", nil)
	}
	if !EmailValid(req.Email) {
		return apperrors.NewValidationError("a valid email is required", map[string]any{"email": req.Email})
	}
	return nil
}

// EmailValid applies the minimal shape check used across the roster layer.
func EmailValid(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domainPart := email[at+1:]
	if strings.Contains(domainPart, "@") || !strings.Contains(domainPart, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}

// notifyAdded runs the best-effort notification tail of an addition.
func (b *baseStrategy) notifyAdded(ctx context.Context, personUUID, orgUUID string) {
	if b.notifier == nil {
		return
	}
	b.notifier.SendAssignmentNotice(ctx, personUUID, orgUUID)
	b.notifier.WriteTouchpoint(ctx, personUUID, orgUUID, "added to roster")
}

// notifyRemoved runs the best-effort notification tail of a removal.
func (b *baseStrategy) notifyRemoved(ctx context.Context, personUUID, orgUUID string) {
	if b.notifier == nil {
		return
	}
	b.notifier.SendRemovalNotice(ctx, personUUID, orgUUID)
	b.notifier.WriteTouchpoint(ctx, personUUID, orgUUID, "removed from roster")
}

// guardOwner refuses removal of the organization's designated owner when
// owner protection is configured on.
func (b *baseStrategy) guardOwner(ctx context.Context, orgUUID, personUUID string) error {
	if !b.cfg.ProtectOwner {
		return nil
	}
	org, err := b.client.GetOrganization(ctx, orgUUID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if org.OwnerPersonUUID != "" && org.OwnerPersonUUID == personUUID {
		return errOwnerRemovalForbidden(personUUID)
	}
	return nil
}

func successResult(personUUID, message string) *domain.StrategyResult {
	return &domain.StrategyResult{
		Status:     domain.ResultSuccess,
		Message:    message,
		PersonUUID: personUUID,
	}
}

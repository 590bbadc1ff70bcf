package roster

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// MembershipAssigner resolves an organization's membership identity and
// places people into its seats.
type MembershipAssigner struct {
	client membership.Client
	logger *zap.Logger
}

// NewMembershipAssigner creates the assigner.
func NewMembershipAssigner(client membership.Client, logger *zap.Logger) *MembershipAssigner {
	return &MembershipAssigner{client: client, logger: logger}
}

// ResolveForOrg looks up the organization's single membership record.
func (a *MembershipAssigner) ResolveForOrg(ctx context.Context, orgUUID string) (*membership.Membership, error) {
	m, err := a.client.FindMembershipByOrg(ctx, orgUUID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, errMembershipNotResolved(orgUUID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return m, nil
}

// Verify loads the membership by id and confirms it belongs to the
// organization.
func (a *MembershipAssigner) Verify(ctx context.Context, membershipUUID, orgUUID string) (*membership.Membership, error) {
	m, err := a.client.GetMembership(ctx, membershipUUID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, errMembershipNotResolved(orgUUID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if m.OrgUUID != orgUUID {
		return nil, errMembershipMismatch(membershipUUID, orgUUID)
	}
	return m, nil
}

// AssignSeat places the person into a seat. Returns true when the person
// already held a seat, which short-circuits as an idempotent no-op.
func (a *MembershipAssigner) AssignSeat(ctx context.Context, membershipUUID, personUUID string) (bool, error) {
	err := a.client.AssignSeat(ctx, membershipUUID, personUUID)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, membership.ErrAlreadyAssigned) {
		return true, nil
	}
	if errors.Is(err, membership.ErrNoSeatAvailable) {
		return false, errNoSeatAvailable(membershipUUID)
	}
	return false, apperrors.NewInternalError(err)
}

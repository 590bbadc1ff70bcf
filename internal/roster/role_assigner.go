package roster

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// RoleAssigner assigns and removes named roles scoped to (person, organization).
type RoleAssigner struct {
	client membership.Client
	cfg    config.RosterConfig
	logger *zap.Logger
}

// NewRoleAssigner creates the assigner.
func NewRoleAssigner(client membership.Client, cfg config.RosterConfig, logger *zap.Logger) *RoleAssigner {
	return &RoleAssigner{client: client, cfg: cfg, logger: logger}
}

// BuildRoles composes the role set for an addition: configured base role,
// configured auto-roles, then caller roles, deduplicated in that order. The
// owner role is dropped unless owner assignment is allowed, as is anything on
// the excluded list.
func (ra *RoleAssigner) BuildRoles(callerRoles []string) []string {
	candidates := make([]string, 0, 2+len(ra.cfg.AutoRoles)+len(callerRoles))
	if ra.cfg.BaseRole != "" {
		candidates = append(candidates, ra.cfg.BaseRole)
	}
	candidates = append(candidates, ra.cfg.AutoRoles...)
	candidates = append(candidates, callerRoles...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, role := range candidates {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		key := strings.ToLower(role)
		if _, dup := seen[key]; dup {
			continue
		}
		if !ra.cfg.AllowOwnerAssignment && strings.EqualFold(role, ra.cfg.OwnerRole) {
			continue
		}
		if ra.excluded(role) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, role)
	}
	return out
}

// FilterToRoster keeps only roles that are valid roster roles (groups mode).
func (ra *RoleAssigner) FilterToRoster(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if ra.RosterRoleValid(role) {
			out = append(out, role)
		}
	}
	return out
}

// RosterRoleValid reports whether role is one of the configured roster roles.
func (ra *RoleAssigner) RosterRoleValid(role string) bool {
	for _, valid := range ra.cfg.RosterRoles {
		if strings.EqualFold(valid, role) {
			return true
		}
	}
	return false
}

// Assign grants each role in order.
func (ra *RoleAssigner) Assign(ctx context.Context, personUUID, orgUUID string, roles []string) error {
	for _, role := range roles {
		if err := ra.client.AssignRole(ctx, personUUID, orgUUID, role); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	return nil
}

// RemoveAll strips every role the person holds in the organization.
func (ra *RoleAssigner) RemoveAll(ctx context.Context, personUUID, orgUUID string) error {
	held, err := ra.client.ListRoles(ctx, personUUID, orgUUID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	for _, role := range held {
		if err := ra.client.RemoveRole(ctx, personUUID, orgUUID, role); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	return nil
}

func (ra *RoleAssigner) excluded(role string) bool {
	for _, ex := range ra.cfg.ExcludedRoles {
		if strings.EqualFold(ex, role) {
			return true
		}
	}
	return false
}

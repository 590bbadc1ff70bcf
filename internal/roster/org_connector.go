package roster

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// OrgConnector ensures a person↔organization relationship record exists.
type OrgConnector struct {
	client membership.Client
	cfg    config.RosterConfig
	logger *zap.Logger
}

// NewOrgConnector creates the connector.
func NewOrgConnector(client membership.Client, cfg config.RosterConfig, logger *zap.Logger) *OrgConnector {
	return &OrgConnector{client: client, cfg: cfg, logger: logger}
}

// EnsureRelationship returns the existing relationship, or creates one with a
// relationship type chosen by precedence: requested value (when allowed),
// first allow-list entry, configured default.
func (c *OrgConnector) EnsureRelationship(ctx context.Context, personUUID, orgUUID, requestedType, description string) (*membership.Relationship, bool, error) {
	existing, err := c.client.FindRelationship(ctx, personUUID, orgUUID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, membership.ErrNotFound) {
		return nil, false, apperrors.NewInternalError(err)
	}

	if strings.TrimSpace(description) == "" {
		description = c.cfg.RelationshipDescription
	}
	created, err := c.client.CreateRelationship(ctx, membership.RelationshipInput{
		PersonUUID:  personUUID,
		OrgUUID:     orgUUID,
		Type:        c.ChooseType(requestedType),
		Description: description,
	})
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	return created, true, nil
}

// ChooseType resolves the relationship type for a new relationship.
func (c *OrgConnector) ChooseType(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && c.TypeAllowed(requested) {
		return requested
	}
	if len(c.cfg.AllowedRelationshipTypes) > 0 {
		return c.cfg.AllowedRelationshipTypes[0]
	}
	return c.cfg.DefaultRelationshipType
}

// TypeAllowed reports whether t is on the configured allow-list. An empty
// allow-list permits any value.
func (c *OrgConnector) TypeAllowed(t string) bool {
	if len(c.cfg.AllowedRelationshipTypes) == 0 {
		return true
	}
	for _, allowed := range c.cfg.AllowedRelationshipTypes {
		if strings.EqualFold(allowed, t) {
			return true
		}
	}
	return false
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/api/dto"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	"github.com/spec-kit/roster-service/internal/persistence"
	"github.com/spec-kit/roster-service/internal/roster"
)

const memberCachePrefix = "org:members:"

// RosterHandler exposes direct add/remove roster operations.
type RosterHandler struct {
	orchestrator *roster.Orchestrator
	client       membership.Client
	store        persistence.Store
	logger       *zap.Logger
}

// NewRosterHandler constructs handler.
func NewRosterHandler(orchestrator *roster.Orchestrator, client membership.Client, store persistence.Store, logger *zap.Logger) *RosterHandler {
	return &RosterHandler{orchestrator: orchestrator, client: client, store: store, logger: logger}
}

// AddMember handles POST /orgs/:orgUUID/members.
func (h *RosterHandler) AddMember(c *fiber.Ctx) error {
	orgUUID := c.Params("orgUUID")
	if orgUUID == "" {
		return fiber.NewError(http.StatusBadRequest, "org uuid required")
	}

	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.orchestrator.AddMember(c.UserContext(), orgUUID,
		domain.MemberAdditionRequest{
			FirstName:               req.FirstName,
			LastName:                req.LastName,
			Email:                   req.Email,
			Title:                   req.Title,
			Phone:                   req.Phone,
			Roles:                   req.Roles,
			RelationshipType:        req.RelationshipType,
			RelationshipDescription: req.RelationshipDescription,
		},
		domain.RosterContext{
			MembershipUUID: req.MembershipUUID,
			GroupUUID:      req.GroupUUID,
			Role:           req.Role,
			OrgName:        req.OrgName,
		})
	if err != nil {
		return err
	}

	h.invalidateMemberCache(c, orgUUID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": result})
}

// RemoveMember handles DELETE /orgs/:orgUUID/members/:personUUID.
func (h *RosterHandler) RemoveMember(c *fiber.Ctx) error {
	orgUUID := c.Params("orgUUID")
	personUUID := c.Params("personUUID")
	if orgUUID == "" || personUUID == "" {
		return fiber.NewError(http.StatusBadRequest, "org uuid and person uuid required")
	}

	var req dto.RemoveMemberRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}

	result, err := h.orchestrator.RemoveMember(c.UserContext(), orgUUID, personUUID,
		domain.RosterContext{
			MembershipUUID:     req.MembershipUUID,
			GroupUUID:          req.GroupUUID,
			PersonMembershipID: req.PersonMembershipID,
		})
	if err != nil {
		return err
	}

	h.invalidateMemberCache(c, orgUUID)
	return c.JSON(fiber.Map{"data": result})
}

// Members handles GET /orgs/:orgUUID/members with a read-through cache.
func (h *RosterHandler) Members(c *fiber.Ctx) error {
	orgUUID := c.Params("orgUUID")
	if orgUUID == "" {
		return fiber.NewError(http.StatusBadRequest, "org uuid required")
	}

	cacheKey := memberCachePrefix + orgUUID
	if raw, err := h.store.Get(c.UserContext(), cacheKey); err == nil {
		var cached []membership.Person
		if err := json.Unmarshal(raw, &cached); err == nil {
			return c.JSON(fiber.Map{"data": cached, "cached": true})
		}
	}

	members, err := h.client.ListOrganizationMembers(c.UserContext(), orgUUID)
	if err != nil {
		return err
	}
	if raw, err := json.Marshal(members); err == nil {
		if err := h.store.Set(c.UserContext(), cacheKey, raw); err != nil {
			h.logger.Warn("member cache write failed", zap.String("org_uuid", orgUUID), zap.Error(err))
		}
	}
	return c.JSON(fiber.Map{"data": members, "cached": false})
}

func (h *RosterHandler) invalidateMemberCache(c *fiber.Ctx, orgUUID string) {
	if err := h.store.Delete(c.UserContext(), memberCachePrefix+orgUUID); err != nil {
		h.logger.Warn("member cache invalidation failed", zap.String("org_uuid", orgUUID), zap.Error(err))
	}
}

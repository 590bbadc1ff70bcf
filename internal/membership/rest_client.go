package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
)

// restClient talks to the membership API over HTTP/JSON.
type restClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewRESTClient builds a Client for the configured membership API endpoint.
func NewRESTClient(cfg config.MembershipConfig, logger *zap.Logger) Client {
	return &restClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *restClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("membership api call: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *restClient) mapError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var body apiErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch body.Error.Code {
	case "NO_SEAT_AVAILABLE":
		return ErrNoSeatAvailable
	case "ALREADY_ASSIGNED":
		return ErrAlreadyAssigned
	}
	if resp.StatusCode == http.StatusConflict {
		return ErrAlreadyAssigned
	}

	c.logger.Warn("membership api error",
		zap.Int("status", resp.StatusCode),
		zap.String("code", body.Error.Code))
	return fmt.Errorf("membership api: status %d: %s", resp.StatusCode, body.Error.Message)
}

func (c *restClient) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	var person Person
	query := url.Values{"email": {email}}
	if err := c.do(ctx, http.MethodGet, "/people/lookup", query, nil, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

func (c *restClient) CreatePerson(ctx context.Context, input PersonInput) (*Person, error) {
	var person Person
	if err := c.do(ctx, http.MethodPost, "/people", nil, input, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

func (c *restClient) UpdatePerson(ctx context.Context, personUUID string, input PersonInput) error {
	return c.do(ctx, http.MethodPatch, "/people/"+personUUID, nil, input, nil)
}

func (c *restClient) GetOrganization(ctx context.Context, orgUUID string) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, http.MethodGet, "/organizations/"+orgUUID, nil, nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *restClient) ListOrganizationMembers(ctx context.Context, orgUUID string) ([]Person, error) {
	var people []Person
	if err := c.do(ctx, http.MethodGet, "/organizations/"+orgUUID+"/members", nil, nil, &people); err != nil {
		return nil, err
	}
	return people, nil
}

func (c *restClient) FindRelationship(ctx context.Context, personUUID, orgUUID string) (*Relationship, error) {
	var rel Relationship
	query := url.Values{"person_uuid": {personUUID}, "org_uuid": {orgUUID}}
	if err := c.do(ctx, http.MethodGet, "/relationships/lookup", query, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *restClient) CreateRelationship(ctx context.Context, input RelationshipInput) (*Relationship, error) {
	var rel Relationship
	if err := c.do(ctx, http.MethodPost, "/relationships", nil, input, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *restClient) FindMembershipByOrg(ctx context.Context, orgUUID string) (*Membership, error) {
	var m Membership
	if err := c.do(ctx, http.MethodGet, "/organizations/"+orgUUID+"/membership", nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *restClient) GetMembership(ctx context.Context, membershipUUID string) (*Membership, error) {
	var m Membership
	if err := c.do(ctx, http.MethodGet, "/memberships/"+membershipUUID, nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *restClient) AssignSeat(ctx context.Context, membershipUUID, personUUID string) error {
	body := map[string]string{"person_uuid": personUUID}
	return c.do(ctx, http.MethodPost, "/memberships/"+membershipUUID+"/seats", nil, body, nil)
}

func (c *restClient) FindSeatAssignment(ctx context.Context, membershipUUID, email string) (*PersonMembership, error) {
	var pm PersonMembership
	query := url.Values{"email": {email}}
	if err := c.do(ctx, http.MethodGet, "/memberships/"+membershipUUID+"/seats/lookup", query, nil, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (c *restClient) ListPersonMemberships(ctx context.Context, personUUID, orgUUID string) ([]PersonMembership, error) {
	var list []PersonMembership
	query := url.Values{"org_uuid": {orgUUID}}
	if err := c.do(ctx, http.MethodGet, "/people/"+personUUID+"/memberships", query, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *restClient) GetPersonMembership(ctx context.Context, personMembershipID string) (*PersonMembership, error) {
	var pm PersonMembership
	if err := c.do(ctx, http.MethodGet, "/person-memberships/"+personMembershipID, nil, nil, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (c *restClient) EndDatePersonMembership(ctx context.Context, personMembershipID string) error {
	return c.do(ctx, http.MethodPost, "/person-memberships/"+personMembershipID+"/end", nil, nil, nil)
}

func (c *restClient) ListRoles(ctx context.Context, personUUID, orgUUID string) ([]string, error) {
	var roles []string
	query := url.Values{"org_uuid": {orgUUID}}
	if err := c.do(ctx, http.MethodGet, "/people/"+personUUID+"/roles", query, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *restClient) AssignRole(ctx context.Context, personUUID, orgUUID, role string) error {
	body := map[string]string{"org_uuid": orgUUID, "role": role}
	return c.do(ctx, http.MethodPost, "/people/"+personUUID+"/roles", nil, body, nil)
}

func (c *restClient) RemoveRole(ctx context.Context, personUUID, orgUUID, role string) error {
	query := url.Values{"org_uuid": {orgUUID}, "role": {role}}
	return c.do(ctx, http.MethodDelete, "/people/"+personUUID+"/roles", query, nil, nil)
}

func (c *restClient) GetGroup(ctx context.Context, groupUUID string) (*Group, error) {
	var group Group
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupUUID, nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *restClient) CanManageGroup(ctx context.Context, groupUUID string) (bool, error) {
	var out struct {
		CanManage bool `json:"can_manage"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupUUID+"/manageability", nil, nil, &out); err != nil {
		return false, err
	}
	return out.CanManage, nil
}

func (c *restClient) FindGroupMembership(ctx context.Context, groupUUID, personUUID string) (*GroupMembership, error) {
	var gm GroupMembership
	query := url.Values{"person_uuid": {personUUID}, "active": {"true"}}
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupUUID+"/members/lookup", query, nil, &gm); err != nil {
		return nil, err
	}
	return &gm, nil
}

func (c *restClient) CreateGroupMembership(ctx context.Context, input GroupMembershipInput) (*GroupMembership, error) {
	var gm GroupMembership
	if err := c.do(ctx, http.MethodPost, "/groups/"+input.GroupUUID+"/members", nil, input, &gm); err != nil {
		return nil, err
	}
	return &gm, nil
}

func (c *restClient) EndDateGroupMembership(ctx context.Context, groupMembershipID string) error {
	return c.do(ctx, http.MethodPost, "/group-memberships/"+groupMembershipID+"/end", nil, nil, nil)
}

func (c *restClient) DeleteGroupMembership(ctx context.Context, groupMembershipID string) error {
	return c.do(ctx, http.MethodDelete, "/group-memberships/"+groupMembershipID, nil, nil, nil)
}

func (c *restClient) CountGroupMembersByRole(ctx context.Context, groupUUID, role string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	query := url.Values{"role": {role}}
	if err := c.do(ctx, http.MethodGet, "/groups/"+groupUUID+"/members/count", query, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

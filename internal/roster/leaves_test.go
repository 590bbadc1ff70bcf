package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
)

func TestPersonResolverCreatesWhenAbsent(t *testing.T) {
	client := newFakeClient()
	r := NewPersonResolver(client, zap.NewNop())

	person, err := r.Resolve(context.Background(), domain.MemberAdditionRequest{
		FirstName: " Ada ", LastName: "Lovelace", Email: " ADA@Example.com ", Title: "Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", person.Email)
	require.Len(t, client.createdPersons, 1)
	assert.Equal(t, "Ada", client.createdPersons[0].FirstName)
	assert.Equal(t, "Engineer", client.createdPersons[0].Title)
}

func TestPersonResolverEnrichesExisting(t *testing.T) {
	client := newFakeClient()
	client.personsByEmail["ada@example.com"] = &membership.Person{
		UUID: "p-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	}
	r := NewPersonResolver(client, zap.NewNop())

	person, err := r.Resolve(context.Background(), domain.MemberAdditionRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Title: "Countess",
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", person.UUID)
	assert.Equal(t, "Countess", person.Title)
	assert.Equal(t, []string{"p-1"}, client.updatedPersons)
	assert.Empty(t, client.createdPersons)
}

func TestPersonResolverSkipsNoopEnrichment(t *testing.T) {
	client := newFakeClient()
	client.personsByEmail["ada@example.com"] = &membership.Person{
		UUID: "p-1", Email: "ada@example.com", Title: "Countess",
	}
	r := NewPersonResolver(client, zap.NewNop())

	_, err := r.Resolve(context.Background(), domain.MemberAdditionRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Title: "Countess",
	})
	require.NoError(t, err)
	assert.Empty(t, client.updatedPersons)
}

func TestOrgConnectorReusesExistingRelationship(t *testing.T) {
	client := newFakeClient()
	client.relationships[pairKey("p-1", "org-1")] = &membership.Relationship{
		ID: "rel-1", Type: "alumni", Active: true,
	}
	c := NewOrgConnector(client, testRosterConfig("cascade"), zap.NewNop())

	rel, created, err := c.EnsureRelationship(context.Background(), "p-1", "org-1", "member", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "rel-1", rel.ID)
	assert.Empty(t, client.createdRels)
}

func TestOrgConnectorChooseTypePrecedence(t *testing.T) {
	cfg := testRosterConfig("cascade")
	c := NewOrgConnector(newFakeClient(), cfg, zap.NewNop())

	assert.Equal(t, "alumni", c.ChooseType("alumni"), "allowed requested value wins")
	assert.Equal(t, "member", c.ChooseType("sponsor"), "disallowed value falls to the first allowed type")
	assert.Equal(t, "member", c.ChooseType(""))

	open := cfg
	open.AllowedRelationshipTypes = nil
	open.DefaultRelationshipType = "contact"
	c = NewOrgConnector(newFakeClient(), open, zap.NewNop())
	assert.Equal(t, "anything", c.ChooseType("anything"), "empty allow-list permits any value")
	assert.Equal(t, "contact", c.ChooseType(""))
}

func TestRoleAssignerBuildRoles(t *testing.T) {
	cfg := config.RosterConfig{
		BaseRole:             "Member",
		AutoRoles:            []string{"Portal Access"},
		OwnerRole:            "Owner",
		AllowOwnerAssignment: false,
		ExcludedRoles:        []string{"Billing"},
	}
	ra := NewRoleAssigner(newFakeClient(), cfg, zap.NewNop())

	roles := ra.BuildRoles([]string{"member", "Coach", "Owner", "Billing", "", "Coach"})
	assert.Equal(t, []string{"Member", "Portal Access", "Coach"}, roles)

	cfg.AllowOwnerAssignment = true
	ra = NewRoleAssigner(newFakeClient(), cfg, zap.NewNop())
	assert.Contains(t, ra.BuildRoles([]string{"Owner"}), "Owner")
}

func TestRoleAssignerRemoveAll(t *testing.T) {
	client := newFakeClient()
	client.rolesHeld[pairKey("p-1", "org-1")] = []string{"Member", "Coach"}
	ra := NewRoleAssigner(client, testRosterConfig("cascade"), zap.NewNop())

	require.NoError(t, ra.RemoveAll(context.Background(), "p-1", "org-1"))
	assert.ElementsMatch(t, []string{"Member", "Coach"}, client.removedRoles)
}

func TestEmailValid(t *testing.T) {
	valid := []string{"a@b.co", "first.last@example.org", "x+tag@sub.example.com"}
	for _, email := range valid {
		assert.True(t, EmailValid(email), email)
	}
	invalid := []string{"", "plain", "@example.com", "a@", "a@nodot", "a b@example.com", "a@b@c.com"}
	for _, email := range invalid {
		assert.False(t, EmailValid(email), email)
	}
}

func TestOrchestratorBindsConfiguredMode(t *testing.T) {
	for _, mode := range []domain.RosterMode{
		domain.RosterModeCascade,
		domain.RosterModeDirect,
		domain.RosterModeGroups,
		domain.RosterModeMembershipCycle,
	} {
		o, err := NewOrchestrator(testDeps(newFakeClient(), nil, testRosterConfig(string(mode))))
		require.NoError(t, err)
		assert.Equal(t, mode, o.Mode())
	}

	cfg := testRosterConfig("cascade")
	cfg.Mode = "federated"
	_, err := NewOrchestrator(testDeps(newFakeClient(), nil, cfg))
	require.Error(t, err)
}

func TestOrchestratorRelationshipTypeAllowed(t *testing.T) {
	o, err := NewOrchestrator(testDeps(newFakeClient(), nil, testRosterConfig("cascade")))
	require.NoError(t, err)
	assert.True(t, o.RelationshipTypeAllowed("Alumni"))
	assert.False(t, o.RelationshipTypeAllowed("sponsor"))
}

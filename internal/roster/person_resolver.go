package roster

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/membership"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// PersonResolver finds or creates a person by email and enriches optional
// attributes. Lookups and creates are idempotent, so re-invocation is safe.
type PersonResolver struct {
	client membership.Client
	logger *zap.Logger
}

// NewPersonResolver creates the resolver.
func NewPersonResolver(client membership.Client, logger *zap.Logger) *PersonResolver {
	return &PersonResolver{client: client, logger: logger}
}

// Resolve returns the person for the request's email, creating the record
// when absent. Title and phone are pushed to an existing record when they
// differ; enrichment failure is logged, not fatal.
func (r *PersonResolver) Resolve(ctx context.Context, req domain.MemberAdditionRequest) (*membership.Person, error) {
	email := NormalizeEmail(req.Email)

	person, err := r.client.FindPersonByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, membership.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		created, err := r.client.CreatePerson(ctx, membership.PersonInput{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
			Title:     strings.TrimSpace(req.Title),
			Phone:     strings.TrimSpace(req.Phone),
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return created, nil
	}

	r.enrich(ctx, person, req)
	return person, nil
}

func (r *PersonResolver) enrich(ctx context.Context, person *membership.Person, req domain.MemberAdditionRequest) {
	title := strings.TrimSpace(req.Title)
	phone := strings.TrimSpace(req.Phone)
	if (title == "" || title == person.Title) && (phone == "" || phone == person.Phone) {
		return
	}

	input := membership.PersonInput{
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Email:     person.Email,
		Title:     person.Title,
		Phone:     person.Phone,
	}
	if title != "" {
		input.Title = title
	}
	if phone != "" {
		input.Phone = phone
	}
	if err := r.client.UpdatePerson(ctx, person.UUID, input); err != nil {
		r.logger.Warn("person enrichment failed",
			zap.String("person_uuid", person.UUID), zap.Error(err))
		return
	}
	person.Title = input.Title
	person.Phone = input.Phone
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

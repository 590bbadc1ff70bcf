package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestToDomainErrorUnwrapsWrappedDomainErrors(t *testing.T) {
	inner := NewConflictWithCode("MEMBER_EXISTS", "member already exists", nil)
	wrapped := fmt.Errorf("adding row: %w", inner)

	de := ToDomainError(wrapped)
	assert.Equal(t, "MEMBER_EXISTS", de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, "VALIDATION_FAILED", CodeOf(NewValidationError("bad", nil)))
	assert.Equal(t, "NOT_FOUND", CodeOf(NewNotFound("job", nil)))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(errors.New("boom")))
}

func TestDomainErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("pg down")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pg down")
}

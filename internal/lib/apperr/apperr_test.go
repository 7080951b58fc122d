package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error is internal", err: base, want: KindInternal},
		{name: "typed error", err: Mutation(base, "could not pause"), want: KindMutation},
		{name: "typed error wrapped with op", err: fmt.Errorf("service.Pause: %w", Conflict(base)), want: KindConflict},
		{name: "nil", err: nil, want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("redis down")
	err := Fetch(cause, "could not load plans")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "could not load plans", err.Message())
	assert.Contains(t, err.Error(), "redis down")
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(KindValidation).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(KindConflict).HTTPStatus)
	assert.False(t, MetadataFor(KindMutation).ShowMessage)
	assert.Equal(t, MetadataFor(KindInternal), MetadataFor(Kind("unknown")))
}

func TestFromStorage(t *testing.T) {
	notFound := fmt.Errorf("storage.GetDelivery: %w", repository.ErrNotFound)
	conflict := fmt.Errorf("storage.RegisterUser: %w", repository.ErrConflict)
	other := errors.New("connection reset")

	got := FromStorage(notFound, KindFetch, "delivery")
	assert.Equal(t, KindNotFound, got.Kind())
	assert.Equal(t, "delivery not found", got.Message())

	got = FromStorage(conflict, KindMutation, "user")
	assert.Equal(t, KindConflict, got.Kind())
	assert.ErrorIs(t, got, repository.ErrConflict)

	got = FromStorage(other, KindMutation, "subscription")
	assert.Equal(t, KindMutation, got.Kind())
	assert.Equal(t, "could not save changes", got.Message())
	assert.ErrorIs(t, got, other)
}

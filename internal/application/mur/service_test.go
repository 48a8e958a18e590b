package mur

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/ckan"
	"github.com/statload/backend/internal/domain/shared"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Datasets(ctx context.Context) ([]ckan.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ckan.Dataset), args.Error(1)
}

func TestService_Catalogue(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("Datasets", mock.Anything).Return([]ckan.Dataset{
		{ID: "iscritti", Name: "iscritti", Tags: []string{"studenti"}},
		{ID: "atenei", Name: "Atenei", Tags: []string{"studenti", "sedi"}},
	}, nil)

	groups, err := NewService(catalog, nil).Catalogue(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "sedi", groups[0].Tag)
	assert.Equal(t, "studenti", groups[1].Tag)
	assert.Equal(t, "Atenei", groups[1].Datasets[0].Name)
	catalog.AssertExpectations(t)
}

func TestService_Catalogue_Empty(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("Datasets", mock.Anything).Return([]ckan.Dataset{}, nil)

	_, err := NewService(catalog, nil).Catalogue(context.Background())
	assert.ErrorIs(t, err, shared.ErrEmptyCatalogue)
}

func TestService_Catalogue_Error(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("Datasets", mock.Anything).Return(nil, errors.New("portal down"))

	_, err := NewService(catalog, nil).Catalogue(context.Background())
	assert.EqualError(t, err, "portal down")
}

package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/integration"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
)

func TestAttributeSync_GroupsValuesUnderAttributes(t *testing.T) {
	erp := new(mockErpGateway)
	store := new(mockStorefrontGateway)
	repo := cache.NewInMemoryIdentityRepository()

	erp.On("Read", mock.Anything, integration.ObjectAttribute, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(1), "name": "Color"},
		}, nil)
	erp.On("Read", mock.Anything, integration.ObjectAttributeValue, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(5), "name": "Red", "attribute_id": []any{int64(1), "Color"}},
			{"id": int64(6), "name": "Blue", "attribute_id": []any{int64(1), "Color"}},
		}, nil)
	store.On("UpsertAttributes", mock.Anything, mock.MatchedBy(func(batch []integration.AttributeUpsert) bool {
		return len(batch) == 1 &&
			batch[0].Code == "color" &&
			len(batch[0].Values) == 2 &&
			batch[0].Values[0].Names[integration.LangEN] == "Red"
	})).Return(nil)

	s := NewAttributeSynchronizer(erp, store, repo, nil)
	result, err := s.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.NewLinks)

	record, err := repo.Get(context.Background(), integration.FamilyAttributes, 1)
	require.NoError(t, err)
	assert.Equal(t, "color", record.LocalID)

	value, err := repo.Get(context.Background(), integration.FamilyAttributeValues, 5)
	require.NoError(t, err)
	assert.Equal(t, "5", value.LocalID)
	store.AssertExpectations(t)
}

func TestAttributeSync_DuplicateValueNamesFailAsAttributes(t *testing.T) {
	erp := new(mockErpGateway)
	store := new(mockStorefrontGateway)
	repo := cache.NewInMemoryIdentityRepository()

	erp.On("Read", mock.Anything, integration.ObjectAttribute, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(1), "name": "Color"},
		}, nil)
	// Two values with the same name violate per-field uniqueness; the whole
	// hierarchy fails as the attribute family.
	erp.On("Read", mock.Anything, integration.ObjectAttributeValue, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(5), "name": "Red", "attribute_id": []any{int64(1), "Color"}},
			{"id": int64(6), "name": "Red", "attribute_id": []any{int64(1), "Color"}},
		}, nil)

	s := NewAttributeSynchronizer(erp, store, repo, nil)
	_, err := s.Sync(context.Background())

	require.Error(t, err)
	var validation *integration.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, integration.FamilyAttributes, validation.Family)
	assert.Contains(t, err.Error(), "Attributes has errors")
	store.AssertNotCalled(t, "UpsertAttributes", mock.Anything, mock.Anything)
}

func TestAttributeSync_DuplicateCodeKeepsFirst(t *testing.T) {
	erp := new(mockErpGateway)
	store := new(mockStorefrontGateway)
	repo := cache.NewInMemoryIdentityRepository()

	// Distinct names, colliding slugs. The first attribute wins; the second
	// and its values are skipped with a warning.
	erp.On("Read", mock.Anything, integration.ObjectAttribute, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(1), "name": "Color"},
			{"id": int64(2), "name": "COLOR"},
		}, nil)
	erp.On("Read", mock.Anything, integration.ObjectAttributeValue, mock.Anything, []string{"name"}).
		Return([]integration.RawRecord{
			{"id": int64(7), "name": "Green", "attribute_id": []any{int64(2), "COLOR"}},
		}, nil)
	store.On("UpsertAttributes", mock.Anything, mock.MatchedBy(func(batch []integration.AttributeUpsert) bool {
		return len(batch) == 1 && batch[0].ExternalID == int64(1) && len(batch[0].Values) == 0
	})).Return(nil)

	s := NewAttributeSynchronizer(erp, store, repo, nil)
	_, err := s.Sync(context.Background())

	require.NoError(t, err)

	_, err = repo.Get(context.Background(), integration.FamilyAttributes, 2)
	assert.ErrorIs(t, err, integration.ErrIdentityNotFound)
	store.AssertExpectations(t)
}

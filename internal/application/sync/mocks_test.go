package sync

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/syncbridge/backend/internal/domain/integration"
)

type mockErpGateway struct {
	mock.Mock
}

func (m *mockErpGateway) Read(ctx context.Context, objectType string, criteria []integration.Criterion, translationFields []string) ([]integration.RawRecord, error) {
	args := m.Called(ctx, objectType, criteria, translationFields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RawRecord), args.Error(1)
}

func (m *mockErpGateway) ReadAllIDs(ctx context.Context, objectType string, criteria []integration.Criterion) ([]int64, error) {
	args := m.Called(ctx, objectType, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockErpGateway) Write(ctx context.Context, objectType string, id *int64, payload map[string]any) (int64, error) {
	args := m.Called(ctx, objectType, id, payload)
	return args.Get(0).(int64), args.Error(1)
}

type mockStorefrontGateway struct {
	mock.Mock
}

func (m *mockStorefrontGateway) UpsertMerchants(ctx context.Context, merchants []integration.MerchantUpsert) error {
	return m.Called(ctx, merchants).Error(0)
}

func (m *mockStorefrontGateway) UpsertCategories(ctx context.Context, categories []integration.CategoryUpsert) error {
	return m.Called(ctx, categories).Error(0)
}

func (m *mockStorefrontGateway) UpsertAttributes(ctx context.Context, attributes []integration.AttributeUpsert) error {
	return m.Called(ctx, attributes).Error(0)
}

func (m *mockStorefrontGateway) UpsertProducts(ctx context.Context, products []integration.ProductUpsert) error {
	return m.Called(ctx, products).Error(0)
}

func (m *mockStorefrontGateway) UpsertVariants(ctx context.Context, variants []integration.VariantUpsert) error {
	return m.Called(ctx, variants).Error(0)
}

func (m *mockStorefrontGateway) UpsertDeliveryOptions(ctx context.Context, options []integration.DeliveryOptionUpsert) error {
	return m.Called(ctx, options).Error(0)
}

func (m *mockStorefrontGateway) UpsertPickupLocations(ctx context.Context, locations []integration.PickupLocationUpsert) error {
	return m.Called(ctx, locations).Error(0)
}

func (m *mockStorefrontGateway) Delete(ctx context.Context, family integration.EntityFamily, localIDs []string) error {
	return m.Called(ctx, family, localIDs).Error(0)
}

func (m *mockStorefrontGateway) ListVariants(ctx context.Context) ([]integration.VariantUpsert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.VariantUpsert), args.Error(1)
}

func (m *mockStorefrontGateway) ListOrders(ctx context.Context) ([]integration.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Order), args.Error(1)
}

func (m *mockStorefrontGateway) MarkOrderSynced(ctx context.Context, localID string, link integration.OrderLink) error {
	return m.Called(ctx, localID, link).Error(0)
}

func (m *mockStorefrontGateway) UpdateOrderStatus(ctx context.Context, localID string, status integration.OrderStatus) error {
	return m.Called(ctx, localID, status).Error(0)
}

var (
	_ integration.ErpGateway        = (*mockErpGateway)(nil)
	_ integration.StorefrontGateway = (*mockStorefrontGateway)(nil)
)

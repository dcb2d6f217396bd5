package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromErp(t *testing.T) {
	tests := []struct {
		name string
		in   ErpOrderStatus
		want OrderStatus
	}{
		{"draft", ErpOrderStatusDraft, OrderStatusNew},
		{"sent", ErpOrderStatusSent, OrderStatusNew},
		{"sale", ErpOrderStatusSale, OrderStatusInProgress},
		{"done", ErpOrderStatusDone, OrderStatusDelivered},
		{"cancel", ErpOrderStatusCancel, OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromErp(tt.in))
		})
	}
}

func TestStatusFromErp_TotalWithDefault(t *testing.T) {
	// Any unmapped state, including garbage, must map to "new" rather than
	// fail. Callers depend on this default-on-miss behavior.
	assert.Equal(t, OrderStatusNew, StatusFromErp(""))
	assert.Equal(t, OrderStatusNew, StatusFromErp("waiting_for_godot"))
	assert.Equal(t, OrderStatusNew, StatusFromErp("DRAFT"))
}

func TestStatusToErp(t *testing.T) {
	assert.Equal(t, ErpOrderStatusDraft, StatusToErp(OrderStatusNew))
	assert.Equal(t, ErpOrderStatusSale, StatusToErp(OrderStatusInProgress))
	assert.Equal(t, ErpOrderStatusDone, StatusToErp(OrderStatusShipped))
	assert.Equal(t, ErpOrderStatusDone, StatusToErp(OrderStatusDelivered))
	assert.Equal(t, ErpOrderStatusCancel, StatusToErp(OrderStatusCancelled))
	assert.Equal(t, ErpOrderStatusDraft, StatusToErp("unknown"))
}

func TestIdentityRecordMarkSynced(t *testing.T) {
	rec := NewIdentityRecord(42, "ord-1")
	assert.Nil(t, rec.SyncDate)

	rec.MarkSynced()

	assert.NotNil(t, rec.SyncDate)
	assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))
}

func TestEntityFamilyValidity(t *testing.T) {
	for _, family := range AllFamilies {
		assert.True(t, family.IsValid(), family.String())
	}
	assert.False(t, EntityFamily("vouchers").IsValid())
}

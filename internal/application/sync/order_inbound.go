package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// OrderInboundSynchronizer pushes ERP-side order status changes back to the
// storefront for every linked order. Statuses map through the fixed table;
// an ERP state outside it deliberately lands on "new".
type OrderInboundSynchronizer struct {
	erp    integration.ErpGateway
	store  integration.StorefrontGateway
	repo   integration.IdentityRepository
	logger *zap.Logger
}

// NewOrderInboundSynchronizer creates the inbound order synchronizer.
func NewOrderInboundSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *OrderInboundSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderInboundSynchronizer{
		erp:    erp,
		store:  store,
		repo:   repo,
		logger: logger.Named("order_inbound"),
	}
}

// Family implements Synchronizer.
func (s *OrderInboundSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyOrders
}

// Sync implements Synchronizer.
func (s *OrderInboundSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	linked, err := s.repo.GetAll(ctx, integration.FamilyOrders)
	if err != nil {
		return nil, fmt.Errorf("list linked orders: %w", err)
	}
	if len(linked) == 0 {
		return &Result{Family: integration.FamilyOrders, Duration: time.Since(started)}, nil
	}

	records, err := s.erp.Read(ctx, integration.ObjectOrder, []integration.Criterion{
		{Field: "id", Op: "in", Value: linked},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("read linked orders: %w", err)
	}

	updated := 0
	for _, record := range records {
		erpID := record.Int("id")
		link, err := s.repo.Get(ctx, integration.FamilyOrders, erpID)
		if err != nil {
			return nil, fmt.Errorf("load order link %d: %w", erpID, err)
		}

		status := integration.StatusFromErp(integration.ErpOrderStatus(record.Str("state")))
		if err := s.store.UpdateOrderStatus(ctx, link.LocalID, status); err != nil {
			return nil, fmt.Errorf("update order %s status: %w", link.LocalID, err)
		}
		updated++
	}

	result := &Result{
		Family:   integration.FamilyOrders,
		Fetched:  len(records),
		Upserted: updated,
		Duration: time.Since(started),
	}
	s.logger.Info("order statuses pushed to storefront",
		zap.Int("linked", len(linked)),
		zap.Int("updated", updated))
	return result, nil
}

var _ Synchronizer = (*OrderInboundSynchronizer)(nil)

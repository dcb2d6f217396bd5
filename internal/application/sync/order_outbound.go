package sync

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// OrderOutboundSynchronizer writes storefront orders into the ERP. Each
// order moves through a link state machine: NEW orders are created, LINKED
// orders are updated in place, and ORPHANED orders, whose ERP counterpart
// vanished, are unlinked and recreated. Every line's variant reference must
// resolve before the first ERP write; a single unresolved line aborts the
// whole order with nothing written.
type OrderOutboundSynchronizer struct {
	erp    integration.ErpGateway
	store  integration.StorefrontGateway
	repo   integration.IdentityRepository
	logger *zap.Logger
}

// NewOrderOutboundSynchronizer creates the outbound order synchronizer.
func NewOrderOutboundSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *OrderOutboundSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderOutboundSynchronizer{
		erp:    erp,
		store:  store,
		repo:   repo,
		logger: logger.Named("order_outbound"),
	}
}

// Family implements Synchronizer.
func (s *OrderOutboundSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyOrders
}

// Sync implements Synchronizer.
func (s *OrderOutboundSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}

	synced := 0
	var firstErr error
	for i := range orders {
		if err := s.syncOrder(ctx, &orders[i]); err != nil {
			s.logger.Error("order sync failed",
				zap.String("order", orders[i].LocalID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("order %s: %w", orders[i].LocalID, err)
			}
			continue
		}
		synced++
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyOrders, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyOrders,
		Fetched:  len(orders),
		Upserted: synced,
		Duration: time.Since(started),
	}
	s.logger.Info("orders synchronized outbound",
		zap.Int("pending", len(orders)),
		zap.Int("synced", synced))
	if firstErr != nil && synced == 0 && len(orders) > 0 {
		return result, firstErr
	}
	return result, nil
}

// syncOrder writes one order and its lines to the ERP.
func (s *OrderOutboundSynchronizer) syncOrder(ctx context.Context, order *integration.Order) error {
	state, err := s.resolveLinkState(ctx, order)
	if err != nil {
		return err
	}

	merchant, err := s.repo.GetByLocal(ctx, integration.FamilyUsers, order.MerchantLocalID)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			return &integration.UnresolvedReferenceError{
				Family:  integration.FamilyUsers,
				LocalID: order.MerchantLocalID,
			}
		}
		return fmt.Errorf("resolve merchant %s: %w", order.MerchantLocalID, err)
	}

	// Resolve every line before the first write so a bad line cannot leave a
	// half-written order behind.
	lineVariants, err := s.resolveLines(ctx, order)
	if err != nil {
		return err
	}

	billingID, err := s.ensureAddress(ctx, order.Billing, merchant.ErpID)
	if err != nil {
		return err
	}
	shippingID, err := s.ensureAddress(ctx, order.Shipping, merchant.ErpID)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"partner_id":       merchant.ErpID,
		"client_order_ref": order.Reference,
		"note":             order.Note,
	}
	if billingID != 0 {
		payload["partner_invoice_id"] = billingID
	}
	if shippingID != 0 {
		payload["partner_shipping_id"] = shippingID
	}
	if order.DeliveryOptionID != nil {
		payload["carrier_id"] = *order.DeliveryOptionID
	}
	if order.PickupLocationID != nil {
		payload["warehouse_id"] = *order.PickupLocationID
	}

	var orderID *int64
	if state == integration.LinkStateLinked {
		orderID = order.ErpID
	}
	erpID, err := s.erp.Write(ctx, integration.ObjectOrder, orderID, payload)
	if err != nil {
		return fmt.Errorf("write order: %w", err)
	}

	lineIDs, err := s.writeLines(ctx, order, erpID, lineVariants)
	if err != nil {
		return err
	}

	if order.CancelRequested && order.ErpStatus != integration.ErpOrderStatusCancel {
		if _, err := s.erp.Write(ctx, integration.ObjectOrder, &erpID, map[string]any{"state": string(integration.ErpOrderStatusCancel)}); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		s.logger.Info("forced order cancellation",
			zap.String("order", order.LocalID),
			zap.Int64("erp_id", erpID))
	}

	if order.InvoiceData != "" {
		if err := s.attachInvoice(ctx, order, erpID); err != nil {
			return err
		}
	}

	record := integration.NewIdentityRecord(erpID, order.LocalID)
	record.MarkSynced()
	if err := s.repo.Insert(ctx, integration.FamilyOrders, record); err != nil {
		return fmt.Errorf("link order: %w", err)
	}

	if err := s.store.MarkOrderSynced(ctx, order.LocalID, integration.OrderLink{
		ErpID:             erpID,
		LineIDs:           lineIDs,
		BillingAddressID:  billingID,
		ShippingAddressID: shippingID,
	}); err != nil {
		return fmt.Errorf("mark order synced: %w", err)
	}
	return nil
}

// resolveLinkState checks whether a claimed ERP counterpart still exists.
// An orphaned link is removed and the order treated as new.
func (s *OrderOutboundSynchronizer) resolveLinkState(ctx context.Context, order *integration.Order) (integration.LinkState, error) {
	if order.ErpID == nil {
		return integration.LinkStateNew, nil
	}

	records, err := s.erp.Read(ctx, integration.ObjectOrder, []integration.Criterion{
		{Field: "id", Op: "=", Value: *order.ErpID},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("read linked order %d: %w", *order.ErpID, err)
	}
	if len(records) == 0 {
		s.logger.Warn("linked order vanished from ERP, recreating",
			zap.String("order", order.LocalID),
			zap.Int64("erp_id", *order.ErpID))
		if err := s.repo.Remove(ctx, integration.FamilyOrders, *order.ErpID); err != nil {
			return "", fmt.Errorf("unlink orphaned order: %w", err)
		}
		order.ErpID = nil
		return integration.LinkStateOrphaned, nil
	}

	order.ErpStatus = integration.ErpOrderStatus(records[0].Str("state"))
	return integration.LinkStateLinked, nil
}

// resolveLines maps every line's storefront variant id to its ERP id.
func (s *OrderOutboundSynchronizer) resolveLines(ctx context.Context, order *integration.Order) (map[string]int64, error) {
	variants := make(map[string]int64, len(order.Lines))
	for _, line := range order.Lines {
		record, err := s.repo.GetByLocal(ctx, integration.FamilyVariants, line.VariantLocalID)
		if err != nil {
			if errors.Is(err, integration.ErrIdentityNotFound) {
				return nil, &integration.UnresolvedReferenceError{
					Family:  integration.FamilyVariants,
					LocalID: line.VariantLocalID,
				}
			}
			return nil, fmt.Errorf("resolve line variant %s: %w", line.VariantLocalID, err)
		}
		variants[line.VariantLocalID] = record.ErpID
	}
	return variants, nil
}

// ensureAddress resolves the address's ERP partner id, creating the record
// only when neither the order nor the identity repository knows a
// counterpart. Returns 0 when no address was given.
func (s *OrderOutboundSynchronizer) ensureAddress(ctx context.Context, address *integration.Address, merchantErpID int64) (int64, error) {
	if address == nil {
		return 0, nil
	}
	if address.ErpID != 0 {
		return address.ErpID, nil
	}
	if address.LocalID != "" {
		record, err := s.repo.GetByLocal(ctx, integration.FamilyAddresses, address.LocalID)
		if err == nil {
			address.ErpID = record.ErpID
			return record.ErpID, nil
		}
		if !errors.Is(err, integration.ErrIdentityNotFound) {
			return 0, fmt.Errorf("resolve %s address %s: %w", address.Type, address.LocalID, err)
		}
	}

	payload := map[string]any{
		"parent_id": merchantErpID,
		"type":      string(address.Type),
		"name":      address.Name,
		"street":    address.Street,
		"street2":   address.Street2,
		"city":      address.City,
		"zip":       address.Zip,
		"phone":     address.Phone,
		"email":     address.Email,
	}
	erpID, err := s.erp.Write(ctx, integration.ObjectPartner, nil, payload)
	if err != nil {
		return 0, fmt.Errorf("create %s address: %w", address.Type, err)
	}
	address.ErpID = erpID

	localID := address.LocalID
	if localID == "" {
		localID = strconv.FormatInt(erpID, 10)
	}
	record := integration.NewIdentityRecord(erpID, localID)
	record.MarkSynced()
	if err := s.repo.Insert(ctx, integration.FamilyAddresses, record); err != nil {
		return 0, fmt.Errorf("link address: %w", err)
	}
	return erpID, nil
}

// writeLines upserts the order's lines by their remote id and returns the
// local-to-ERP line id mapping.
func (s *OrderOutboundSynchronizer) writeLines(ctx context.Context, order *integration.Order, orderErpID int64, variants map[string]int64) (map[string]int64, error) {
	lineIDs := make(map[string]int64, len(order.Lines))
	for _, line := range order.Lines {
		payload := map[string]any{
			"order_id":        orderErpID,
			"product_id":      variants[line.VariantLocalID],
			"product_uom_qty": line.Quantity.InexactFloat64(),
			"price_unit":      line.UnitPrice.InexactFloat64(),
		}
		erpLineID, err := s.erp.Write(ctx, integration.ObjectOrderLine, line.ErpID, payload)
		if err != nil {
			return nil, fmt.Errorf("write order line %s: %w", line.LocalID, err)
		}
		lineIDs[line.LocalID] = erpLineID

		record := integration.NewIdentityRecord(erpLineID, line.LocalID)
		record.MarkSynced()
		if err := s.repo.Insert(ctx, integration.FamilyBasketLines, record); err != nil {
			return nil, fmt.Errorf("link order line: %w", err)
		}
	}
	return lineIDs, nil
}

// attachInvoice stores the order's invoice file on the ERP record. The
// payload is decoded first so a corrupt upload is caught before transfer.
func (s *OrderOutboundSynchronizer) attachInvoice(ctx context.Context, order *integration.Order, orderErpID int64) error {
	if _, err := base64.StdEncoding.DecodeString(order.InvoiceData); err != nil {
		return fmt.Errorf("invoice payload for %s is not valid base64: %w", order.LocalID, err)
	}

	_, err := s.erp.Write(ctx, integration.ObjectAttachment, nil, map[string]any{
		"name":      order.InvoiceFilename,
		"res_model": integration.ObjectOrder,
		"res_id":    orderErpID,
		"datas":     order.InvoiceData,
	})
	if err != nil {
		return fmt.Errorf("attach invoice: %w", err)
	}
	return nil
}

var _ Synchronizer = (*OrderOutboundSynchronizer)(nil)

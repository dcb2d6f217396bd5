package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// DeliverySynchronizer mirrors delivery carriers and warehouse pickup points
// onto the storefront. Both sets are small and always fetched in full so the
// deletion pass can run every time.
type DeliverySynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewDeliverySynchronizer creates the delivery synchronizer.
func NewDeliverySynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *DeliverySynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliverySynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyDeliveryOptions,
			I18nFields:     []string{"name"},
			MaxFieldLength: 127,
		}, logger),
		logger: logger.Named("delivery_sync"),
	}
}

// Family implements Synchronizer.
func (s *DeliverySynchronizer) Family() integration.EntityFamily {
	return integration.FamilyDeliveryOptions
}

// Sync implements Synchronizer.
func (s *DeliverySynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	carriers, err := s.syncCarriers(ctx)
	if err != nil {
		return nil, err
	}
	pickups, err := s.syncPickupLocations(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyDeliveryOptions, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}
	if err := s.repo.SetLastSync(ctx, integration.FamilyPickupLocations, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyDeliveryOptions,
		Fetched:  carriers.Fetched + pickups.Fetched,
		Upserted: carriers.Upserted + pickups.Upserted,
		NewLinks: carriers.NewLinks + pickups.NewLinks,
		Removed:  carriers.Removed + pickups.Removed,
		Duration: time.Since(started),
	}
	s.logger.Info("delivery options synchronized",
		zap.Int("carriers", carriers.Fetched),
		zap.Int("pickup_locations", pickups.Fetched),
		zap.Int("new_links", result.NewLinks))
	return result, nil
}

// deliveryOptionFromRecord maps a raw carrier record into its typed entity.
func deliveryOptionFromRecord(record integration.RawRecord) integration.DeliveryOption {
	return integration.DeliveryOption{
		ErpID: record.Int("id"),
		Names: integration.ExtractTranslations(record, "name", integration.CodeTagPattern),
		Price: record.Decimal("fixed_price"),
	}
}

// pickupLocationFromRecord maps a raw warehouse record and its partner's
// address record into a typed pickup location. A nil address leaves the
// location's address fields empty.
func pickupLocationFromRecord(record, address integration.RawRecord) integration.PickupLocation {
	location := integration.PickupLocation{
		ErpID: record.Int("id"),
		Names: integration.ExtractTranslations(record, "name", nil),
	}
	if address != nil {
		location.Street = address.Str("street")
		location.City = address.Str("city")
		location.Zip = address.Str("zip")
		location.Country = address.Str("country_code")
	}
	return location
}

func (s *DeliverySynchronizer) syncCarriers(ctx context.Context) (*Result, error) {
	records, err := s.erp.Read(ctx, integration.ObjectDeliveryOption, nil, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read delivery carriers: %w", err)
	}
	if err := s.validator.Validate(records); err != nil {
		return nil, err
	}

	payloads := make([]integration.DeliveryOptionUpsert, 0, len(records))
	links := make([]link, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		option := deliveryOptionFromRecord(record)
		payloads = append(payloads, integration.DeliveryOptionUpsert{
			ExternalID: option.ErpID,
			Names:      option.Names,
			Price:      option.Price,
		})
		links = append(links, link{ErpID: option.ErpID, LocalID: strconv.FormatInt(option.ErpID, 10)})
		ids = append(ids, option.ErpID)
	}

	if err := s.store.UpsertDeliveryOptions(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert delivery options: %w", err)
	}
	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyDeliveryOptions, links)
	if err != nil {
		return nil, err
	}
	removed, err := pruneStale(ctx, s.repo, s.store, integration.FamilyDeliveryOptions, ids, s.logger)
	if err != nil {
		return nil, err
	}

	return &Result{Fetched: len(records), Upserted: len(payloads), NewLinks: newLinks, Removed: removed}, nil
}

func (s *DeliverySynchronizer) syncPickupLocations(ctx context.Context) (*Result, error) {
	records, err := s.erp.Read(ctx, integration.ObjectWarehouse, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("read warehouses: %w", err)
	}

	// The warehouse's address lives on its partner record.
	partnerIDs := make([]int64, 0, len(records))
	for _, record := range records {
		if id := record.Ref("partner_id"); id != 0 {
			partnerIDs = append(partnerIDs, id)
		}
	}
	addresses := make(map[int64]integration.RawRecord, len(partnerIDs))
	if len(partnerIDs) > 0 {
		partnerRecords, err := s.erp.Read(ctx, integration.ObjectPartner, []integration.Criterion{
			{Field: "id", Op: "in", Value: partnerIDs},
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("read warehouse addresses: %w", err)
		}
		for _, record := range partnerRecords {
			addresses[record.Int("id")] = record
		}
	}

	payloads := make([]integration.PickupLocationUpsert, 0, len(records))
	links := make([]link, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		location := pickupLocationFromRecord(record, addresses[record.Ref("partner_id")])
		payloads = append(payloads, integration.PickupLocationUpsert{
			ExternalID: location.ErpID,
			Names:      location.Names,
			Street:     location.Street,
			City:       location.City,
			Zip:        location.Zip,
			Country:    location.Country,
		})
		links = append(links, link{ErpID: location.ErpID, LocalID: strconv.FormatInt(location.ErpID, 10)})
		ids = append(ids, location.ErpID)
	}

	if err := s.store.UpsertPickupLocations(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert pickup locations: %w", err)
	}
	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyPickupLocations, links)
	if err != nil {
		return nil, err
	}
	removed, err := pruneStale(ctx, s.repo, s.store, integration.FamilyPickupLocations, ids, s.logger)
	if err != nil {
		return nil, err
	}

	return &Result{Fetched: len(records), Upserted: len(payloads), NewLinks: newLinks, Removed: removed}, nil
}

var _ Synchronizer = (*DeliverySynchronizer)(nil)

package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// MerchantSynchronizer mirrors ERP customer companies and their invoice and
// delivery addresses onto the storefront. Merchants are keyed by email, the
// storefront's login identifier; addresses ride along nested under their
// merchant and are tracked as their own identity family.
type MerchantSynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewMerchantSynchronizer creates the merchant synchronizer.
func NewMerchantSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *MerchantSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MerchantSynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyUsers,
			I18nFields:     []string{"email"},
			MaxFieldLength: 150,
		}, logger),
		logger: logger.Named("merchant_sync"),
	}
}

// Family implements Synchronizer.
func (s *MerchantSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyUsers
}

// merchantFromRecord maps a raw partner record into its typed entity. The
// email doubles as the storefront-side id.
func merchantFromRecord(record integration.RawRecord) integration.Merchant {
	return integration.Merchant{
		ErpID:     record.Int("id"),
		LocalID:   record.Str("email"),
		Name:      record.Str("name"),
		Email:     record.Str("email"),
		Phone:     record.Str("phone"),
		Language:  integration.LanguageFromLocale(record.Str("lang")),
		City:      record.Str("city"),
		Website:   record.Str("website"),
		IsCompany: record.Bool("is_company"),
	}
}

// addressFromRecord maps a raw child partner record into its typed entity.
func addressFromRecord(record integration.RawRecord) integration.Address {
	erpID := record.Int("id")
	return integration.Address{
		ErpID:      erpID,
		LocalID:    strconv.FormatInt(erpID, 10),
		MerchantID: record.Ref("parent_id"),
		Type:       integration.AddressType(record.Str("type")),
		Name:       record.Str("name"),
		Street:     record.Str("street"),
		Street2:    record.Str("street2"),
		City:       record.Str("city"),
		Zip:        record.Str("zip"),
		Country:    record.Str("country_code"),
		Phone:      record.Str("phone"),
		Email:      record.Str("email"),
	}
}

// Sync implements Synchronizer.
func (s *MerchantSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	base := []integration.Criterion{
		{Field: "customer_rank", Op: ">", Value: 0},
		{Field: "is_company", Op: "=", Value: true},
	}
	criteria, incremental, err := incrementalCriteria(ctx, s.repo, integration.FamilyUsers, base)
	if err != nil {
		return nil, err
	}

	records, err := s.erp.Read(ctx, integration.ObjectPartner, criteria, nil)
	if err != nil {
		return nil, fmt.Errorf("read merchants: %w", err)
	}
	if err := s.validator.Validate(records); err != nil {
		return nil, err
	}

	payloads := make([]integration.MerchantUpsert, 0, len(records))
	links := make([]link, 0, len(records))
	merchantIDs := make([]int64, 0, len(records))
	for _, record := range records {
		merchant := merchantFromRecord(record)
		payloads = append(payloads, integration.MerchantUpsert{
			ExternalID: merchant.ErpID,
			Name:       merchant.Name,
			Email:      merchant.Email,
			Phone:      merchant.Phone,
			Language:   merchant.Language,
			City:       merchant.City,
			Website:    merchant.Website,
		})
		links = append(links, link{ErpID: merchant.ErpID, LocalID: merchant.LocalID})
		merchantIDs = append(merchantIDs, merchant.ErpID)
	}
	links = dedupeLinks(links, s.logger)

	addressLinks, err := s.attachAddresses(ctx, payloads, merchantIDs)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertMerchants(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert merchants: %w", err)
	}

	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyUsers, links)
	if err != nil {
		return nil, err
	}
	if _, err := persistLinks(ctx, s.repo, integration.FamilyAddresses, addressLinks); err != nil {
		return nil, err
	}

	removed := 0
	if !incremental {
		removed, err = pruneStale(ctx, s.repo, s.store, integration.FamilyUsers, merchantIDs, s.logger)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyUsers, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyUsers,
		Fetched:  len(records),
		Upserted: len(payloads),
		NewLinks: newLinks,
		Removed:  removed,
		Duration: time.Since(started),
	}
	s.logger.Info("merchants synchronized",
		zap.Int("fetched", result.Fetched),
		zap.Int("new_links", result.NewLinks))
	return result, nil
}

// attachAddresses fetches the invoice and delivery child contacts of the
// batch's merchants and nests them under their merchant payload.
func (s *MerchantSynchronizer) attachAddresses(ctx context.Context, merchants []integration.MerchantUpsert, merchantIDs []int64) ([]link, error) {
	if len(merchantIDs) == 0 {
		return nil, nil
	}

	criteria := []integration.Criterion{
		{Field: "parent_id", Op: "in", Value: merchantIDs},
		{Field: "type", Op: "in", Value: []string{string(integration.AddressTypeBilling), string(integration.AddressTypeShipping)}},
	}
	records, err := s.erp.Read(ctx, integration.ObjectPartner, criteria, nil)
	if err != nil {
		return nil, fmt.Errorf("read merchant addresses: %w", err)
	}

	byMerchant := make(map[int64]int, len(merchants))
	for i, m := range merchants {
		byMerchant[m.ExternalID] = i
	}

	links := make([]link, 0, len(records))
	for _, record := range records {
		address := addressFromRecord(record)
		idx, ok := byMerchant[address.MerchantID]
		if !ok {
			continue
		}
		merchants[idx].Addresses = append(merchants[idx].Addresses, integration.AddressUpsert{
			ExternalID: address.ErpID,
			Type:       address.Type,
			Name:       address.Name,
			Street:     address.Street,
			Street2:    address.Street2,
			City:       address.City,
			Zip:        address.Zip,
			Country:    address.Country,
			Phone:      address.Phone,
			Email:      address.Email,
		})
		links = append(links, link{ErpID: address.ErpID, LocalID: address.LocalID})
	}
	return links, nil
}

var _ Synchronizer = (*MerchantSynchronizer)(nil)

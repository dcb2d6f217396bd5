package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// VariantSynchronizer mirrors sellable product variants onto the storefront.
// Variants are keyed by SKU; a variant without one is rejected by the
// validator before any write. Product references resolve through the
// identity repository written by the product pass.
type VariantSynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewVariantSynchronizer creates the variant synchronizer.
func NewVariantSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *VariantSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantSynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyVariants,
			I18nFields:     []string{"name", "default_code"},
			MaxFieldLength: 191,
			RefCodeField:   "default_code",
		}, logger),
		logger: logger.Named("variant_sync"),
	}
}

// Family implements Synchronizer.
func (s *VariantSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyVariants
}

// Sync implements Synchronizer.
func (s *VariantSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	base := []integration.Criterion{{Field: "sale_ok", Op: "=", Value: true}}
	criteria, incremental, err := incrementalCriteria(ctx, s.repo, integration.FamilyVariants, base)
	if err != nil {
		return nil, err
	}

	records, err := s.erp.Read(ctx, integration.ObjectVariant, criteria, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	if err := s.validator.Validate(records); err != nil {
		return nil, err
	}

	payloads := make([]integration.VariantUpsert, 0, len(records))
	links := make([]link, 0, len(records))
	for _, record := range records {
		variant := variantFromRecord(record)

		productCode, err := s.resolveProduct(ctx, variant)
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, integration.VariantUpsert{
			ExternalID:        variant.ErpID,
			ProductCode:       productCode,
			SKU:               variant.SKU,
			Barcode:           variant.Barcode,
			Names:             variant.Names,
			Price:             variant.Price,
			AttributeValueIDs: variant.AttributeValueIDs,
		})
		links = append(links, link{ErpID: variant.ErpID, LocalID: variant.SKU})
	}

	links = dedupeLinks(links, s.logger)
	if len(links) < len(payloads) {
		keep := make(map[int64]struct{}, len(links))
		for _, l := range links {
			keep[l.ErpID] = struct{}{}
		}
		kept := payloads[:0]
		for _, p := range payloads {
			if _, ok := keep[p.ExternalID]; ok {
				kept = append(kept, p)
			}
		}
		payloads = kept
	}

	if err := s.store.UpsertVariants(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert variants: %w", err)
	}

	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyVariants, links)
	if err != nil {
		return nil, err
	}

	removed := 0
	if !incremental {
		current := make([]int64, 0, len(links))
		for _, l := range links {
			current = append(current, l.ErpID)
		}
		removed, err = pruneStale(ctx, s.repo, s.store, integration.FamilyVariants, current, s.logger)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyVariants, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyVariants,
		Fetched:  len(records),
		Upserted: len(payloads),
		NewLinks: newLinks,
		Removed:  removed,
		Duration: time.Since(started),
	}
	s.logger.Info("variants synchronized",
		zap.Int("fetched", result.Fetched),
		zap.Int("new_links", result.NewLinks))
	return result, nil
}

// variantFromRecord maps a raw variant record into its typed entity.
func variantFromRecord(record integration.RawRecord) integration.ProductVariant {
	return integration.ProductVariant{
		ErpID:             record.Int("id"),
		ProductID:         record.Ref("product_tmpl_id"),
		SKU:               record.Str("default_code"),
		Barcode:           record.Str("barcode"),
		Names:             integration.ExtractTranslations(record, "name", integration.CodeTagPattern),
		Price:             record.Decimal("lst_price"),
		AttributeValueIDs: record.Refs("attribute_value_ids"),
	}
}

// resolveProduct returns the storefront code of the variant's product
// template.
func (s *VariantSynchronizer) resolveProduct(ctx context.Context, variant integration.ProductVariant) (string, error) {
	if variant.ProductID == 0 {
		return "", &integration.UnresolvedReferenceError{
			Family:  integration.FamilyProducts,
			LocalID: strconv.FormatInt(variant.ErpID, 10),
		}
	}
	product, err := s.repo.Get(ctx, integration.FamilyProducts, variant.ProductID)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			return "", &integration.UnresolvedReferenceError{
				Family:  integration.FamilyProducts,
				LocalID: strconv.FormatInt(variant.ProductID, 10),
			}
		}
		return "", fmt.Errorf("resolve variant product %d: %w", variant.ProductID, err)
	}
	return product.LocalID, nil
}

var _ Synchronizer = (*VariantSynchronizer)(nil)

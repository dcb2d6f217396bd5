package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// ProductSynchronizer mirrors sellable product templates onto the
// storefront. Product codes come from the ERP's internal reference when set
// and fall back to a slug of the English name; category references must
// resolve through the identity repository.
type ProductSynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewProductSynchronizer creates the product synchronizer.
func NewProductSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *ProductSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductSynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyProducts,
			I18nFields:     []string{"name"},
			MaxFieldLength: 150,
			RefCodeField:   "default_code",
		}, logger),
		logger: logger.Named("product_sync"),
	}
}

// Family implements Synchronizer.
func (s *ProductSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyProducts
}

// Sync implements Synchronizer.
func (s *ProductSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	base := []integration.Criterion{{Field: "sale_ok", Op: "=", Value: true}}
	criteria, incremental, err := incrementalCriteria(ctx, s.repo, integration.FamilyProducts, base)
	if err != nil {
		return nil, err
	}

	records, err := s.erp.Read(ctx, integration.ObjectProduct, criteria, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	if err := s.validator.Validate(records); err != nil {
		return nil, err
	}

	payloads := make([]integration.ProductUpsert, 0, len(records))
	links := make([]link, 0, len(records))
	for _, record := range records {
		product := productFromRecord(record)

		categoryCode, err := s.resolveCategory(ctx, product.CategoryID)
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, integration.ProductUpsert{
			ExternalID:   product.ErpID,
			Code:         product.Code,
			CategoryCode: categoryCode,
			Names:        product.Names,
		})
		links = append(links, link{ErpID: product.ErpID, LocalID: product.Code})
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

	if err := s.store.UpsertProducts(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}

	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyProducts, links)
	if err != nil {
		return nil, err
	}

	removed := 0
	if !incremental {
		current := make([]int64, 0, len(links))
		for _, l := range links {
			current = append(current, l.ErpID)
		}
		removed, err = pruneStale(ctx, s.repo, s.store, integration.FamilyProducts, current, s.logger)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyProducts, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyProducts,
		Fetched:  len(records),
		Upserted: len(payloads),
		NewLinks: newLinks,
		Removed:  removed,
		Duration: time.Since(started),
	}
	s.logger.Info("products synchronized",
		zap.Int("fetched", result.Fetched),
		zap.Int("new_links", result.NewLinks))
	return result, nil
}

// productFromRecord maps a raw product template record into its typed
// entity. The code falls back to a slug of the English name when the ERP
// carries no internal reference.
func productFromRecord(record integration.RawRecord) integration.Product {
	names := integration.ExtractTranslations(record, "name", integration.CodeTagPattern)
	code := record.Str("default_code")
	if code == "" {
		code = slug.Make(names[integration.LangEN])
	}
	var categoryID *int64
	if id := record.Ref("categ_id"); id != 0 {
		categoryID = &id
	}
	return integration.Product{
		ErpID:      record.Int("id"),
		CategoryID: categoryID,
		Names:      names,
		Code:       code,
	}
}

// resolveCategory returns the storefront code for a product's category,
// empty when the product is uncategorized.
func (s *ProductSynchronizer) resolveCategory(ctx context.Context, categoryID *int64) (string, error) {
	if categoryID == nil {
		return "", nil
	}
	category, err := s.repo.Get(ctx, integration.FamilyCategories, *categoryID)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			return "", &integration.UnresolvedReferenceError{
				Family:  integration.FamilyCategories,
				LocalID: strconv.FormatInt(*categoryID, 10),
			}
		}
		return "", fmt.Errorf("resolve product category %d: %w", *categoryID, err)
	}
	return category.LocalID, nil
}

var _ Synchronizer = (*ProductSynchronizer)(nil)

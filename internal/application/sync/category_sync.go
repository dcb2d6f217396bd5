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

// CategorySynchronizer mirrors the ERP's category tree onto the storefront.
// Storefront categories are keyed by a slugified code derived from the
// English name; parent references resolve through the batch first and the
// identity repository second, and an unresolvable parent aborts the run.
type CategorySynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewCategorySynchronizer creates the category synchronizer.
func NewCategorySynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *CategorySynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategorySynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyCategories,
			I18nFields:     []string{"name"},
			MaxFieldLength: 64,
		}, logger),
		logger: logger.Named("category_sync"),
	}
}

// Family implements Synchronizer.
func (s *CategorySynchronizer) Family() integration.EntityFamily {
	return integration.FamilyCategories
}

// Sync implements Synchronizer.
func (s *CategorySynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	criteria, incremental, err := incrementalCriteria(ctx, s.repo, integration.FamilyCategories, nil)
	if err != nil {
		return nil, err
	}

	records, err := s.erp.Read(ctx, integration.ObjectCategory, criteria, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	if err := s.validator.Validate(records); err != nil {
		return nil, err
	}

	// First pass assigns every category in the batch its code so children can
	// reference parents fetched in the same run.
	categories := make([]integration.Category, 0, len(records))
	codes := make(map[int64]string, len(records))
	for _, record := range records {
		category := categoryFromRecord(record)
		categories = append(categories, category)
		codes[category.ErpID] = category.Code
	}

	payloads := make([]integration.CategoryUpsert, 0, len(categories))
	links := make([]link, 0, len(categories))
	for _, category := range categories {
		parentCode, err := s.resolveParent(ctx, category.ParentID, codes)
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, integration.CategoryUpsert{
			ExternalID: category.ErpID,
			Code:       category.Code,
			ParentCode: parentCode,
			Names:      category.Names,
		})
		links = append(links, link{ErpID: category.ErpID, LocalID: category.Code})
	}

	links = dedupeLinks(links, s.logger)
	if len(links) < len(payloads) {
		payloads = filterCategoryPayloads(payloads, links)
	}

	if err := s.store.UpsertCategories(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert categories: %w", err)
	}

	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyCategories, links)
	if err != nil {
		return nil, err
	}

	removed := 0
	if !incremental {
		current := make([]int64, 0, len(links))
		for _, l := range links {
			current = append(current, l.ErpID)
		}
		removed, err = pruneStale(ctx, s.repo, s.store, integration.FamilyCategories, current, s.logger)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyCategories, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyCategories,
		Fetched:  len(records),
		Upserted: len(payloads),
		NewLinks: newLinks,
		Removed:  removed,
		Duration: time.Since(started),
	}
	s.logger.Info("categories synchronized",
		zap.Int("fetched", result.Fetched),
		zap.Int("new_links", result.NewLinks),
		zap.Int("removed", result.Removed))
	return result, nil
}

// categoryFromRecord maps a raw category record into its typed entity.
func categoryFromRecord(record integration.RawRecord) integration.Category {
	names := integration.ExtractTranslations(record, "name", integration.CodeTagPattern)
	var parentID *int64
	if id := record.Ref("parent_id"); id != 0 {
		parentID = &id
	}
	return integration.Category{
		ErpID:    record.Int("id"),
		ParentID: parentID,
		Names:    names,
		Code:     slug.Make(names[integration.LangEN]),
	}
}

// resolveParent returns the storefront code of a category's parent, empty for
// root categories. Parents outside the batch must already be linked.
func (s *CategorySynchronizer) resolveParent(ctx context.Context, parentID *int64, codes map[int64]string) (string, error) {
	if parentID == nil {
		return "", nil
	}
	if code, ok := codes[*parentID]; ok {
		return code, nil
	}
	parent, err := s.repo.Get(ctx, integration.FamilyCategories, *parentID)
	if err != nil {
		if errors.Is(err, integration.ErrIdentityNotFound) {
			return "", &integration.UnresolvedReferenceError{
				Family:  integration.FamilyCategories,
				LocalID: strconv.FormatInt(*parentID, 10),
			}
		}
		return "", fmt.Errorf("resolve category parent %d: %w", *parentID, err)
	}
	return parent.LocalID, nil
}

// filterCategoryPayloads keeps only the payloads whose link survived
// deduplication.
func filterCategoryPayloads(payloads []integration.CategoryUpsert, links []link) []integration.CategoryUpsert {
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
	return kept
}

var _ Synchronizer = (*CategorySynchronizer)(nil)

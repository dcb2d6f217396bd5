package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// AttributeSynchronizer mirrors product attributes and their values onto the
// storefront. Attributes and values are always fetched in full: the sets are
// small, and a value modified in isolation still needs its parent attribute
// in the same payload. Values travel as part of the attribute hierarchy, so
// both batches validate under the attribute family and a failure in either
// reads "Attributes has errors".
type AttributeSynchronizer struct {
	erp       integration.ErpGateway
	store     integration.StorefrontGateway
	repo      integration.IdentityRepository
	validator *integration.Validator
	logger    *zap.Logger
}

// NewAttributeSynchronizer creates the attribute synchronizer.
func NewAttributeSynchronizer(erp integration.ErpGateway, store integration.StorefrontGateway, repo integration.IdentityRepository, logger *zap.Logger) *AttributeSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttributeSynchronizer{
		erp:   erp,
		store: store,
		repo:  repo,
		validator: integration.NewValidator(integration.ValidatorConfig{
			Family:         integration.FamilyAttributes,
			I18nFields:     []string{"name"},
			MaxFieldLength: 64,
		}, logger),
		logger: logger.Named("attribute_sync"),
	}
}

// attributeFromRecord maps a raw attribute record into its typed entity.
func attributeFromRecord(record integration.RawRecord) integration.Attribute {
	names := integration.ExtractTranslations(record, "name", integration.CodeTagPattern)
	return integration.Attribute{
		ErpID: record.Int("id"),
		Names: names,
		Code:  slug.Make(names[integration.LangEN]),
	}
}

// attributeValueFromRecord maps a raw attribute value record into its typed
// entity.
func attributeValueFromRecord(record integration.RawRecord) integration.AttributeValue {
	return integration.AttributeValue{
		ErpID:       record.Int("id"),
		AttributeID: record.Ref("attribute_id"),
		Names:       integration.ExtractTranslations(record, "name", integration.CodeTagPattern),
	}
}

// Family implements Synchronizer.
func (s *AttributeSynchronizer) Family() integration.EntityFamily {
	return integration.FamilyAttributes
}

// Sync implements Synchronizer.
func (s *AttributeSynchronizer) Sync(ctx context.Context) (*Result, error) {
	started := time.Now()

	attrRecords, err := s.erp.Read(ctx, integration.ObjectAttribute, nil, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read attributes: %w", err)
	}
	if err := s.validator.Validate(attrRecords); err != nil {
		return nil, err
	}

	valueRecords, err := s.erp.Read(ctx, integration.ObjectAttributeValue, nil, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("read attribute values: %w", err)
	}
	if err := s.validator.Validate(valueRecords); err != nil {
		return nil, err
	}

	attributes := make([]integration.Attribute, 0, len(attrRecords))
	attrLinks := make([]link, 0, len(attrRecords))
	for _, record := range attrRecords {
		attribute := attributeFromRecord(record)
		attributes = append(attributes, attribute)
		attrLinks = append(attrLinks, link{ErpID: attribute.ErpID, LocalID: attribute.Code})
	}
	attrLinks = dedupeLinks(attrLinks, s.logger)

	// Attributes dropped by deduplication must not be upserted either, or a
	// duplicate-coded attribute would silently overwrite the kept one.
	kept := make(map[int64]struct{}, len(attrLinks))
	for _, l := range attrLinks {
		kept[l.ErpID] = struct{}{}
	}

	payloads := make([]integration.AttributeUpsert, 0, len(attrLinks))
	index := make(map[int64]int, len(attrLinks))
	attrIDs := make([]int64, 0, len(attrLinks))
	for _, attribute := range attributes {
		if _, ok := kept[attribute.ErpID]; !ok {
			continue
		}
		index[attribute.ErpID] = len(payloads)
		payloads = append(payloads, integration.AttributeUpsert{
			ExternalID: attribute.ErpID,
			Code:       attribute.Code,
			Names:      attribute.Names,
		})
		attrIDs = append(attrIDs, attribute.ErpID)
	}

	dropped := make(map[int64]struct{}, len(attributes)-len(payloads))
	for _, attribute := range attributes {
		if _, ok := kept[attribute.ErpID]; !ok {
			dropped[attribute.ErpID] = struct{}{}
		}
	}

	valueLinks := make([]link, 0, len(valueRecords))
	valueIDs := make([]int64, 0, len(valueRecords))
	for _, record := range valueRecords {
		value := attributeValueFromRecord(record)
		if _, wasDropped := dropped[value.AttributeID]; wasDropped {
			// The parent lost its code collision; its values go with it.
			s.logger.Warn("skipping value of deduplicated attribute",
				zap.Int64("attribute_id", value.AttributeID),
				zap.Int64("value_id", value.ErpID))
			continue
		}
		idx, ok := index[value.AttributeID]
		if !ok {
			// A value without a live parent attribute cannot be represented
			// on the storefront.
			return nil, &integration.UnresolvedReferenceError{
				Family:  integration.FamilyAttributes,
				LocalID: strconv.FormatInt(value.AttributeID, 10),
			}
		}
		payloads[idx].Values = append(payloads[idx].Values, integration.AttributeValueUpsert{
			ExternalID: value.ErpID,
			Names:      value.Names,
		})
		valueLinks = append(valueLinks, link{ErpID: value.ErpID, LocalID: strconv.FormatInt(value.ErpID, 10)})
		valueIDs = append(valueIDs, value.ErpID)
	}

	if err := s.store.UpsertAttributes(ctx, payloads); err != nil {
		return nil, fmt.Errorf("upsert attributes: %w", err)
	}

	newLinks, err := persistLinks(ctx, s.repo, integration.FamilyAttributes, attrLinks)
	if err != nil {
		return nil, err
	}
	valueNew, err := persistLinks(ctx, s.repo, integration.FamilyAttributeValues, valueLinks)
	if err != nil {
		return nil, err
	}

	removed, err := pruneStale(ctx, s.repo, s.store, integration.FamilyAttributes, attrIDs, s.logger)
	if err != nil {
		return nil, err
	}
	// Values are pruned from the repository only; the storefront drops them
	// together with their attribute payload.
	if _, err := pruneRepositoryOnly(ctx, s.repo, integration.FamilyAttributeValues, valueIDs, s.logger); err != nil {
		return nil, err
	}

	if err := s.repo.SetLastSync(ctx, integration.FamilyAttributes, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}
	if err := s.repo.SetLastSync(ctx, integration.FamilyAttributeValues, started.UTC()); err != nil {
		return nil, fmt.Errorf("store last sync: %w", err)
	}

	result := &Result{
		Family:   integration.FamilyAttributes,
		Fetched:  len(attrRecords) + len(valueRecords),
		Upserted: len(payloads),
		NewLinks: newLinks + valueNew,
		Removed:  removed,
		Duration: time.Since(started),
	}
	s.logger.Info("attributes synchronized",
		zap.Int("attributes", len(attrRecords)),
		zap.Int("values", len(valueRecords)),
		zap.Int("new_links", result.NewLinks))
	return result, nil
}

// pruneRepositoryOnly removes stale identity links without touching the
// storefront, for families whose entities are deleted through their parent.
func pruneRepositoryOnly(ctx context.Context, repo integration.IdentityRepository, family integration.EntityFamily, current []int64, logger *zap.Logger) (int, error) {
	stale, err := repo.Stale(ctx, family, current)
	if err != nil {
		return 0, fmt.Errorf("find stale %s links: %w", family, err)
	}
	for _, id := range stale {
		logger.Warn("unlinking orphaned entity",
			zap.String("family", family.String()),
			zap.Int64("erp_id", id))
		if err := repo.Remove(ctx, family, id); err != nil {
			return 0, fmt.Errorf("remove %s link %d: %w", family, id, err)
		}
	}
	return len(stale), nil
}

var _ Synchronizer = (*AttributeSynchronizer)(nil)

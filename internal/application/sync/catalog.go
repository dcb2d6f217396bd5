package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// erpTimeFormat is the timestamp layout the ERP expects in search domains.
const erpTimeFormat = "2006-01-02 15:04:05"

// link pairs an ERP id with the storefront-side id chosen for it during
// mapping.
type link struct {
	ErpID   int64
	LocalID string
}

// incrementalCriteria extends the base criteria with a modified-since filter
// when the family has completed a run before. The second return value is
// false on the first, full fetch.
func incrementalCriteria(ctx context.Context, repo integration.IdentityRepository, family integration.EntityFamily, base []integration.Criterion) ([]integration.Criterion, bool, error) {
	lastSync, err := repo.GetLastSync(ctx, family)
	if err != nil {
		return nil, false, fmt.Errorf("load last sync for %s: %w", family, err)
	}
	if lastSync == nil {
		return base, false, nil
	}
	criteria := make([]integration.Criterion, 0, len(base)+1)
	criteria = append(criteria, base...)
	criteria = append(criteria, integration.ModifiedSince(lastSync.UTC().Format(erpTimeFormat)))
	return criteria, true, nil
}

// dedupeLinks drops links whose local id collides with an earlier link in the
// batch. The first occurrence wins; later ones are logged and skipped so a
// bad source record cannot overwrite an unrelated storefront entity.
func dedupeLinks(links []link, logger *zap.Logger) []link {
	byLocal := make(map[string]int64, len(links))
	kept := links[:0]
	for _, l := range links {
		if winner, dup := byLocal[l.LocalID]; dup {
			logger.Warn("duplicate local id in batch, keeping first",
				zap.String("local_id", l.LocalID),
				zap.Int64("kept", winner),
				zap.Int64("dropped", l.ErpID))
			continue
		}
		byLocal[l.LocalID] = l.ErpID
		kept = append(kept, l)
	}
	return kept
}

// persistLinks upserts identity records for the whole confirmed batch and
// returns how many were new. Links seen for the first time are created;
// already-known links keep their creation time and get their sync date
// refreshed, since this pass just reconfirmed them.
func persistLinks(ctx context.Context, repo integration.IdentityRepository, family integration.EntityFamily, links []link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	candidates := make([]int64, 0, len(links))
	for _, l := range links {
		candidates = append(candidates, l.ErpID)
	}
	fresh, err := repo.Diff(ctx, family, candidates)
	if err != nil {
		return 0, fmt.Errorf("diff %s links: %w", family, err)
	}
	freshSet := make(map[int64]struct{}, len(fresh))
	for _, id := range fresh {
		freshSet[id] = struct{}{}
	}

	records := make([]integration.IdentityRecord, 0, len(links))
	for _, l := range links {
		if _, isNew := freshSet[l.ErpID]; isNew {
			record := integration.NewIdentityRecord(l.ErpID, l.LocalID)
			record.MarkSynced()
			records = append(records, record)
			continue
		}
		existing, err := repo.Get(ctx, family, l.ErpID)
		if err != nil {
			return 0, fmt.Errorf("load %s link %d: %w", family, l.ErpID, err)
		}
		existing.LocalID = l.LocalID
		existing.MarkSynced()
		records = append(records, *existing)
	}
	if err := repo.InsertMany(ctx, family, records); err != nil {
		return 0, fmt.Errorf("insert %s links: %w", family, err)
	}
	return len(fresh), nil
}

// pruneStale unlinks identity records whose ERP counterpart vanished from the
// latest full fetch and deletes the orphaned storefront entities. Only ever
// called after a full fetch; an incremental fetch cannot prove absence.
func pruneStale(ctx context.Context, repo integration.IdentityRepository, store integration.StorefrontGateway, family integration.EntityFamily, current []int64, logger *zap.Logger) (int, error) {
	stale, err := repo.Stale(ctx, family, current)
	if err != nil {
		return 0, fmt.Errorf("find stale %s links: %w", family, err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	localIDs := make([]string, 0, len(stale))
	for _, id := range stale {
		record, err := repo.Get(ctx, family, id)
		if err != nil {
			return 0, fmt.Errorf("load stale %s link %d: %w", family, id, err)
		}
		localIDs = append(localIDs, record.LocalID)
		logger.Warn("unlinking orphaned entity",
			zap.String("family", family.String()),
			zap.Int64("erp_id", id),
			zap.String("local_id", record.LocalID))
	}

	if err := store.Delete(ctx, family, localIDs); err != nil {
		return 0, fmt.Errorf("delete orphaned %s: %w", family, err)
	}
	for _, id := range stale {
		if err := repo.Remove(ctx, family, id); err != nil {
			return 0, fmt.Errorf("remove %s link %d: %w", family, id, err)
		}
	}
	return len(stale), nil
}

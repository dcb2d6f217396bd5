package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// ErrRunInProgress is returned when a full run is requested while another
// one is still executing. Runs share the identity repository and must not
// interleave.
var ErrRunInProgress = errors.New("sync: run already in progress")

// dependencies names the families whose earlier success a family needs.
// A failure skips dependents instead of writing records with dangling
// references; independent families keep running.
var dependencies = map[integration.EntityFamily][]integration.EntityFamily{
	integration.FamilyProducts: {integration.FamilyCategories},
	integration.FamilyVariants: {integration.FamilyProducts},
	integration.FamilyOrders:   {integration.FamilyUsers, integration.FamilyVariants},
}

// Manager runs the synchronizers in their fixed dependency order: merchants,
// categories, attributes, products, variants, delivery, orders outbound,
// orders inbound.
type Manager struct {
	synchronizers []Synchronizer
	logger        *zap.Logger
	mu            gosync.Mutex
}

// NewManager creates a manager over an ordered synchronizer list.
func NewManager(synchronizers []Synchronizer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		synchronizers: synchronizers,
		logger:        logger.Named("sync_manager"),
	}
}

// RunFull executes every synchronizer once. Per-family failures are logged
// and collected; the run keeps going unless a later family depends on the
// failed one. The returned error joins every family failure.
func (m *Manager) RunFull(ctx context.Context) ([]Result, error) {
	if !m.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer m.mu.Unlock()

	started := time.Now()
	m.logger.Info("full sync run started")

	results := make([]Result, 0, len(m.synchronizers))
	failed := make(map[integration.EntityFamily]bool)
	var errs []error

	for _, s := range m.synchronizers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if blocked := m.blockedBy(s.Family(), failed); blocked != "" {
			m.logger.Warn("skipping family, dependency failed",
				zap.String("family", s.Family().String()),
				zap.String("dependency", blocked.String()))
			failed[s.Family()] = true
			errs = append(errs, fmt.Errorf("%s skipped: %s failed", s.Family(), blocked))
			continue
		}

		result, err := s.Sync(ctx)
		if err != nil {
			m.logger.Error("family sync failed",
				zap.String("family", s.Family().String()),
				zap.Error(err))
			failed[s.Family()] = true
			errs = append(errs, fmt.Errorf("%s: %w", s.Family(), err))
			continue
		}
		results = append(results, *result)
	}

	m.logger.Info("full sync run finished",
		zap.Int("succeeded", len(results)),
		zap.Int("failed", len(errs)),
		zap.Duration("duration", time.Since(started)))
	return results, errors.Join(errs...)
}

// blockedBy returns the first failed dependency of a family, or "".
func (m *Manager) blockedBy(family integration.EntityFamily, failed map[integration.EntityFamily]bool) integration.EntityFamily {
	for _, dep := range dependencies[family] {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

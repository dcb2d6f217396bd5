package integration

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// IdentityRecord Entity
// ---------------------------------------------------------------------------

// IdentityRecord links a storefront entity to its counterpart record in the
// ERP. At most one record exists per (family, ERP id) pair, and no entity is
// ever written to the opposite system without consulting this record first.
type IdentityRecord struct {
	// ErpID is the ERP-side primary key of the counterpart record
	ErpID int64 `json:"odoo_id"`
	// LocalID is the storefront-side id of the linked entity
	LocalID string `json:"local_id"`
	// CreatedAt is when the link was first established
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the link was last touched
	UpdatedAt time.Time `json:"updated_at"`
	// SyncDate is when the link was last confirmed by a successful
	// reconciliation; nil means never confirmed
	SyncDate *time.Time `json:"sync_date"`
}

// NewIdentityRecord creates a fresh link between an ERP record and a
// storefront entity.
func NewIdentityRecord(erpID int64, localID string) IdentityRecord {
	now := time.Now().UTC()
	return IdentityRecord{
		ErpID:     erpID,
		LocalID:   localID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkSynced refreshes the sync confirmation timestamp.
func (r *IdentityRecord) MarkSynced() {
	now := time.Now().UTC()
	r.SyncDate = &now
	r.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// IdentityRepository Interface
// ---------------------------------------------------------------------------

// IdentityRepository is the cross-reference store keyed by entity family.
// Each family holds a membership set of known ERP ids plus an individually
// addressable record per id. Store unavailability is fatal for the current
// sync run; implementations must not silently drop writes.
type IdentityRepository interface {
	// Get returns the record for an ERP id, or ErrIdentityNotFound.
	Get(ctx context.Context, family EntityFamily, erpID int64) (*IdentityRecord, error)

	// GetByLocal returns the record whose LocalID matches, or
	// ErrIdentityNotFound. Used when the storefront side is the lookup key,
	// e.g. resolving an order line's variant reference.
	GetByLocal(ctx context.Context, family EntityFamily, localID string) (*IdentityRecord, error)

	// GetAll enumerates every known ERP id for the family.
	GetAll(ctx context.Context, family EntityFamily) ([]int64, error)

	// Insert upserts a single record keyed by its ERP id.
	Insert(ctx context.Context, family EntityFamily, record IdentityRecord) error

	// InsertMany upserts a batch in a single round trip. A concurrent reader
	// must never observe a membership set entry without its record.
	InsertMany(ctx context.Context, family EntityFamily, records []IdentityRecord) error

	// Remove deletes the link for an ERP id. The linked entities themselves
	// are untouched.
	Remove(ctx context.Context, family EntityFamily, erpID int64) error

	// Length returns the number of known links for the family.
	Length(ctx context.Context, family EntityFamily) (int64, error)

	// Diff returns the candidates not yet present in the family's
	// membership set, i.e. "new since last sync".
	Diff(ctx context.Context, family EntityFamily, candidates []int64) ([]int64, error)

	// Stale returns the members of the family's set absent from current,
	// i.e. links whose counterpart vanished from the latest full fetch.
	Stale(ctx context.Context, family EntityFamily, current []int64) ([]int64, error)

	// GetLastSync returns the last successful sync time for the family, or
	// nil if the family has never completed a run.
	GetLastSync(ctx context.Context, family EntityFamily) (*time.Time, error)

	// SetLastSync records the last successful sync time for the family.
	SetLastSync(ctx context.Context, family EntityFamily, t time.Time) error
}

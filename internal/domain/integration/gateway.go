package integration

import "context"

// ---------------------------------------------------------------------------
// ERP Gateway Port
// ---------------------------------------------------------------------------

// Criterion is a single (field, operator, value) filter triple in the ERP's
// search domain format.
type Criterion struct {
	Field string
	Op    string
	Value any
}

// ModifiedSince builds the incremental-sync criterion for records touched
// after the given timestamp, formatted the way the ERP expects.
func ModifiedSince(ts string) Criterion {
	return Criterion{Field: "write_date", Op: ">", Value: ts}
}

// ErpGateway is the narrow contract the synchronizers consume for ERP
// access. Implementations handle transport, authentication, and bounded
// retry; a validation-class rejection from the ERP is surfaced immediately
// as ErrGatewayRejected and never retried.
type ErpGateway interface {
	// Read fetches records of the object type matching the criteria.
	// For each name in translationFields the result records additionally
	// carry "{field}_{lang}" keys for every supported language.
	Read(ctx context.Context, objectType string, criteria []Criterion, translationFields []string) ([]RawRecord, error)

	// ReadAllIDs fetches only the ids of matching records.
	ReadAllIDs(ctx context.Context, objectType string, criteria []Criterion) ([]int64, error)

	// Write creates (id nil) or updates (id set) a record and returns its id.
	Write(ctx context.Context, objectType string, id *int64, payload map[string]any) (int64, error)
}

// ---------------------------------------------------------------------------
// Storefront Gateway Port
// ---------------------------------------------------------------------------

// StorefrontGateway is the contract for the customer-facing platform's REST
// API. List operations paginate internally until a short page, bounded by
// the configured page ceiling. Write rejections (4xx) surface as
// ErrGatewayRejected; transient failures are retried with jitter.
type StorefrontGateway interface {
	UpsertMerchants(ctx context.Context, merchants []MerchantUpsert) error
	UpsertCategories(ctx context.Context, categories []CategoryUpsert) error
	UpsertAttributes(ctx context.Context, attributes []AttributeUpsert) error
	UpsertProducts(ctx context.Context, products []ProductUpsert) error
	UpsertVariants(ctx context.Context, variants []VariantUpsert) error
	UpsertDeliveryOptions(ctx context.Context, options []DeliveryOptionUpsert) error
	UpsertPickupLocations(ctx context.Context, locations []PickupLocationUpsert) error

	// Delete removes storefront records for a family. Only ever invoked for
	// entities confirmed orphaned by the deletion pass.
	Delete(ctx context.Context, family EntityFamily, localIDs []string) error

	// ListVariants returns every variant known to the storefront.
	ListVariants(ctx context.Context) ([]VariantUpsert, error)

	// ListOrders returns storefront orders pending outbound sync.
	ListOrders(ctx context.Context) ([]Order, error)

	// MarkOrderSynced stores the ERP ids established for the order, its
	// lines, and its addresses on the storefront order after a successful
	// outbound write.
	MarkOrderSynced(ctx context.Context, localID string, link OrderLink) error

	// UpdateOrderStatus pushes an ERP-driven status change to the
	// storefront order.
	UpdateOrderStatus(ctx context.Context, localID string, status OrderStatus) error
}

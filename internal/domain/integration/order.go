package integration

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Order Statuses
// ---------------------------------------------------------------------------

// OrderStatus is the storefront's order status enum.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ErpOrderStatus is the ERP's sale order state enum.
type ErpOrderStatus string

const (
	ErpOrderStatusDraft  ErpOrderStatus = "draft"
	ErpOrderStatusSent   ErpOrderStatus = "sent"
	ErpOrderStatusSale   ErpOrderStatus = "sale"
	ErpOrderStatusDone   ErpOrderStatus = "done"
	ErpOrderStatusCancel ErpOrderStatus = "cancel"
)

// StatusFromErp maps an ERP sale order state to the storefront status.
// The mapping is total: any state outside the table, including an empty
// string, yields OrderStatusNew. Callers rely on this default and must not
// treat a miss as an error.
func StatusFromErp(status ErpOrderStatus) OrderStatus {
	switch status {
	case ErpOrderStatusDraft, ErpOrderStatusSent:
		return OrderStatusNew
	case ErpOrderStatusSale:
		return OrderStatusInProgress
	case ErpOrderStatusDone:
		return OrderStatusDelivered
	case ErpOrderStatusCancel:
		return OrderStatusCancelled
	default:
		return OrderStatusNew
	}
}

// StatusToErp maps a storefront status to the ERP state written on outbound
// sync. Total, defaulting to draft.
func StatusToErp(status OrderStatus) ErpOrderStatus {
	switch status {
	case OrderStatusNew:
		return ErpOrderStatusDraft
	case OrderStatusInProgress:
		return ErpOrderStatusSale
	case OrderStatusShipped, OrderStatusDelivered:
		return ErpOrderStatusDone
	case OrderStatusCancelled:
		return ErpOrderStatusCancel
	default:
		return ErpOrderStatusDraft
	}
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is a storefront sales order together with the ERP-side link state
// needed for outbound sync. ErpID is nil until the first successful create
// on the ERP.
type Order struct {
	LocalID          string
	ErpID            *int64
	Reference        string
	Status           OrderStatus
	ErpStatus        ErpOrderStatus
	MerchantLocalID  string
	Billing          *Address
	Shipping         *Address
	DeliveryOptionID *int64
	PickupLocationID *int64
	AmountUntaxed    decimal.Decimal
	AmountTotal      decimal.Decimal
	ShippingCost     decimal.Decimal
	Note             string
	CancelRequested  bool
	Lines            []OrderLine
	// InvoiceData is the base64-encoded invoice file attached after a
	// successful order write, empty when no invoice exists yet.
	InvoiceData     string
	InvoiceFilename string
}

// OrderLine references a product variant by its storefront id. The reference
// must resolve through the identity repository before the order can be
// written outward.
type OrderLine struct {
	LocalID        string
	ErpID          *int64
	VariantLocalID string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Total          decimal.Decimal
}

// OrderLink reports every ERP-side id established while writing an order
// outward: the order itself, its lines keyed by their storefront ids, and
// the billing/shipping partner records (0 when the order carried no such
// address). The storefront persists these so the next sync pass updates
// instead of recreating.
type OrderLink struct {
	ErpID             int64
	LineIDs           map[string]int64
	BillingAddressID  int64
	ShippingAddressID int64
}

// LinkState describes what the sync pass knows about an order's counterpart
// record on the ERP.
type LinkState string

const (
	// LinkStateNew means no ERP id is known yet
	LinkStateNew LinkState = "NEW"
	// LinkStateLinked means the ERP id is known and the record exists
	LinkStateLinked LinkState = "LINKED"
	// LinkStateOrphaned means the ERP id is known but the record vanished
	LinkStateOrphaned LinkState = "ORPHANED"
)

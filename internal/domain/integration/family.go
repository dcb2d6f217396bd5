package integration

// EntityFamily identifies one of the fixed categories of entities tracked
// by the identity repository. Every cross-system link is keyed by a family
// plus the ERP-side record id.
type EntityFamily string

const (
	// FamilyUsers represents merchant users (res.partner companies/contacts)
	FamilyUsers EntityFamily = "users"
	// FamilyAddresses represents billing and shipping addresses
	FamilyAddresses EntityFamily = "addresses"
	// FamilyCategories represents product categories
	FamilyCategories EntityFamily = "categories"
	// FamilyAttributes represents product attributes
	FamilyAttributes EntityFamily = "attributes"
	// FamilyAttributeValues represents the values of product attributes
	FamilyAttributeValues EntityFamily = "attribute_values"
	// FamilyProducts represents product templates
	FamilyProducts EntityFamily = "products"
	// FamilyVariants represents sellable product variants
	FamilyVariants EntityFamily = "product_variants"
	// FamilyDeliveryOptions represents carrier/delivery methods
	FamilyDeliveryOptions EntityFamily = "delivery_options"
	// FamilyPickupLocations represents warehouses acting as pickup points
	FamilyPickupLocations EntityFamily = "pickup_locations"
	// FamilyOrders represents sales orders
	FamilyOrders EntityFamily = "orders"
	// FamilyBasketLines represents individual order lines
	FamilyBasketLines EntityFamily = "basket_lines"
)

// AllFamilies lists every entity family in sync order. Later families depend
// on identity records written for earlier ones.
var AllFamilies = []EntityFamily{
	FamilyUsers,
	FamilyAddresses,
	FamilyCategories,
	FamilyAttributes,
	FamilyAttributeValues,
	FamilyProducts,
	FamilyVariants,
	FamilyDeliveryOptions,
	FamilyPickupLocations,
	FamilyOrders,
	FamilyBasketLines,
}

// IsValid returns true if the family is one of the known entity families.
func (f EntityFamily) IsValid() bool {
	switch f {
	case FamilyUsers, FamilyAddresses, FamilyCategories, FamilyAttributes,
		FamilyAttributeValues, FamilyProducts, FamilyVariants,
		FamilyDeliveryOptions, FamilyPickupLocations, FamilyOrders, FamilyBasketLines:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity family.
func (f EntityFamily) String() string {
	return string(f)
}

// DisplayName returns the capitalized name used in operator-facing
// diagnostics, e.g. "Attributes has errors".
func (f EntityFamily) DisplayName() string {
	switch f {
	case FamilyUsers:
		return "Users"
	case FamilyAddresses:
		return "Addresses"
	case FamilyCategories:
		return "Categories"
	case FamilyAttributes:
		return "Attributes"
	case FamilyAttributeValues:
		return "Attribute values"
	case FamilyProducts:
		return "Products"
	case FamilyVariants:
		return "Product variants"
	case FamilyDeliveryOptions:
		return "Delivery options"
	case FamilyPickupLocations:
		return "Pickup locations"
	case FamilyOrders:
		return "Orders"
	case FamilyBasketLines:
		return "Basket lines"
	default:
		return string(f)
	}
}

package integration

import "github.com/shopspring/decimal"

// Typed entity shapes exchanged between the gateways and the synchronizers.
// Optional references are pointers; a nil pointer means the ERP left the
// field unset, never a zero id.

// Merchant is a storefront customer account backed by an ERP partner.
type Merchant struct {
	ErpID     int64
	LocalID   string
	Name      string
	Email     string
	Phone     string
	Language  Language
	City      string
	Website   string
	IsCompany bool
}

// AddressType distinguishes billing from shipping addresses.
type AddressType string

const (
	AddressTypeBilling  AddressType = "invoice"
	AddressTypeShipping AddressType = "delivery"
)

// Address belongs to a merchant and is synchronized before any order that
// references it.
type Address struct {
	ErpID      int64
	LocalID    string
	MerchantID int64
	Type       AddressType
	Name       string
	Street     string
	Street2    string
	City       string
	Zip        string
	Country    string
	Phone      string
	Email      string
}

// Category is a node in the product category tree. ParentID is nil for root
// categories.
type Category struct {
	ErpID    int64
	ParentID *int64
	Names    Translations
	Code     string
}

// Attribute is a product attribute such as "Color".
type Attribute struct {
	ErpID int64
	Names Translations
	Code  string
}

// AttributeValue is a value of an attribute, e.g. "Red" under "Color".
type AttributeValue struct {
	ErpID       int64
	AttributeID int64
	Names       Translations
}

// Product is a product template grouping one or more variants.
type Product struct {
	ErpID      int64
	CategoryID *int64
	Names      Translations
	Code       string
}

// ProductVariant is a sellable variant of a product with a concrete set of
// attribute values.
type ProductVariant struct {
	ErpID             int64
	ProductID         int64
	SKU               string
	Barcode           string
	Names             Translations
	Price             decimal.Decimal
	AttributeValueIDs []int64
}

// DeliveryOption is a carrier or delivery method offered at checkout.
type DeliveryOption struct {
	ErpID int64
	Names Translations
	Price decimal.Decimal
}

// PickupLocation is a warehouse offered as a pickup point.
type PickupLocation struct {
	ErpID   int64
	Names   Translations
	Street  string
	City    string
	Zip     string
	Country string
}

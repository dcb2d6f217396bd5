package integration

import "github.com/shopspring/decimal"

// Storefront write payloads. Foreign keys are the storefront's own ids,
// resolved through the identity repository before the payload is built.
// I18n maps serialize as one field per language on the wire; the storefront
// clients flatten them.

// MerchantUpsert creates or updates a storefront merchant account.
type MerchantUpsert struct {
	ExternalID int64           `json:"externalId"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone,omitempty"`
	Language   Language        `json:"language,omitempty"`
	City       string          `json:"city,omitempty"`
	Website    string          `json:"website,omitempty"`
	Addresses  []AddressUpsert `json:"addresses,omitempty"`
}

// AddressUpsert creates or updates a merchant address.
type AddressUpsert struct {
	ExternalID int64       `json:"externalId"`
	Type       AddressType `json:"type"`
	Name       string      `json:"name"`
	Street     string      `json:"street"`
	Street2    string      `json:"street2,omitempty"`
	City       string      `json:"city"`
	Zip        string      `json:"postcode"`
	Country    string      `json:"country"`
	Phone      string      `json:"phone,omitempty"`
	Email      string      `json:"email,omitempty"`
}

// CategoryUpsert creates or updates a storefront category. ParentCode is
// empty for root categories.
type CategoryUpsert struct {
	ExternalID int64        `json:"externalId"`
	Code       string       `json:"code"`
	ParentCode string       `json:"parentCode,omitempty"`
	Names      Translations `json:"names"`
}

// AttributeUpsert creates or updates an attribute together with its values.
type AttributeUpsert struct {
	ExternalID int64                  `json:"externalId"`
	Code       string                 `json:"code"`
	Names      Translations           `json:"names"`
	Values     []AttributeValueUpsert `json:"values,omitempty"`
}

// AttributeValueUpsert is a single value under an attribute.
type AttributeValueUpsert struct {
	ExternalID int64        `json:"externalId"`
	Names      Translations `json:"names"`
}

// ProductUpsert creates or updates a storefront product.
type ProductUpsert struct {
	ExternalID   int64        `json:"externalId"`
	Code         string       `json:"code"`
	CategoryCode string       `json:"categoryCode,omitempty"`
	Names        Translations `json:"names"`
}

// VariantUpsert creates or updates a sellable variant.
type VariantUpsert struct {
	ExternalID        int64           `json:"externalId"`
	ProductCode       string          `json:"productCode"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode,omitempty"`
	Names             Translations    `json:"names"`
	Price             decimal.Decimal `json:"price"`
	AttributeValueIDs []int64         `json:"attributeValueIds,omitempty"`
}

// DeliveryOptionUpsert creates or updates a delivery method.
type DeliveryOptionUpsert struct {
	ExternalID int64           `json:"externalId"`
	Names      Translations    `json:"names"`
	Price      decimal.Decimal `json:"price"`
}

// PickupLocationUpsert creates or updates a pickup point.
type PickupLocationUpsert struct {
	ExternalID int64        `json:"externalId"`
	Names      Translations `json:"names"`
	Street     string       `json:"street,omitempty"`
	City       string       `json:"city,omitempty"`
	Zip        string       `json:"postcode,omitempty"`
	Country    string       `json:"country,omitempty"`
}

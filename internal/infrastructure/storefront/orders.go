package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// Order wire shapes. The storefront keys orders by its own string ids and
// stores the ERP counterpart id as externalId once linked.

type addressPayload struct {
	ID         string                  `json:"id,omitempty"`
	ExternalID int64                   `json:"externalId,omitempty"`
	Type       integration.AddressType `json:"type"`
	Name       string                  `json:"name"`
	Street     string                  `json:"street"`
	Street2    string                  `json:"street2,omitempty"`
	City       string                  `json:"city"`
	Zip        string                  `json:"postcode"`
	Country    string                  `json:"country"`
	Phone      string                  `json:"phone,omitempty"`
	Email      string                  `json:"email,omitempty"`
}

func (p *addressPayload) toDomain() *integration.Address {
	if p == nil {
		return nil
	}
	return &integration.Address{
		ErpID:   p.ExternalID,
		LocalID: p.ID,
		Type:    p.Type,
		Name:    p.Name,
		Street:  p.Street,
		Street2: p.Street2,
		City:    p.City,
		Zip:     p.Zip,
		Country: p.Country,
		Phone:   p.Phone,
		Email:   p.Email,
	}
}

type orderLinePayload struct {
	ID         string          `json:"id"`
	ExternalID *int64          `json:"externalId,omitempty"`
	VariantID  string          `json:"variantId"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Total      decimal.Decimal `json:"total"`
}

type invoicePayload struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

type orderPayload struct {
	ID               string                  `json:"id"`
	ExternalID       *int64                  `json:"externalId,omitempty"`
	Reference        string                  `json:"reference"`
	Status           integration.OrderStatus `json:"status"`
	MerchantID       string                  `json:"merchantId"`
	Billing          *addressPayload         `json:"billingAddress,omitempty"`
	Shipping         *addressPayload         `json:"shippingAddress,omitempty"`
	DeliveryOptionID *int64                  `json:"deliveryOptionId,omitempty"`
	PickupLocationID *int64                  `json:"pickupLocationId,omitempty"`
	AmountUntaxed    decimal.Decimal         `json:"amountUntaxed"`
	AmountTotal      decimal.Decimal         `json:"amountTotal"`
	ShippingCost     decimal.Decimal         `json:"shippingCost"`
	Note             string                  `json:"note,omitempty"`
	CancelRequested  bool                    `json:"cancelRequested"`
	Lines            []orderLinePayload      `json:"lines"`
	Invoice          *invoicePayload         `json:"invoice,omitempty"`
}

func (p *orderPayload) toDomain() integration.Order {
	order := integration.Order{
		LocalID:          p.ID,
		ErpID:            p.ExternalID,
		Reference:        p.Reference,
		Status:           p.Status,
		MerchantLocalID:  p.MerchantID,
		Billing:          p.Billing.toDomain(),
		Shipping:         p.Shipping.toDomain(),
		DeliveryOptionID: p.DeliveryOptionID,
		PickupLocationID: p.PickupLocationID,
		AmountUntaxed:    p.AmountUntaxed,
		AmountTotal:      p.AmountTotal,
		ShippingCost:     p.ShippingCost,
		Note:             p.Note,
		CancelRequested:  p.CancelRequested,
		Lines:            make([]integration.OrderLine, 0, len(p.Lines)),
	}
	if p.Invoice != nil {
		order.InvoiceData = p.Invoice.Data
		order.InvoiceFilename = p.Invoice.Filename
	}
	for _, line := range p.Lines {
		order.Lines = append(order.Lines, integration.OrderLine{
			LocalID:        line.ID,
			ErpID:          line.ExternalID,
			VariantLocalID: line.VariantID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Total:          line.Total,
		})
	}
	return order
}

// ListOrders returns storefront orders pending outbound sync.
func (c *Client) ListOrders(ctx context.Context) ([]integration.Order, error) {
	raw, err := c.listAll(ctx, "/orders/pending")
	if err != nil {
		return nil, err
	}

	orders := make([]integration.Order, 0, len(raw))
	for _, item := range raw {
		var p orderPayload
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("storefront: parse order: %w", err)
		}
		orders = append(orders, p.toDomain())
	}
	return orders, nil
}

// MarkOrderSynced stores the ERP order, line, and address ids on the
// storefront order after a successful outbound write.
func (c *Client) MarkOrderSynced(ctx context.Context, localID string, link integration.OrderLink) error {
	payload := map[string]any{
		"externalId":      link.ErpID,
		"lineExternalIds": link.LineIDs,
	}
	if link.BillingAddressID != 0 {
		payload["billingAddressExternalId"] = link.BillingAddressID
	}
	if link.ShippingAddressID != 0 {
		payload["shippingAddressExternalId"] = link.ShippingAddressID
	}
	_, err := c.doRequest(ctx, http.MethodPut, "/orders/"+url.PathEscape(localID)+"/erp-link", nil, payload)
	return err
}

// UpdateOrderStatus pushes an ERP-driven status change to the storefront.
func (c *Client) UpdateOrderStatus(ctx context.Context, localID string, status integration.OrderStatus) error {
	payload := map[string]any{"status": status}
	_, err := c.doRequest(ctx, http.MethodPut, "/orders/"+url.PathEscape(localID)+"/status", nil, payload)
	return err
}

package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/integration"
)

func testRetry() integration.RetryPolicy {
	return integration.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func newTestClient(t *testing.T, server *httptest.Server, pageSize, maxPages int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:  server.URL,
		APIToken: "test-token",
		PageSize: pageSize,
		MaxPages: maxPages,
	}, testRetry(), nil)
	require.NoError(t, err)
	return client
}

func writeVariantPage(w http.ResponseWriter, start, count int) {
	items := make([]json.RawMessage, 0, count)
	for i := 0; i < count; i++ {
		item, _ := json.Marshal(map[string]any{
			"id":          start + i,
			"externalId":  start + i,
			"productCode": "prod-1",
			"sku":         fmt.Sprintf("SKU-%04d", start+i),
			"names":       map[string]string{"en": "Widget", "fr": "Gadget"},
			"price":       "9.90",
		})
		items = append(items, item)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func TestListVariants_StopsAfterShortPage(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/variants", r.URL.Path)

		switch r.URL.Query().Get("pageIndex") {
		case "0":
			writeVariantPage(w, 1, 50)
		case "1":
			writeVariantPage(w, 51, 20)
		default:
			t.Errorf("unexpected page request: %s", r.URL.RawQuery)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	variants, err := client.ListVariants(context.Background())

	require.NoError(t, err)
	assert.Len(t, variants, 70)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "SKU-0001", variants[0].SKU)
	assert.Equal(t, "Gadget", variants[0].Names[integration.LangFR])
}

func TestListVariants_PageCeiling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always a full page, the loop must not run away.
		writeVariantPage(w, 1, 2)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2, 3)
	_, err := client.ListVariants(context.Background())

	assert.ErrorIs(t, err, integration.ErrPageLimitExceeded)
}

func TestUpsertVariants_SendsBatch(t *testing.T) {
	var received struct {
		Items []integration.VariantUpsert `json:"items"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/variants/bulk", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	err := client.UpsertVariants(context.Background(), []integration.VariantUpsert{
		{
			ExternalID:  7,
			ProductCode: "chair",
			SKU:         "CH-7",
			Names:       integration.Translations{integration.LangEN: "Chair"},
			Price:       decimal.RequireFromString("49.00"),
		},
	})

	require.NoError(t, err)
	require.Len(t, received.Items, 1)
	assert.Equal(t, "CH-7", received.Items[0].SKU)
	assert.Equal(t, int64(7), received.Items[0].ExternalID)
}

func TestUpsert_EmptyBatchSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	assert.NoError(t, client.UpsertCategories(context.Background(), nil))
	assert.NoError(t, client.Delete(context.Background(), integration.FamilyProducts, nil))
}

func TestDoRequest_RejectionNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"duplicate sku"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	err := client.UpsertProducts(context.Background(), []integration.ProductUpsert{{ExternalID: 1, Code: "p"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrGatewayRejected)
	assert.Equal(t, 1, calls)

	var rejection *integration.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, http.StatusUnprocessableEntity, rejection.Status)
	assert.Contains(t, rejection.Body, "duplicate sku")
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	err := client.UpsertMerchants(context.Background(), []integration.MerchantUpsert{{ExternalID: 1, Name: "Acme"}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestListOrders_MapsWireShape(t *testing.T) {
	erpID := int64(501)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/pending", r.URL.Path)
		order := orderPayload{
			ID:              "ord-9f2",
			ExternalID:      &erpID,
			Reference:       "SO-1042",
			Status:          integration.OrderStatusNew,
			MerchantID:      "mer-1",
			CancelRequested: true,
			AmountTotal:     decimal.RequireFromString("120.50"),
			Billing: &addressPayload{
				Type:    integration.AddressTypeBilling,
				Name:    "Acme HQ",
				Street:  "1 Main St",
				City:    "Gent",
				Zip:     "9000",
				Country: "BE",
			},
			Lines: []orderLinePayload{
				{
					ID:        "line-1",
					VariantID: "var-77",
					Quantity:  decimal.NewFromInt(3),
					UnitPrice: decimal.RequireFromString("40.00"),
					Total:     decimal.RequireFromString("120.00"),
				},
			},
			Invoice: &invoicePayload{Data: "aGVsbG8=", Filename: "SO-1042.pdf"},
		}
		item, _ := json.Marshal(order)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []json.RawMessage{item}})
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	orders, err := client.ListOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, "ord-9f2", order.LocalID)
	require.NotNil(t, order.ErpID)
	assert.Equal(t, int64(501), *order.ErpID)
	assert.True(t, order.CancelRequested)
	require.NotNil(t, order.Billing)
	assert.Equal(t, integration.AddressTypeBilling, order.Billing.Type)
	assert.Nil(t, order.Shipping)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "var-77", order.Lines[0].VariantLocalID)
	assert.Nil(t, order.Lines[0].ErpID)
	assert.Equal(t, "SO-1042.pdf", order.InvoiceFilename)
}

func TestMarkOrderSynced(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/ord-9f2/erp-link", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	err := client.MarkOrderSynced(context.Background(), "ord-9f2", integration.OrderLink{
		ErpID:            501,
		LineIDs:          map[string]int64{"line-1": 9001},
		BillingAddressID: 88,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 501, body["externalId"])
	lines, ok := body["lineExternalIds"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 9001, lines["line-1"])
	assert.EqualValues(t, 88, body["billingAddressExternalId"])
	_, hasShipping := body["shippingAddressExternalId"]
	assert.False(t, hasShipping)
}

func TestUpdateOrderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-1/status", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shipped", body["status"])
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, 50, 10)
	assert.NoError(t, client.UpdateOrderStatus(context.Background(), "ord-1", integration.OrderStatusShipped))
}

package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the storefront API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements the storefront gateway over the platform's JSON REST API.
// List endpoints paginate internally; write rejections surface as
// ErrGatewayRejected and are never retried.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      integration.RetryPolicy
	logger     *zap.Logger
}

// NewClient creates a storefront client for the configured API root.
func NewClient(cfg Config, retry integration.RetryPolicy, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		retry:  retry,
		logger: logger.Named("storefront"),
	}, nil
}

// doRequest performs one API call with bounded retry. Network failures and
// 5xx responses are transient; any other non-2xx response is a rejection
// carrying the endpoint and response body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("storefront: marshal %s payload: %w", path, err)
		}
	}

	endpoint := c.cfg.BaseURL + path
	var respBody []byte
	err := c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("storefront: build request for %s: %w", path, err)
		}
		if query != nil {
			req.URL.RawQuery = query.Encode()
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", integration.ErrGatewayUnavailable, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("%w: read response from %s: %v", integration.ErrGatewayUnavailable, path, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			respBody = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s returned %d", integration.ErrGatewayUnavailable, path, resp.StatusCode)
		default:
			return &integration.RejectionError{Endpoint: path, Status: resp.StatusCode, Body: string(data)}
		}
	})
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

type listPage struct {
	Items []json.RawMessage `json:"items"`
}

// listAll walks a paginated list endpoint until a short or empty page,
// bounded by the configured page ceiling. The previous page's last numeric
// id is passed as a cursor when available.
func (c *Client) listAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	var prevID int64

	for pageIndex := 0; ; pageIndex++ {
		if pageIndex >= c.cfg.MaxPages {
			return nil, fmt.Errorf("%w: %s after %d pages", integration.ErrPageLimitExceeded, path, c.cfg.MaxPages)
		}

		query := url.Values{}
		query.Set("pageIndex", strconv.Itoa(pageIndex))
		query.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
		if prevID > 0 {
			query.Set("prevId", strconv.FormatInt(prevID, 10))
		}

		body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}

		var page listPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("storefront: parse %s page %d: %w", path, pageIndex, err)
		}

		all = append(all, page.Items...)
		if len(page.Items) < c.cfg.PageSize {
			break
		}
		prevID = lastItemID(page.Items)
	}

	c.logger.Debug("listed storefront records",
		zap.String("path", path),
		zap.Int("count", len(all)))
	return all, nil
}

// lastItemID extracts the numeric id of the last item for cursor pagination,
// 0 when the endpoint keys its items differently.
func lastItemID(items []json.RawMessage) int64 {
	if len(items) == 0 {
		return 0
	}
	var tail struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(items[len(items)-1], &tail); err != nil {
		return 0
	}
	return tail.ID
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// bulkUpsert posts a batch of records to a family's bulk endpoint.
func (c *Client) bulkUpsert(ctx context.Context, path string, items any) error {
	_, err := c.doRequest(ctx, http.MethodPost, path, nil, map[string]any{"items": items})
	return err
}

// UpsertMerchants creates or updates merchant accounts in bulk.
func (c *Client) UpsertMerchants(ctx context.Context, merchants []integration.MerchantUpsert) error {
	if len(merchants) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/merchants/bulk", merchants)
}

// UpsertCategories creates or updates categories in bulk.
func (c *Client) UpsertCategories(ctx context.Context, categories []integration.CategoryUpsert) error {
	if len(categories) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/categories/bulk", categories)
}

// UpsertAttributes creates or updates attributes with their values in bulk.
func (c *Client) UpsertAttributes(ctx context.Context, attributes []integration.AttributeUpsert) error {
	if len(attributes) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/attributes/bulk", attributes)
}

// UpsertProducts creates or updates products in bulk.
func (c *Client) UpsertProducts(ctx context.Context, products []integration.ProductUpsert) error {
	if len(products) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/products/bulk", products)
}

// UpsertVariants creates or updates product variants in bulk.
func (c *Client) UpsertVariants(ctx context.Context, variants []integration.VariantUpsert) error {
	if len(variants) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/variants/bulk", variants)
}

// UpsertDeliveryOptions creates or updates delivery methods in bulk.
func (c *Client) UpsertDeliveryOptions(ctx context.Context, options []integration.DeliveryOptionUpsert) error {
	if len(options) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/delivery-options/bulk", options)
}

// UpsertPickupLocations creates or updates pickup points in bulk.
func (c *Client) UpsertPickupLocations(ctx context.Context, locations []integration.PickupLocationUpsert) error {
	if len(locations) == 0 {
		return nil
	}
	return c.bulkUpsert(ctx, "/pickup-locations/bulk", locations)
}

// familyPaths maps entity families to their API resource roots.
var familyPaths = map[integration.EntityFamily]string{
	integration.FamilyUsers:           "/merchants",
	integration.FamilyCategories:      "/categories",
	integration.FamilyAttributes:      "/attributes",
	integration.FamilyProducts:        "/products",
	integration.FamilyVariants:        "/variants",
	integration.FamilyDeliveryOptions: "/delivery-options",
	integration.FamilyPickupLocations: "/pickup-locations",
}

// Delete removes storefront records confirmed orphaned by the deletion pass.
func (c *Client) Delete(ctx context.Context, family integration.EntityFamily, localIDs []string) error {
	if len(localIDs) == 0 {
		return nil
	}
	path, ok := familyPaths[family]
	if !ok {
		return fmt.Errorf("%w: no delete endpoint for %s", integration.ErrInvalidFamily, family)
	}
	_, err := c.doRequest(ctx, http.MethodPost, path+"/delete", nil, map[string]any{"ids": localIDs})
	return err
}

// ListVariants returns every variant known to the storefront.
func (c *Client) ListVariants(ctx context.Context) ([]integration.VariantUpsert, error) {
	raw, err := c.listAll(ctx, "/variants")
	if err != nil {
		return nil, err
	}

	variants := make([]integration.VariantUpsert, 0, len(raw))
	for _, item := range raw {
		var v integration.VariantUpsert
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("storefront: parse variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// Ensure Client implements StorefrontGateway
var _ integration.StorefrontGateway = (*Client)(nil)

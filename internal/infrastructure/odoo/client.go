package odoo

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// Client is the ERP gateway adapter over the XML-RPC object endpoint.
// Transport failures are retried through the injected policy; an RPC fault
// is a validation-class rejection and is surfaced immediately.
type Client struct {
	cfg    Config
	retry  integration.RetryPolicy
	logger *zap.Logger

	common *xmlrpc.Client
	object *xmlrpc.Client

	mu  gosync.Mutex
	uid int
}

// NewClient creates an ERP client for the configured endpoint. No network
// traffic happens until the first call; authentication is performed lazily
// and cached.
func NewClient(cfg Config, retry integration.RetryPolicy, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	common, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/common", nil)
	if err != nil {
		return nil, fmt.Errorf("odoo: create common endpoint client: %w", err)
	}
	object, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/object", nil)
	if err != nil {
		return nil, fmt.Errorf("odoo: create object endpoint client: %w", err)
	}

	return &Client{
		cfg:    cfg,
		retry:  retry,
		logger: logger.Named("odoo"),
		common: common,
		object: object,
	}, nil
}

// authenticate resolves and caches the RPC user id.
func (c *Client) authenticate(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uid != 0 {
		return c.uid, nil
	}

	args := []any{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{}}
	var uid int
	err := c.retry.Do(ctx, func() error {
		return classify(c.common.Call("authenticate", args, &uid))
	})
	if err != nil {
		return 0, fmt.Errorf("odoo: authentication failed: %w", err)
	}
	if uid == 0 {
		return 0, fmt.Errorf("%w: odoo rejected credentials", integration.ErrGatewayRejected)
	}

	c.uid = uid
	c.logger.Debug("authenticated against ERP", zap.Int("uid", uid))
	return uid, nil
}

// executeKw invokes execute_kw on the object endpoint with bounded retry.
func (c *Client) executeKw(ctx context.Context, object, method string, args []any, kwargs map[string]any, result any) error {
	uid, err := c.authenticate(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	kwargs = c.callContext(kwargs)

	callArgs := []any{c.cfg.Database, uid, c.cfg.Password, object, method, args, kwargs}
	return c.retry.Do(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := classify(c.object.Call("execute_kw", callArgs, result)); err != nil {
			return fmt.Errorf("odoo: %s.%s: %w", object, method, err)
		}
		return nil
	})
}

// callContext merges the configured company and price list scoping into the
// call's context. Keys the caller already set, such as lang on translated
// reads, win over the defaults.
func (c *Client) callContext(kwargs map[string]any) map[string]any {
	if c.cfg.CompanyID == 0 && c.cfg.PriceListID == 0 {
		return kwargs
	}

	callCtx, _ := kwargs["context"].(map[string]any)
	if callCtx == nil {
		callCtx = map[string]any{}
		kwargs["context"] = callCtx
	}
	if c.cfg.CompanyID != 0 {
		if _, ok := callCtx["allowed_company_ids"]; !ok {
			callCtx["allowed_company_ids"] = []int64{c.cfg.CompanyID}
		}
	}
	if c.cfg.PriceListID != 0 {
		if _, ok := callCtx["pricelist"]; !ok {
			callCtx["pricelist"] = c.cfg.PriceListID
		}
	}
	return kwargs
}

// classify maps an RPC error to the gateway error taxonomy: faults carry the
// ERP's own complaint about the request and are never retried, anything
// else is transport-level and transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		return &integration.RejectionError{Endpoint: "xmlrpc/2/object", Status: fault.Code, Body: fault.String}
	}
	return fmt.Errorf("%w: %v", integration.ErrGatewayUnavailable, err)
}

// searchDomain converts criteria triples to the ERP's domain format.
func searchDomain(criteria []integration.Criterion) []any {
	domain := make([]any, 0, len(criteria))
	for _, crit := range criteria {
		domain = append(domain, []any{crit.Field, crit.Op, crit.Value})
	}
	return domain
}

// Read fetches records matching the criteria. When translationFields are
// requested, each field is re-read once per supported language with that
// language's context and the values are merged into the base records under
// "{field}_{lang}" keys.
func (c *Client) Read(ctx context.Context, objectType string, criteria []integration.Criterion, translationFields []string) ([]integration.RawRecord, error) {
	var raw []map[string]any
	kwargs := map[string]any{"order": "id asc"}
	if err := c.executeKw(ctx, objectType, "search_read", []any{searchDomain(criteria)}, kwargs, &raw); err != nil {
		return nil, err
	}

	records := make([]integration.RawRecord, 0, len(raw))
	byID := make(map[int64]integration.RawRecord, len(raw))
	for _, m := range raw {
		record := integration.RawRecord(m)
		records = append(records, record)
		byID[record.Int("id")] = record
	}

	if len(translationFields) > 0 && len(records) > 0 {
		if err := c.expandTranslations(ctx, objectType, criteria, translationFields, byID); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("read ERP records",
		zap.String("object", objectType),
		zap.Int("count", len(records)))
	return records, nil
}

// expandTranslations re-reads the translated fields once per language and
// merges them into the already-fetched records keyed by id.
func (c *Client) expandTranslations(ctx context.Context, objectType string, criteria []integration.Criterion, fields []string, byID map[int64]integration.RawRecord) error {
	for _, lang := range integration.SupportedLanguages {
		kwargs := map[string]any{
			"fields":  fields,
			"order":   "id asc",
			"context": map[string]any{"lang": lang.ErpLocale()},
		}

		var localized []map[string]any
		if err := c.executeKw(ctx, objectType, "search_read", []any{searchDomain(criteria)}, kwargs, &localized); err != nil {
			return fmt.Errorf("read %s translations for %s: %w", lang, objectType, err)
		}

		for _, m := range localized {
			record := integration.RawRecord(m)
			target, ok := byID[record.Int("id")]
			if !ok {
				continue
			}
			for _, field := range fields {
				if v := record.Str(field); v != "" {
					target[field+"_"+string(lang)] = v
				}
			}
		}
	}
	return nil
}

// ReadAllIDs fetches only the ids of matching records.
func (c *Client) ReadAllIDs(ctx context.Context, objectType string, criteria []integration.Criterion) ([]int64, error) {
	var ids []int64
	if err := c.executeKw(ctx, objectType, "search", []any{searchDomain(criteria)}, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Write creates a record when id is nil, otherwise updates it. Returns the
// record id either way.
func (c *Client) Write(ctx context.Context, objectType string, id *int64, payload map[string]any) (int64, error) {
	if id == nil {
		var created int64
		if err := c.executeKw(ctx, objectType, "create", []any{payload}, nil, &created); err != nil {
			return 0, err
		}
		return created, nil
	}

	var ok bool
	if err := c.executeKw(ctx, objectType, "write", []any{[]int64{*id}, payload}, nil, &ok); err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s write returned false", integration.ErrGatewayRejected, objectType)
	}
	return *id, nil
}

// Ensure Client implements ErpGateway
var _ integration.ErpGateway = (*Client)(nil)

package odoo

import (
	"errors"
	"testing"

	"github.com/kolo/xmlrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/integration"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		URL:      "https://erp.example.com",
		Database: "prod",
		Username: "sync",
		Password: "secret",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.URL = "" }},
		{"missing database", func(c *Config) { c.Database = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSearchDomain(t *testing.T) {
	domain := searchDomain([]integration.Criterion{
		{Field: "active", Op: "=", Value: true},
		{Field: "write_date", Op: ">", Value: "2025-11-03 00:00:00"},
	})

	require.Len(t, domain, 2)
	assert.Equal(t, []any{"active", "=", true}, domain[0])
	assert.Equal(t, []any{"write_date", ">", "2025-11-03 00:00:00"}, domain[1])

	assert.Empty(t, searchDomain(nil))
}

func TestClassify_Fault(t *testing.T) {
	err := classify(xmlrpc.FaultError{Code: 2, String: "Access Denied"})

	var rejection *integration.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, 2, rejection.Status)
	assert.Contains(t, rejection.Body, "Access Denied")
	assert.ErrorIs(t, err, integration.ErrGatewayRejected)
}

func TestClassify_Transport(t *testing.T) {
	err := classify(errors.New("connection refused"))
	assert.ErrorIs(t, err, integration.ErrGatewayUnavailable)

	assert.NoError(t, classify(nil))
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{}, integration.DefaultRetryPolicy, nil)
	assert.Error(t, err)
}

func TestCallContext_ScopesCompanyAndPricelist(t *testing.T) {
	client, err := NewClient(Config{
		URL:         "https://erp.example.com",
		Database:    "prod",
		Username:    "sync",
		Password:    "secret",
		CompanyID:   3,
		PriceListID: 7,
	}, integration.DefaultRetryPolicy, nil)
	require.NoError(t, err)

	kwargs := client.callContext(map[string]any{
		"order":   "id asc",
		"context": map[string]any{"lang": "fr_FR"},
	})

	callCtx, ok := kwargs["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fr_FR", callCtx["lang"], "caller keys survive the merge")
	assert.Equal(t, []int64{3}, callCtx["allowed_company_ids"])
	assert.Equal(t, int64(7), callCtx["pricelist"])
	assert.Equal(t, "id asc", kwargs["order"])
}

func TestCallContext_NoScopingConfigured(t *testing.T) {
	client, err := NewClient(Config{
		URL:      "https://erp.example.com",
		Database: "prod",
		Username: "sync",
		Password: "secret",
	}, integration.DefaultRetryPolicy, nil)
	require.NoError(t, err)

	kwargs := client.callContext(map[string]any{"order": "id asc"})
	assert.NotContains(t, kwargs, "context")
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "syncbridge", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 50, cfg.Storefront.PageSize)
	assert.Equal(t, 200, cfg.Storefront.MaxPages)
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.RetryBaseDelay)
}

func TestValidate_Development(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	// Credentials may be absent outside production.
	assert.NoError(t, cfg.validate())
}

func TestValidate_ProductionRequiresCredentials(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "odoo")

	cfg.Odoo = OdooConfig{URL: "https://erp.example.com", Database: "prod", Username: "sync", Password: "secret"}
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront")

	cfg.Storefront.BaseURL = "https://store.example.com/api/v1"
	cfg.Storefront.APIToken = "token"
	assert.NoError(t, cfg.validate())
}

func TestValidate_ProductionRejectsInMemoryFallback(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"
	cfg.Odoo = OdooConfig{URL: "https://erp.example.com", Database: "prod", Username: "sync", Password: "secret"}
	cfg.Storefront.BaseURL = "https://store.example.com/api/v1"
	cfg.Storefront.APIToken = "token"
	cfg.Sync.AllowInMemoryFallback = true

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow_inmemory_fallback")
}

func TestValidate_RejectsBadBounds(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Sync.RetryAttempts = -1
	assert.Error(t, cfg.validate())

	cfg = &Config{}
	applyDefaults(cfg)
	cfg.Storefront.PageSize = -5
	assert.Error(t, cfg.validate())
}

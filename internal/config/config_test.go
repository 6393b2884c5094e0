package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a temp dir so no config.yaml is picked up.
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2.0, cfg.Storefront.RateLimit)
	assert.Equal(t, 30, cfg.Marketplace.TimeoutSecs)
}

func TestLoad_ConfigFile(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/backoffice
storefront:
  base_url: https://shop.example.com/admin/api
log:
  level: debug
`), 0o644))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/backoffice", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://shop.example.com/admin/api", cfg.Storefront.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply to unset keys.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		subsystem string
		wantErr   bool
	}{
		{"storefront missing url", Config{}, "storefront", true},
		{"storefront ok", Config{Storefront: StorefrontConfig{BaseURL: "https://x"}}, "storefront", false},
		{"marketplace missing url", Config{}, "marketplace", true},
		{"review missing token", Config{Review: ReviewConfig{QueueDB: "db"}}, "review", true},
		{"review ok", Config{Review: ReviewConfig{Token: "t", QueueDB: "db"}}, "review", false},
		{"exchange missing url", Config{}, "exchange", true},
		{"unknown subsystem ignored", Config{}, "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.subsystem)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}

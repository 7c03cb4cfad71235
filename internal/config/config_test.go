package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IRONPAY_API_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.ironpayapp.com.br/api/public/v1", cfg.IronPay.APIURL)
	assert.Equal(t, "https://bellavia.com.br", cfg.StoreBaseURL)
	assert.Equal(t, SyncModeInline, cfg.SyncMode)
	assert.Equal(t, int64(500), cfg.IronPay.MinItemPrice)
	assert.Equal(t, 1, cfg.IronPay.DefaultCategoryID)
	assert.Equal(t, 1, cfg.IronPay.Categories["camisetas"])
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers())
	assert.Empty(t, cfg.PostbackURL())
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("IRONPAY_API_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSyncMode(t *testing.T) {
	t.Setenv("IRONPAY_API_TOKEN", "tok")
	t.Setenv("SYNC_MODE", "sometimes")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostbackURL(t *testing.T) {
	t.Setenv("IRONPAY_API_TOKEN", "tok")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")
	t.Setenv("IRONPAY_WEBHOOK_SECRET", "s3cr3t&x")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/v1/webhooks/ironpay?token=s3cr3t%26x", cfg.PostbackURL())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers())
}

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "opencart")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_HOST_DOMAIN", "https://old-shop.example")
	t.Setenv("WC_STORE_URL", "https://new-shop.example/")
	t.Setenv("WC_CONSUMER_KEY", "ck_test")
	t.Setenv("WC_CONSUMER_SECRET", "cs_test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RunModeOnce, cfg.RunMode)
	assert.Equal(t, "mysql", cfg.Source.Driver)
	assert.Equal(t, "3306", cfg.Source.Port)
	assert.Equal(t, "oc_", cfg.Source.TablePrefix)
	assert.Equal(t, int64(1), cfg.Source.LanguageID)
	assert.Equal(t, "variable", cfg.Transfer.Mode)
	assert.Equal(t, int64(66), cfg.Transfer.CategoryID)
	assert.Equal(t, 1, cfg.Transfer.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.WooCommerce.RequestTimeout)
	assert.Equal(t, "https://new-shop.example/wp-json/wc/v3", cfg.WooCommerce.APIBaseURL())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WC_CONSUMER_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSFER_MODE", "grouped")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSFER_CONCURRENCY", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestSourceConfig_DSN(t *testing.T) {
	sc := SourceConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", Name: "shop"}
	dsn := sc.DSN()
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3306)/shop?"), dsn)
	assert.Contains(t, dsn, "charset=utf8mb4")

	sc.Driver = "postgres"
	sc.Port = "5432"
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", sc.DSN())
}

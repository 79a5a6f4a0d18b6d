package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", config.App.Port)
	assert.Equal(t, 24, config.Session.ExpiryHours)
	assert.Equal(t, "SAR", config.Paymob.Currency)
	assert.Equal(t, 15*time.Second, config.Paymob.Timeout)
	assert.False(t, config.Paymob.SkipHMAC)
	assert.Equal(t, "field-booking.events", config.Rabbit.Exchange)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nPAYMOB_HMAC=file-secret\nPAYMOB_INTEGRATION_ID=4321\nZATCA_SELLER_NAME=\"Field Co\"\nPAYMOB_TIMEOUT=5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PAYMOB_HMAC", "env-secret")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", config.App.Port)
	assert.Equal(t, "env-secret", config.Paymob.HMACSecret, "environment wins over the file")
	assert.Equal(t, 4321, config.Paymob.IntegrationID)
	assert.Equal(t, "Field Co", config.Zatca.SellerName)
	assert.Equal(t, 5*time.Second, config.Paymob.Timeout)
}

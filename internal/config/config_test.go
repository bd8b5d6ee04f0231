package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every GUARDLINK_ env var that Load() reads.
var allConfigKeys = []string{
	"GUARDLINK_STEAM_ID",
	"GUARDLINK_ACCESS_TOKEN",
	"GUARDLINK_SESSION_ID",
	"GUARDLINK_PHONE_NUMBER",
	"GUARDLINK_DB_PATH",
	"GUARDLINK_SECRET_KEY",
	"GUARDLINK_COMMUNITY_URL",
	"GUARDLINK_API_URL",
	"GUARDLINK_HTTP_TIMEOUT",
}

// isolateConfigEnv saves and unsets all GUARDLINK_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores original
// values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GUARDLINK_STEAM_ID", "76561198012345678")
	t.Setenv("GUARDLINK_ACCESS_TOKEN", "token-abc")
	t.Setenv("GUARDLINK_SESSION_ID", "sess-xyz")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDLINK_PHONE_NUMBER", "+15551234567")
	t.Setenv("GUARDLINK_DB_PATH", "/tmp/test.db")
	t.Setenv("GUARDLINK_SECRET_KEY", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	t.Setenv("GUARDLINK_HTTP_TIMEOUT", "10s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, uint64(76561198012345678), cfg.SteamID)
	assert.Equal(t, "token-abc", cfg.AccessToken)
	assert.Equal(t, "sess-xyz", cfg.SessionID)
	assert.Equal(t, "+15551234567", cfg.PhoneNumber)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.HasSessionCredentials())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "guardlink.db", cfg.DBPath)
	assert.Equal(t, "https://steamcommunity.com", cfg.CommunityURL)
	assert.Equal(t, "https://api.steampowered.com", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.PhoneNumber)
	assert.Nil(t, cfg.SecretKey)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{name: "steam id", omit: "GUARDLINK_STEAM_ID"},
		{name: "access token", omit: "GUARDLINK_ACCESS_TOKEN"},
		{name: "session id", omit: "GUARDLINK_SESSION_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			setRequiredEnv(t)
			os.Unsetenv(tt.omit)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.omit)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("non-numeric steam id", func(t *testing.T) {
		isolateConfigEnv(t)
		setRequiredEnv(t)
		t.Setenv("GUARDLINK_STEAM_ID", "not-a-number")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		isolateConfigEnv(t)
		setRequiredEnv(t)
		t.Setenv("GUARDLINK_HTTP_TIMEOUT", "fast")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("secret key not hex", func(t *testing.T) {
		isolateConfigEnv(t)
		setRequiredEnv(t)
		t.Setenv("GUARDLINK_SECRET_KEY", "zzzz")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("secret key wrong length", func(t *testing.T) {
		isolateConfigEnv(t)
		setRequiredEnv(t)
		t.Setenv("GUARDLINK_SECRET_KEY", "00010203")

		_, err := Load()
		assert.Error(t, err)
	})
}

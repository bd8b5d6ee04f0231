// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SteamID     uint64
	AccessToken string
	SessionID   string
	PhoneNumber string
	DBPath      string
	SecretKey   []byte // 32-byte AES-256 key, or nil when persistence is disabled.

	CommunityURL string
	APIURL       string
	HTTPTimeout  time.Duration
}

// HasSessionCredentials returns true when the session fields required to talk
// to the remote service are all present.
func (c *Config) HasSessionCredentials() bool {
	return c.SteamID != 0 && c.AccessToken != "" && c.SessionID != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. GUARDLINK_STEAM_ID, GUARDLINK_ACCESS_TOKEN and GUARDLINK_SESSION_ID
// identify the authenticated session and are required. Optional variables
// with defaults: GUARDLINK_DB_PATH (guardlink.db), GUARDLINK_COMMUNITY_URL,
// GUARDLINK_API_URL, GUARDLINK_HTTP_TIMEOUT (30s). GUARDLINK_SECRET_KEY is a
// hex-encoded 32-byte key; without it credentials are printed but not persisted.
func Load() (*Config, error) {
	rawSteamID := os.Getenv("GUARDLINK_STEAM_ID")
	if rawSteamID == "" {
		return nil, fmt.Errorf("GUARDLINK_STEAM_ID is required")
	}
	steamID, err := strconv.ParseUint(rawSteamID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GUARDLINK_STEAM_ID has invalid value %q: %w", rawSteamID, err)
	}

	accessToken := os.Getenv("GUARDLINK_ACCESS_TOKEN")
	if accessToken == "" {
		return nil, fmt.Errorf("GUARDLINK_ACCESS_TOKEN is required")
	}

	sessionID := os.Getenv("GUARDLINK_SESSION_ID")
	if sessionID == "" {
		return nil, fmt.Errorf("GUARDLINK_SESSION_ID is required")
	}

	dbPath := "guardlink.db"
	if v, ok := os.LookupEnv("GUARDLINK_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("GUARDLINK_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("GUARDLINK_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("GUARDLINK_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	communityURL := "https://steamcommunity.com"
	if v, ok := os.LookupEnv("GUARDLINK_COMMUNITY_URL"); ok {
		communityURL = v
	}

	apiURL := "https://api.steampowered.com"
	if v, ok := os.LookupEnv("GUARDLINK_API_URL"); ok {
		apiURL = v
	}

	httpTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("GUARDLINK_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GUARDLINK_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		httpTimeout = parsed
	}

	return &Config{
		SteamID:      steamID,
		AccessToken:  accessToken,
		SessionID:    sessionID,
		PhoneNumber:  os.Getenv("GUARDLINK_PHONE_NUMBER"),
		DBPath:       dbPath,
		SecretKey:    secretKey,
		CommunityURL: communityURL,
		APIURL:       apiURL,
		HTTPTimeout:  httpTimeout,
	}, nil
}

package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	TestTimeout           = 100 * time.Millisecond

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Capture session defaults
	DefaultSessionTTL = 2 * time.Hour

	// DefaultCatalogCacheTTL bounds how stale a cached catalogue listing may get
	DefaultCatalogCacheTTL = 10 * time.Minute

	// Session cookie lifetime
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Size constants
const (
	// DefaultMaxPhotoBytes caps decoded photo uploads at 10 MiB
	DefaultMaxPhotoBytes = 10 << 20
)

// Session configuration constants
const (
	// Session settings
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "repairlog-session"

	// SessionTokenField is the cookie-session key holding the active capture session token
	SessionTokenField = "capture_session_token"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)

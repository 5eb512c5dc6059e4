package config

import (
	"time"
)

type OAuthConfig interface {
	GetPendingAuthTTL() time.Duration
	GetAuthCodeTTL() time.Duration
	GetSessionLifetime() time.Duration
	GetSweepInterval() time.Duration
	GetTokenLength() int
	GetScope() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetPendingAuthTTL() time.Duration {
	return 10 * time.Minute
}

func (OAuth) GetAuthCodeTTL() time.Duration {
	return 10 * time.Minute
}

func (OAuth) GetSessionLifetime() time.Duration {
	return 24 * time.Hour
}

func (OAuth) GetSweepInterval() time.Duration {
	if v := GetEnv("SWEEP_INTERVAL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 60 * time.Second
}

func (OAuth) GetTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

// GetScope returns the fixed scope string issued with every token response.
// The gateway runs a single first-party flow, so there is no scope negotiation.
func (OAuth) GetScope() string {
	return "gridbase:api"
}

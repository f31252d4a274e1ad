// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the service needs. All collaborators receive it
// explicitly; nothing reads the environment after startup.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":9000"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	JWTSecret string `env:"JWT_SECRET,required"`

	TeslaClientID     string `env:"TESLA_CLIENT_ID,required"`
	TeslaClientSecret string `env:"TESLA_CLIENT_SECRET,required"`
	TeslaAuthURL      string `env:"TESLA_AUTH_URL" envDefault:"https://auth.tesla.com/oauth2/v3/authorize"`
	TeslaTokenURL     string `env:"TESLA_TOKEN_URL" envDefault:"https://auth.tesla.com/oauth2/v3/token"`
	TeslaAPIURL       string `env:"TESLA_API_URL" envDefault:"https://owner-api.teslamotors.com"`

	// RedirectURI must match the value registered in the Tesla developer
	// portal exactly.
	RedirectURI        string `env:"OAUTH_REDIRECT_URI" envDefault:"https://www.evtrak.com/redirect"`
	FrontendSuccessURL string `env:"FRONTEND_SUCCESS_URL" envDefault:"https://www.evtrak.com/api/auth/success"`
	FrontendErrorURL   string `env:"FRONTEND_ERROR_URL" envDefault:"https://www.evtrak.com/back"`

	StateTTL    time.Duration `env:"OAUTH_STATE_TTL" envDefault:"1h"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RefreshSkew time.Duration `env:"TOKEN_REFRESH_SKEW" envDefault:"5m"`
}

// Load parses the configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/stationtrail.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// GPSBaseToleranceM is fixed slack added to every proximity check to
	// absorb consumer GPS noise.
	GPSBaseToleranceM float64 `env:"GPS_BASE_TOLERANCE_M" envDefault:"5"`
	LocationRadiusMin float64 `env:"LOCATION_RADIUS_MIN_M" envDefault:"5"`
	LocationRadiusMax float64 `env:"LOCATION_RADIUS_MAX_M" envDefault:"500"`

	QRTokenMinLen int `env:"QR_TOKEN_MIN_LEN" envDefault:"4"`
	QRTokenMaxLen int `env:"QR_TOKEN_MAX_LEN" envDefault:"64"`

	// AnswerBypassPhrase, when set, is accepted in place of any station
	// answer (supervised demos). Empty disables the override.
	AnswerBypassPhrase string `env:"ANSWER_BYPASS_PHRASE"`

	// Route profile target station counts.
	ProfileShort  int `env:"PROFILE_SHORT" envDefault:"3"`
	ProfileMedium int `env:"PROFILE_MEDIUM" envDefault:"12"`
	ProfileLong   int `env:"PROFILE_LONG" envDefault:"24"`

	// Bootstrap admin, created on first start when no admin exists.
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@stationtrail.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"changeme"`

	SeedDemo bool `env:"SEED_DEMO" envDefault:"true"`
}

// Profiles maps profile names to target station counts.
func (c *Config) Profiles() map[string]int {
	return map[string]int{
		"short":  c.ProfileShort,
		"medium": c.ProfileMedium,
		"long":   c.ProfileLong,
	}
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

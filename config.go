package landlord

import (
	"time"

	"github.com/dmitrymomot/landlord/pkg/config"
)

// Config is the environment-driven configuration of a Client.
type Config struct {
	Endpoint       string        `env:"LANDLORD_ENDPOINT" envDefault:"https://landlord.brightspace.com"`
	ClientName     string        `env:"LANDLORD_CLIENT_NAME"`
	BlockOnRefresh bool          `env:"LANDLORD_BLOCK_ON_REFRESH" envDefault:"false"`
	CacheSize      int           `env:"LANDLORD_CACHE_SIZE" envDefault:"2000"`
	RequestTimeout time.Duration `env:"LANDLORD_REQUEST_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads Config from the environment and, if present, a .env file.
func LoadConfig(opts ...config.LoadOption) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts cfg to client options. The in-memory cache is sized by
// CacheSize; pass WithCache after these options to use another backend.
func (cfg Config) Options() []Option {
	return []Option{
		WithEndpoint(cfg.Endpoint),
		WithName(cfg.ClientName),
		WithBlockOnRefresh(cfg.BlockOnRefresh),
		WithTimeout(cfg.RequestTimeout),
		WithCache(NewLRUCache(cfg.CacheSize)),
	}
}

// NewFromConfig creates a Client from cfg. opts are applied after the
// options derived from cfg and override them.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	return New(append(cfg.Options(), opts...)...)
}

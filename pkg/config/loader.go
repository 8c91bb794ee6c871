package config

import (
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadOption tweaks a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	files  []string
	prefix string
}

// WithEnvFiles reads the given dotenv files before parsing. Variables already
// present in the process environment win. Missing files are skipped.
// Without this option Load reads ".env" from the working directory if it exists.
func WithEnvFiles(paths ...string) LoadOption {
	return func(o *loadOptions) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every variable name in the struct tags,
// so the same struct can be loaded for several instances.
func WithPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// Load fills v from environment variables according to its `env` and
// `envDefault` struct tags.
//
// Example:
//
//	type ClientConfig struct {
//		Endpoint string        `env:"LANDLORD_ENDPOINT" envDefault:"https://landlord.brightspace.com"`
//		Timeout  time.Duration `env:"LANDLORD_REQUEST_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg ClientConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T, opts ...LoadOption) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if err := loadEnvFiles(o.files); err != nil {
		return err
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any](v *T, opts ...LoadOption) {
	if err := Load(v, opts...); err != nil {
		panic("config: " + err.Error())
	}
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

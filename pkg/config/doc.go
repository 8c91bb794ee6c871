// Package config loads typed configuration structs from environment variables.
//
// Struct fields are mapped with github.com/caarlos0/env tags. Before parsing,
// dotenv files are read with github.com/joho/godotenv; values already set in the
// process environment are never overridden by a file.
//
//	type Config struct {
//		Endpoint string `env:"LANDLORD_ENDPOINT" envDefault:"https://landlord.brightspace.com"`
//		Name     string `env:"LANDLORD_CLIENT_NAME"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg, config.WithEnvFiles(".env", ".env.local"))
package config

// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file on first use (github.com/joho/godotenv) and
// parses environment variables into struct fields with caarlos0/env.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/fanout/core/config"
//
//	type HubConfig struct {
//		PollInterval time.Duration `env:"FANOUT_POLL_INTERVAL" envDefault:"10ms"`
//		MaxPeers     int           `env:"FANOUT_MAX_PEERS" envDefault:"0"`
//	}
//
//	func main() {
//		var cfg HubConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process:
//
//	var cfg1 HubConfig
//	config.Load(&cfg1) // Parses the environment
//
//	var cfg2 HubConfig
//	config.Load(&cfg2) // Returns the cached value, cfg1 == cfg2
//
// Different types are cached independently. Nested structs such as
// server.Config or redis.Config embedded in an application config are
// parsed together with their parent.
package config

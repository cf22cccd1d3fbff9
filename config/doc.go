// Package config loads application configuration with Viper.
//
// A struct pre-populated with defaults is overlaid, in order, by an optional
// YAML file (./<name>.yml or ./config/<name>.yml), environment variables
// (a .env file is loaded first with godotenv), and command-line flags that
// were explicitly set. Every mapstructure key of the target struct is bound
// to an environment variable named after it:
//
//	cfg := MyConfig{Parmap: parmap.DefaultConfig()}
//	err := config.Load("pardigest", &cfg, config.WithEnvPrefix("PARDIGEST"))
//	// parmap.workers <- PARDIGEST_PARMAP_WORKERS
package config

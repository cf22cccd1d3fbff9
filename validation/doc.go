// Package validation checks configuration structs against their
// `validate:` struct tags using go-playground/validator.
//
// Fields are named by their mapstructure key so messages match what a user
// wrote in a config file or environment variable:
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"min=1"`
//	}
//	err := validation.Validate(cfg) // INVALID_CONFIG: workers: must be at least 1
package validation

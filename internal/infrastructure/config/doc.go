// Package config handles loading and validating sqlgate configuration.
//
// This package manages:
//   - Loading configuration from YAML or TOML files (chosen by extension)
//   - Overriding with SQLGATE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Shared secrets can be supplied via SQLGATE_ALLOWED_PASSWORDS instead of the file
//   - Secrets may be stored as Argon2id PHC strings (see `sqlgate hash-secret`)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Gateway.Route)
//
// The loaded *Config is treated as immutable and passed explicitly to the
// components that need it.
package config

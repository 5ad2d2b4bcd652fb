// Package config handles loading and validating psico client configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading an optional .env file next to the YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Credentials are never part of the configuration; they are entered at login
//   - The session database path should live in a directory only the user can read
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.AuthenticateURL())
package config

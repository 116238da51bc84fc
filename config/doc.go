// Package config loads client configuration from a YAML file, a .env file
// and environment variables using Viper.
//
// Precedence, lowest first: config file, .env file, process environment.
// Environment keys are matched to nested configuration keys, so
// HALCLIENT_RETRY_MAX_ATTEMPTS sets retry.max_attempts when the loader runs
// with WithEnvPrefix("HALCLIENT").
//
//	var cfg client.Config
//	err := config.Load("people-api", &cfg, config.WithEnvPrefix("HALCLIENT"))
//
// When the target implements Defaulter and Validator, Load applies defaults
// and validates after unmarshalling.
package config

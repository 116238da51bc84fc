package client

import (
	"github.com/kbukum/halclient/config"
	"github.com/kbukum/halclient/httpclient"
	"github.com/kbukum/halclient/validation"
	"github.com/kbukum/halclient/version"
)

// Config is the complete client configuration. Both halves are squashed, so
// a config file uses top-level keys:
//
//	name: people-api
//	base_url: https://api.example.com
//	timeout: 10s
//	auth:
//	  type: bearer
//	  token: ${TOKEN}
//	retry:
//	  max_attempts: 3
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	httpclient.Config    `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults fills in service, logging and transport defaults.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.UserAgent == "" && c.Name != "" {
		c.UserAgent = c.Name + " " + version.UserAgent()
	}
	c.Config.ApplyDefaults()
}

// Validate checks field rules, then the rules spanning fields.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c.Config); err != nil {
		return err
	}

	v := validation.New()
	v.AbsoluteURL("base_url", c.BaseURL).
		Positive("timeout", c.Timeout)
	if a := c.Auth; a != nil {
		switch a.Type {
		case httpclient.AuthBearer:
			v.Required("auth.token", a.Token)
		case httpclient.AuthBasic:
			v.Required("auth.username", a.Username)
		case httpclient.AuthAPIKey:
			v.Required("auth.key", a.Key)
		case httpclient.AuthCustom:
			v.Check(a.Apply != nil, "auth.type", "custom auth must be configured in code")
		}
	}
	if r := c.Retry; r != nil {
		v.NotAfter("retry.initial_backoff", r.InitialBackoff, r.MaxBackoff)
	}
	if err := v.Err(); err != nil {
		return err
	}
	return c.Config.Validate()
}

// LoadConfig loads, defaults and validates a Config for name.
func LoadConfig(name string, opts ...config.LoaderOption) (*Config, error) {
	var cfg Config
	if err := config.Load(name, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

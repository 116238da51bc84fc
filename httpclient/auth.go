package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType string

const (
	// AuthNone disables authentication.
	AuthNone AuthType = ""
	// AuthBearer uses Bearer token authentication.
	AuthBearer AuthType = "bearer"
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic AuthType = "basic"
	// AuthAPIKey sends an API key in a header.
	AuthAPIKey AuthType = "api_key"
	// AuthCustom uses a custom authentication function.
	AuthCustom AuthType = "custom"
)

// AuthConfig configures request authentication. Everything except Apply can
// be loaded from configuration files.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=bearer basic api_key custom"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	Key      string   `yaml:"key" mapstructure:"key"`
	// Header is the API key header name. Defaults to "X-API-Key".
	Header string `yaml:"header" mapstructure:"header"`
	// Apply modifies the request (AuthCustom).
	Apply func(*http.Request) `yaml:"-" mapstructure:"-"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent in the named header.
func APIKeyAuth(key, header string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, Header: header}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		name := a.Header
		if name == "" {
			name = "X-API-Key"
		}
		req.Header.Set(name, a.Key)
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}

package client

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/config"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/haltest"
	"github.com/kbukum/halclient/httpclient"
	"github.com/kbukum/halclient/logger"
	"github.com/kbukum/halclient/proxy"
	"github.com/kbukum/halclient/rest"
	"github.com/kbukum/halclient/version"
)

type Person struct{ *proxy.Proxy }

func (p Person) Name() (string, error) {
	return proxy.Property[string](p.Proxy, "name")
}

func (p Person) Manager(ctx context.Context) (Person, error) {
	return proxy.Relation[Person](ctx, p.Proxy, "manager")
}

func (p Person) Team(ctx context.Context) ([]Person, error) {
	return proxy.Relations[Person](ctx, p.Proxy, "team")
}

func newTestClient(t *testing.T, srv *haltest.Server, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{}
	cfg.Name = "people-api"
	cfg.BaseURL = srv.URL()
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestFetchAndFollowLinks(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people/1", `{
		"name": "Alice",
		"_links": {"self": {"href": "/people/1"}, "manager": {"href": "/people/2"}},
		"_embedded": {"team": [{"name": "Dan"}, {"name": "Eve"}]}
	}`)
	srv.Handle("/people/2", `{"name":"Bob","_links":{"self":{"href":"/people/2"}}}`)

	c := newTestClient(t, srv)
	ctx := context.Background()

	alice, err := Fetch[Person](ctx, c, "/people/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name, _ := alice.Name(); name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}

	team, err := alice.Team(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(team) != 2 {
		t.Errorf("expected 2 team members, got %d", len(team))
	}
	if srv.Hits(http.MethodGet, "/people/2") != 0 {
		t.Error("manager must not be fetched eagerly")
	}

	for i := 0; i < 3; i++ {
		bob, err := alice.Manager(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name, _ := bob.Name(); name != "Bob" {
			t.Errorf("expected Bob, got %q", name)
		}
	}
	if n := srv.Hits(http.MethodGet, "/people/2"); n != 1 {
		t.Errorf("expected exactly 1 fetch of the manager, got %d", n)
	}
}

func TestFetchAll(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people", `{"_embedded":{"people":[{"name":"Alice"},{"name":"Bob"}]},"_links":{"self":{"href":"/people"}}}`)
	srv.Handle("/people/all", `[{"name":"Alice"},{"name":"Bob"},{"name":"Carol"}]`)

	c := newTestClient(t, srv)
	ctx := context.Background()

	people, err := FetchAll[Person](ctx, c, "/people")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 2 {
		t.Errorf("expected 2 people from collection resource, got %d", len(people))
	}

	people, err = FetchAll[Person](ctx, c, "/people/all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 3 {
		t.Errorf("expected 3 people from array body, got %d", len(people))
	}
}

func TestFollowTemplate(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people/7", `{"name":"Grace"}`)

	c := newTestClient(t, srv)
	link := hal.Link{Rel: "person", Href: "/people/{id}", Templated: true}

	grace, err := Follow[Person](context.Background(), c, link, rest.Vars{"id": "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name, _ := grace.Name(); name != "Grace" {
		t.Errorf("expected Grace, got %q", name)
	}

	_, err = Follow[Person](context.Background(), c, link, nil)
	if !herrors.IsUnresolvedTemplateVariable(err) {
		t.Errorf("expected UNRESOLVED_TEMPLATE_VARIABLE, got %v", err)
	}
}

func TestTransportErrorOnAccessor(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people/1", `{"name":"Alice","_links":{"manager":{"href":"/people/404"}}}`)

	c := newTestClient(t, srv)
	alice, err := Fetch[Person](context.Background(), c, "/people/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = alice.Manager(context.Background())
	if !herrors.IsTransport(err) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	appErr, _ := herrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", appErr.HTTPStatus)
	}

	// The rest of the proxy is unaffected.
	if name, _ := alice.Name(); name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
}

func TestRetryOnServerError(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people/1", `{"name":"Alice"}`)
	srv.Fail("/people/1", http.StatusServiceUnavailable, 2)

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.Retry = &httpclient.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	})

	alice, err := Fetch[Person](context.Background(), c, "/people/1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if name, _ := alice.Name(); name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
	if n := srv.Hits(http.MethodGet, "/people/1"); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestRequestHeaders(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	srv.Handle("/people/1", `{"name":"Alice"}`)

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.Auth = httpclient.BearerAuth("secret")
		cfg.Headers = map[string]string{"X-Tenant": "acme"}
	})
	if _, err := Fetch[Person](context.Background(), c, "/people/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	h := reqs[0].Header
	if got := h.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", got)
	}
	if got := h.Get("X-Tenant"); got != "acme" {
		t.Errorf("expected tenant header, got %q", got)
	}
	if !strings.HasPrefix(h.Get("Accept"), hal.MediaType) {
		t.Errorf("expected HAL Accept header, got %q", h.Get("Accept"))
	}
	if h.Get(httpclient.HeaderRequestID) == "" {
		t.Error("expected request ID header")
	}
	if want := "people-api " + version.UserAgent(); h.Get("User-Agent") != want {
		t.Errorf("expected user agent %q, got %q", want, h.Get("User-Agent"))
	}
}

func TestWriteBack(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	c := newTestClient(t, srv)
	ctx := context.Background()

	carol, err := Create[Person](ctx, c, "/people", map[string]any{"name": "Carol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name, _ := carol.Name(); name != "Carol" {
		t.Errorf("expected Carol, got %q", name)
	}
	self, ok := carol.Self()
	if !ok {
		t.Fatal("expected created resource to carry a self link")
	}

	if err := Patch(ctx, c, carol, map[string]any{"title": "CTO"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body, _ := srv.Resource(self.Href); !strings.Contains(body, `"title":"CTO"`) {
		t.Errorf("expected patched resource, got %s", body)
	}

	if err := Save(ctx, c, carol); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body, _ := srv.Resource(self.Href); strings.Contains(body, "CTO") {
		t.Errorf("expected Save to replace the resource, got %s", body)
	}
	if n := srv.Hits(http.MethodPut, self.Href); n != 1 {
		t.Errorf("expected 1 PUT to the self link, got %d", n)
	}

	if err := Update(ctx, c, carol, map[string]any{"name": "Caroline"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := Delete(ctx, c, carol); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := srv.Resource(self.Href); ok {
		t.Error("expected resource to be deleted")
	}
}

func TestWriteBackWithoutSelf(t *testing.T) {
	srv := haltest.New()
	defer srv.Close()
	c := newTestClient(t, srv)

	env, _ := hal.Decode([]byte(`{"name":"Anon"}`))
	anon, err := Wrap[Person](c, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Delete(context.Background(), c, anon); !herrors.IsUnknownRelation(err) {
		t.Errorf("expected UNKNOWN_RELATION for missing self link, got %v", err)
	}
	if srv.TotalHits() != 0 {
		t.Errorf("expected no requests, got %d", srv.TotalHits())
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing name", Config{}, "name: is required"},
		{"relative base url", func() Config {
			c := Config{}
			c.Name = "people-api"
			c.BaseURL = "/api"
			return c
		}(), "base_url"},
		{"bearer without token", func() Config {
			c := Config{}
			c.Name = "people-api"
			c.Auth = &httpclient.AuthConfig{Type: httpclient.AuthBearer}
			return c
		}(), "auth.token: is required"},
		{"backoff above max", func() Config {
			c := Config{}
			c.Name = "people-api"
			c.Retry = &httpclient.RetryConfig{InitialBackoff: time.Second, MaxBackoff: time.Millisecond}
			return c
		}(), "retry.initial_backoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, WithLogger(logger.Nop()))
			if err == nil {
				t.Fatal("expected error")
			}
			if !herrors.HasCode(err, herrors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people-api.yml")
	content := `
name: people-api
environment: production
base_url: https://api.example.com
timeout: 3s
auth:
  type: bearer
  token: from-file
retry:
  max_attempts: 5
  initial_backoff: 50ms
logging:
  level: warn
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PEOPLE_AUTH_TOKEN", "from-env")

	cfg, err := LoadConfig("people-api", config.WithConfigFile(path), config.WithEnvPrefix("PEOPLE"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("unexpected base_url %q", cfg.BaseURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Timeout)
	}
	if cfg.Auth == nil || cfg.Auth.Type != httpclient.AuthBearer || cfg.Auth.Token != "from-env" {
		t.Errorf("expected bearer auth with env token, got %+v", cfg.Auth)
	}
	if cfg.Retry == nil || cfg.Retry.MaxAttempts != 5 || cfg.Retry.InitialBackoff != 50*time.Millisecond {
		t.Errorf("unexpected retry config %+v", cfg.Retry)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Debug {
		t.Error("production must not enable debug")
	}

	c, err := New(*cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Close()
}

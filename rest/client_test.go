package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/httpclient"
	"github.com/kbukum/halclient/logger"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a, err := httpclient.New(httpclient.Config{BaseURL: srv.URL}, httpclient.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return New(a, opts...), srv
}

func TestClient_Get(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accept := r.Header.Get("Accept"); !strings.HasPrefix(accept, hal.MediaType) {
			t.Errorf("expected HAL Accept header, got %q", accept)
		}
		if r.Header.Get(httpclient.HeaderRequestID) == "" {
			t.Error("expected request ID header")
		}
		w.Write([]byte(`{"name":"Alice"}`))
	}))

	body, err := c.Get(context.Background(), "/people/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"name":"Alice"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestClient_Follow(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/42" {
			t.Errorf("expected /people/42, got %s", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	}))

	link := hal.Link{Rel: "person", Href: "/people/{id}", Templated: true}
	if _, err := c.Follow(context.Background(), link, Vars{"id": "42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := c.Follow(context.Background(), link, nil)
	if !herrors.IsUnresolvedTemplateVariable(err) {
		t.Errorf("expected UNRESOLVED_TEMPLATE_VARIABLE, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such person"}`))
	}))

	_, err := c.Get(context.Background(), "/people/9")
	if !herrors.IsTransport(err) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	appErr, _ := herrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", appErr.HTTPStatus)
	}
	if !strings.Contains(string(appErr.Body), "no such person") {
		t.Errorf("expected response body on error, got %s", appErr.Body)
	}
	if appErr.Retryable {
		t.Error("404 must not be retryable")
	}
	if !httpclient.IsNotFound(err) {
		t.Error("transport error should unwrap to the adapter classification")
	}
}

func TestClient_ConnectionError(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := c.Get(context.Background(), "/people/1")
	if !herrors.IsTransport(err) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	appErr, _ := herrors.AsAppError(err)
	if appErr.HTTPStatus != 0 {
		t.Errorf("expected status 0 for connection failure, got %d", appErr.HTTPStatus)
	}
	if !appErr.Retryable {
		t.Error("connection failures should be retryable")
	}
}

func TestClient_Post(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(data), `"name":"Carol"`) {
			t.Errorf("unexpected request body %s", data)
		}
		w.Header().Set("Location", "/people/3")
		w.WriteHeader(http.StatusCreated)
	}))

	res, err := c.Post(context.Background(), "/people", map[string]any{"name": "Carol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", res.StatusCode)
	}
	if res.Location != "/people/3" {
		t.Errorf("expected Location /people/3, got %q", res.Location)
	}
}

func TestClient_PutEnvelopeContentType(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != hal.MediaType {
			t.Errorf("expected Content-Type %s, got %q", hal.MediaType, ct)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	env, err := hal.Decode([]byte(`{"name":"Alice","_links":{"self":{"href":"/people/1"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Put(context.Background(), "/people/1", env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_PatchAndDelete(t *testing.T) {
	var methods []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if _, err := c.Patch(ctx, "/people/1", map[string]any{"name": "Al"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Delete(ctx, "/people/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodPatch || methods[1] != http.MethodDelete {
		t.Errorf("expected [PATCH DELETE], got %v", methods)
	}
}

func TestClient_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{}`))
	}), WithTracerProvider(tp))

	ctx := context.Background()
	if _, err := c.Get(ctx, "/ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(ctx, "/bad"); err == nil {
		t.Fatal("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "HAL GET" {
		t.Errorf("expected span name HAL GET, got %q", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("successful request should not mark the span as failed")
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status on failed span, got %v", spans[1].Status().Code)
	}

	var status int64
	for _, kv := range spans[1].Attributes() {
		if kv.Key == "http.response.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	if status != http.StatusBadRequest {
		t.Errorf("expected status attribute 400, got %d", status)
	}
}

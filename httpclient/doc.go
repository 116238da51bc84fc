// Package httpclient is the HTTP transport under the HAL REST gateway.
//
// The Adapter handles authentication, TLS, default headers, request IDs and
// exponential-backoff retries of retryable failures. Non-2xx responses come
// back together with a classified *Error so callers can still read the body.
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 10 * time.Second,
//	    Auth:    httpclient.BearerAuth("my-token"),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/people/1",
//	})
package httpclient

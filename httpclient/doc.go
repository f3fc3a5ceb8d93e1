// Package httpclient executes declarative endpoints against a configured service.
//
// An Endpoint describes one request (path, method, headers, query, body, timeout).
// A Client resolves it against its Configuration, sends it through a
// transport.Transport with bounded immediate retry, validates the status and
// decodes the body:
//
//	cfg, err := httpclient.NewConfiguration("https://api.example.com",
//		httpclient.WithBasePath("/v1"),
//		httpclient.WithGlobalHeaders(map[string]string{"X-API-Key": key}),
//	)
//	if err != nil {
//		return err
//	}
//	client := httpclient.New(httpclient.WithConfiguration(cfg), httpclient.WithMaxRetries(2))
//	user, err := httpclient.Do[User](ctx, client, httpclient.Get("/users/42"))
//
// Every failure of a call is an *Error whose Kind tells the caller what went
// wrong. Only transport failures (KindTimeout, KindNetworkFailure) are retried.
// File system failures during Download are returned as plain wrapped errors.
package httpclient

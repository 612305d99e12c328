package ethrpc

import (
	"net/http"

	"github.com/go-chi/transport"
	"github.com/rs/zerolog"
)

type Option func(*Provider)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func WithHTTPClient(c httpClient) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// WithHeader sets a header on every request sent to the node. Only applies when
// the provider's client is an *http.Client.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		if p.headers == nil {
			p.headers = map[string]string{}
		}
		p.headers[key] = value
	}
}

func WithJWTAuthorization(jwtToken string) Option {
	return WithHeader("Authorization", "BEARER "+jwtToken)
}

// WithoutBatching sends every call in its own request, for nodes that reject
// JSONRPC batches. Calls passed to a single Do still run concurrently.
func WithoutBatching() Option {
	return func(p *Provider) {
		p.unbatched = true
	}
}

func withHeaders(c httpClient, headers map[string]string) httpClient {
	hc, ok := c.(*http.Client)
	if !ok {
		return c
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rts := make([]func(http.RoundTripper) http.RoundTripper, 0, len(headers))
	for k, v := range headers {
		rts = append(rts, transport.SetHeader(k, v))
	}
	client := *hc
	client.Transport = transport.Chain(base, rts...)
	return &client
}

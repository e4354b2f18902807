// Package viacep resolves Brazilian postal codes (CEP) through the ViaCEP
// web service.
package viacep

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/errkind"
)

// DefaultBaseURL is the public ViaCEP endpoint.
const DefaultBaseURL = "https://viacep.com.br"

const maxBodySize = 64 << 10

var _ address.Lookup = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout bounds a single lookup.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// WithTelemetry instruments outgoing requests with the given providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(cl *Client) {
		base := cl.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		cl.http.Transport = otelhttp.NewTransport(base,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		)
	}
}

// Client implements address.Lookup.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LookupAddress resolves postalCode. It returns address.ErrMalformedPostalCode
// for codes without exactly eight digits, address.ErrNotFound when ViaCEP
// knows no such code, and a transient error when the service cannot be
// reached or answers unexpectedly.
func (c *Client) LookupAddress(ctx context.Context, postalCode string) (*address.Fields, error) {
	cep, err := address.NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ws/"+cep+"/json/", http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errkind.Transient(errors.Wrapf(err, "lookup %s", cep))
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, address.ErrMalformedPostalCode
	case http.StatusNotFound:
		return nil, address.ErrNotFound
	default:
		return nil, errkind.Transient(errors.Errorf("lookup %s: unexpected status %d", cep, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errkind.Transient(errors.Wrapf(err, "read %s", cep))
	}

	var r response
	if err := r.Decode(jx.DecodeBytes(body)); err != nil {
		return nil, errkind.Transient(errors.Wrapf(err, "decode %s", cep))
	}
	if r.NotFound {
		return nil, address.ErrNotFound
	}

	code := r.CEP
	if code == "" {
		code = cep
	}
	return &address.Fields{
		PostalCode:   address.FormatPostalCode(code),
		Street:       r.Street,
		Complement:   r.Complement,
		Neighborhood: r.Neighborhood,
		City:         r.City,
		State:        r.State,
	}, nil
}

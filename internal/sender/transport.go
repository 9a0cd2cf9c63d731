package sender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"pricemind-sync-api/internal/model"
)

// maxResponseBody caps how much of a response body is kept.
const maxResponseBody = 1 << 20

// Request is a fully prepared outbound call handed to a Transport.
type Request struct {
	Method         string
	URL            string
	Header         map[string]string
	Body           []byte
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// Response is what a Transport received.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs one HTTP exchange. Implementations may ignore the
// timeouts carried by the request.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

type connectTimeoutKey struct{}

// HTTPTransport is the net/http Transport. The connect timeout of each
// request is applied by the dialer, the total timeout by the request context.
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTPTransport with its own connection pool.
func NewHTTPTransport() *HTTPTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: model.DefaultConnectTimeout, KeepAlive: 30 * time.Second}
		if v, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && v > 0 {
			d.Timeout = v
		}
		return d.DialContext(ctx, network, addr)
	}
	base.MaxIdleConnsPerHost = 10

	return &HTTPTransport{client: &http.Client{Transport: base}}
}

// Do sends req and reads at most maxResponseBody bytes of the response.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = model.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if req.ConnectTimeout > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, req.ConnectTimeout)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return Response{Status: resp.StatusCode, Body: data}, nil
}

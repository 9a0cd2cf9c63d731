// Package sender posts JSON payloads to the Pricemind API and turns every
// result, including transport failures, into a model.SendOutcome.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pricemind-sync-api/internal/metrics"
	"pricemind-sync-api/internal/model"
)

// Sender never returns errors; failures are reported in the outcome.
type Sender struct {
	transport Transport
	logger    *slog.Logger
}

// New creates a Sender on top of transport.
func New(transport Transport, logger *slog.Logger) *Sender {
	return &Sender{transport: transport, logger: logger}
}

// SendJSON serializes req.Payload and sends it. An empty URL is a no-op
// success.
func (s *Sender) SendJSON(ctx context.Context, req model.OutboundRequest) (outcome model.SendOutcome) {
	if req.URL == "" {
		return model.SendOutcome{OK: true}
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = model.DefaultMethod
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = s.failed(method, req.URL, fmt.Errorf("panic: %v", r))
		}
	}()

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return s.failed(method, req.URL, err)
	}

	connectTimeout := req.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = model.DefaultConnectTimeout
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = model.DefaultTimeout
	}

	start := time.Now()
	resp, err := s.transport.Do(ctx, Request{
		Method:         method,
		URL:            req.URL,
		Header:         mergeHeaders(req.Headers),
		Body:           body,
		ConnectTimeout: connectTimeout,
		Timeout:        timeout,
	})
	if err != nil {
		metrics.RecordOutbound(method, nil, time.Since(start))
		return s.failed(method, req.URL, err)
	}

	status := resp.Status
	respBody := string(resp.Body)
	metrics.RecordOutbound(method, &status, time.Since(start))

	ok := status >= 200 && status < 300
	if !ok {
		s.logger.Warn("[Pricemind] Non-2xx response",
			"method", method,
			"url", req.URL,
			"status", status,
			"body", respBody,
		)
	}
	return model.SendOutcome{OK: ok, Status: &status, Body: &respBody}
}

func (s *Sender) failed(method, url string, err error) model.SendOutcome {
	msg := err.Error()
	s.logger.Warn("[Pricemind] Send failed",
		"method", method,
		"url", url,
		"error", msg,
	)
	return model.SendOutcome{OK: false, Body: &msg}
}

// mergeHeaders layers caller headers over the JSON content type. Keys are
// canonicalized so a caller's "content-type" replaces the default.
func mergeHeaders(headers map[string]string) map[string]string {
	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}

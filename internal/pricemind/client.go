// Package pricemind resolves the per-website Pricemind connection and
// performs the read-only admin calls against the Pricemind API.
package pricemind

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pricemind-sync-api/internal/metrics"
	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/pkg/secret"

	"golang.org/x/time/rate"
)

// ConfigReader resolves a config path for a website, falling back to the
// default scope. An empty website reads the default scope only.
type ConfigReader interface {
	Value(ctx context.Context, path, website string) (string, error)
}

// Options tunes the client.
type Options struct {
	DefaultBaseURL string
	Timeout        time.Duration
	RatePerSecond  float64
	Burst          int
}

// Client talks to the Pricemind API on behalf of one installation.
type Client struct {
	config         ConfigReader
	secrets        secret.Decrypter
	http           *http.Client
	limiter        *rate.Limiter
	defaultBaseURL string
	logger         *slog.Logger
}

// NewClient creates a Client. Zero options get a 10s timeout and 5 req/s.
func NewClient(config ConfigReader, secrets secret.Decrypter, opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	return &Client{
		config:         config,
		secrets:        secrets,
		http:           &http.Client{Timeout: opts.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		defaultBaseURL: opts.DefaultBaseURL,
		logger:         logger,
	}
}

// BaseURL returns the configured API root without a trailing slash.
func (c *Client) BaseURL(ctx context.Context, website string) string {
	base, err := c.config.Value(ctx, model.ConfigPathBaseURL, website)
	if err != nil {
		c.logger.Error("[Pricemind] Failed to read base url", "website", website, "error", err)
	}
	if strings.TrimSpace(base) == "" {
		base = c.defaultBaseURL
	}
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// APIKey returns the decrypted API key, or "" when none is configured or it
// cannot be decrypted.
func (c *Client) APIKey(ctx context.Context, website string) string {
	encrypted, err := c.config.Value(ctx, model.ConfigPathAccessKey, website)
	if err != nil {
		c.logger.Error("[Pricemind] Failed to read API key", "website", website, "error", err)
		return ""
	}
	if encrypted == "" {
		return ""
	}
	key, err := c.secrets.Decrypt(encrypted)
	if err != nil {
		c.logger.Error("[Pricemind] Failed to decrypt API key", "website", website, "error", err)
		return ""
	}
	return strings.TrimSpace(key)
}

// ChannelID returns the selected channel id.
func (c *Client) ChannelID(ctx context.Context, website string) string {
	id, err := c.config.Value(ctx, model.ConfigPathChannelID, website)
	if err != nil {
		c.logger.Error("[Pricemind] Failed to read channel id", "website", website, "error", err)
		return ""
	}
	return strings.TrimSpace(id)
}

// ResolveChannelConfig returns everything needed to push prices for website.
func (c *Client) ResolveChannelConfig(ctx context.Context, website string) model.ChannelConfig {
	return model.ChannelConfig{
		BaseURL:   c.BaseURL(ctx, website),
		APIKey:    c.APIKey(ctx, website),
		ChannelID: c.ChannelID(ctx, website),
	}
}

// ListChannels returns the channels visible to the configured API key, or
// nil when the key is missing or the call fails.
func (c *Client) ListChannels(ctx context.Context, website string) []model.Channel {
	apiKey := c.APIKey(ctx, website)
	if apiKey == "" {
		return nil
	}

	data, ok := c.getData(ctx, c.BaseURL(ctx, website)+"/v1/channels", apiKey, "fetching channels")
	if !ok {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("[Pricemind] Unexpected channels response", "body", string(data))
		return nil
	}
	channels := make([]model.Channel, 0, len(items))
	for _, item := range items {
		var ch model.Channel
		if err := json.Unmarshal(item, &ch); err != nil {
			c.logger.Debug("[Pricemind] Skipping malformed channel", "item", string(item), "error", err)
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}

// ActiveChannelSource returns the active product source of channelID.
func (c *Client) ActiveChannelSource(ctx context.Context, channelID, website string) *model.ChannelSource {
	apiKey := c.APIKey(ctx, website)
	if apiKey == "" {
		return nil
	}

	endpoint := c.BaseURL(ctx, website) + "/v1/channels/" + url.PathEscape(channelID) + "/sources/active"
	data, ok := c.getData(ctx, endpoint, apiKey, "fetching active channel source")
	if !ok {
		return nil
	}

	var source model.ChannelSource
	if !isObject(data) || json.Unmarshal(data, &source) != nil {
		c.logger.Warn("[Pricemind] Unexpected active source response", "body", string(data))
		return nil
	}
	return &source
}

// LookupProductDomainID resolves the Pricemind product domain of sku.
func (c *Client) LookupProductDomainID(ctx context.Context, channelID, sku, website string) (int, bool) {
	apiKey := c.APIKey(ctx, website)
	if apiKey == "" {
		return 0, false
	}

	endpoint := c.BaseURL(ctx, website) + "/v1/channels/" + url.PathEscape(channelID) +
		"/product-domain?sku=" + url.QueryEscape(sku)
	data, ok := c.getData(ctx, endpoint, apiKey, "product domain lookup")
	if !ok || !isObject(data) {
		return 0, false
	}

	var body struct {
		ProductDomainID json.RawMessage `json:"product_domain_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return 0, false
	}
	raw := bytes.TrimSpace(body.ProductDomainID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var id model.FlexibleID
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, false
	}
	if f, err := strconv.ParseFloat(string(id), 64); err == nil {
		return int(f), true
	}
	return model.LeadingInt(string(id)), true
}

// getData performs a GET and returns the "data" member of the response.
func (c *Client) getData(ctx context.Context, endpoint, apiKey, what string) (json.RawMessage, bool) {
	body, status, err := c.get(ctx, endpoint, apiKey)
	if err != nil {
		c.logger.Error(fmt.Sprintf("[Pricemind] Error %s", what), "url", endpoint, "error", err)
		return nil, false
	}
	if status < 200 || status >= 300 {
		c.logger.Warn(fmt.Sprintf("[Pricemind] Non-2xx %s", what), "status", status, "body", string(body))
		return nil, false
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || !isContainer(envelope.Data) {
		c.logger.Warn(fmt.Sprintf("[Pricemind] Unexpected response %s", what), "body", string(body))
		return nil, false
	}
	return envelope.Data, true
}

func (c *Client) get(ctx context.Context, endpoint, apiKey string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordOutbound(http.MethodGet, nil, time.Since(start))
		return nil, 0, err
	}
	defer resp.Body.Close()
	status := resp.StatusCode
	metrics.RecordOutbound(http.MethodGet, &status, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, status, fmt.Errorf("read response: %w", err)
	}
	return body, status, nil
}

func isObject(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func isContainer(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '{' || data[0] == '[')
}

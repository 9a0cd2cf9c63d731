package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"pricemind-sync-api/internal/metrics"
	"pricemind-sync-api/internal/model"

	"github.com/shopspring/decimal"
)

// ChannelResolver resolves the Pricemind connection of a website.
type ChannelResolver interface {
	ResolveChannelConfig(ctx context.Context, website string) model.ChannelConfig
}

// JSONSender delivers one outbound request.
type JSONSender interface {
	SendJSON(ctx context.Context, req model.OutboundRequest) model.SendOutcome
}

// FailureRecorder persists failed outbound requests.
type FailureRecorder interface {
	InsertFailedRequest(ctx context.Context, rec *model.FailedRequestRecord) error
}

const redactedValue = "***"

// Dispatch kinds, used as metric labels.
const (
	dispatchPrice       = "price"
	dispatchSpecialFrom = "special_from"
	dispatchSpecialTo   = "special_to"
)

// PriceSyncService pushes price changes of saved products to Pricemind.
type PriceSyncService struct {
	resolver ChannelResolver
	sender   JSONSender
	failures FailureRecorder
	logger   *slog.Logger
}

// NewPriceSyncService creates a new price sync service.
func NewPriceSyncService(resolver ChannelResolver, sender JSONSender, failures FailureRecorder, logger *slog.Logger) *PriceSyncService {
	return &PriceSyncService{
		resolver: resolver,
		sender:   sender,
		failures: failures,
		logger:   logger,
	}
}

// HandlePriceChange sends the price, special start date and special end
// date updates implied by snap, in that order. It never fails: problems are
// logged, failed calls are recorded, and the result only reports what
// happened.
func (s *PriceSyncService) HandlePriceChange(ctx context.Context, snap *model.PriceSnapshot) (result model.DispatchResult) {
	if snap == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[Pricemind] Price sync panicked", "sku", snap.SKU, "panic", fmt.Sprint(r))
		}
	}()

	changes := snap.Changes()
	if !changes.Any() {
		return result
	}
	result.Changed = true

	cfg := s.resolver.ResolveChannelConfig(ctx, snap.WebsiteCode)
	if !cfg.Configured() {
		return result
	}
	result.Configured = true

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	headers := map[string]string{"X-API-Key": cfg.APIKey}

	if changes.Price || changes.SpecialPrice {
		payload := model.PricePayload{
			ProductSKU:  snap.SKU,
			Price:       model.StringValue(snap.NewPrice),
			Currency:    snap.CurrencyCode,
			IncludesTax: true,
		}
		if changes.SpecialPrice {
			payload.SpecialPrice = specialPriceValue(snap.NewSpecialPrice)
		}
		s.dispatch(ctx, &result, dispatchPrice, model.OutboundRequest{
			URL:            baseURL + "/v1/channels/" + url.PathEscape(cfg.ChannelID) + "/prices",
			Method:         http.MethodPost,
			Headers:        headers,
			Payload:        payload,
			ConnectTimeout: model.DefaultConnectTimeout,
			Timeout:        model.DefaultTimeout,
		})
	}

	// The custom-field payload carries the channel id as an integer while the
	// price URL keeps the raw string; a non-numeric id becomes 0 here.
	channelIDInt := model.LeadingInt(cfg.ChannelID)

	if changes.SpecialFrom {
		s.dispatch(ctx, &result, dispatchSpecialFrom,
			customFieldRequest(baseURL, headers, model.CustomFieldPayload{
				ChannelID:   channelIDInt,
				MachineName: model.SpecialPriceStartDateField,
				ProductSKU:  snap.SKU,
				Value:       model.StringValue(snap.NewSpecialFrom),
			}))
	}
	if changes.SpecialTo {
		s.dispatch(ctx, &result, dispatchSpecialTo,
			customFieldRequest(baseURL, headers, model.CustomFieldPayload{
				ChannelID:   channelIDInt,
				MachineName: model.SpecialPriceEndDateField,
				ProductSKU:  snap.SKU,
				Value:       model.StringValue(snap.NewSpecialTo),
			}))
	}

	return result
}

func customFieldRequest(baseURL string, headers map[string]string, payload model.CustomFieldPayload) model.OutboundRequest {
	return model.OutboundRequest{
		URL:            baseURL + "/v1/custom-fields",
		Method:         http.MethodPut,
		Headers:        headers,
		Payload:        payload,
		ConnectTimeout: model.DefaultConnectTimeout,
		Timeout:        model.DefaultTimeout,
	}
}

// specialPriceValue sends a positive special price as given and clears it
// (explicit null) otherwise, including when it does not parse as a number.
func specialPriceValue(v *string) model.NullableString {
	if v == nil || *v == "" {
		return model.NullableString{Set: true}
	}
	// Partially numeric values such as "12abc" are rejected, not truncated to 12.
	d, err := decimal.NewFromString(strings.TrimSpace(*v))
	if err != nil || !d.IsPositive() {
		return model.NullableString{Set: true}
	}
	return model.NullableString{Set: true, Value: v}
}

func (s *PriceSyncService) dispatch(ctx context.Context, result *model.DispatchResult, kind string, req model.OutboundRequest) {
	outcome := s.sender.SendJSON(ctx, req)
	result.Attempted++
	metrics.RecordDispatch(kind, outcome.OK)
	if outcome.OK {
		return
	}
	result.Failed++
	s.recordFailure(ctx, req, outcome)
}

func (s *PriceSyncService) recordFailure(ctx context.Context, req model.OutboundRequest, outcome model.SendOutcome) {
	rec := &model.FailedRequestRecord{
		Endpoint:      req.URL,
		Method:        req.Method,
		Headers:       redactHeaders(req.Headers),
		Payload:       marshalPayload(req.Payload),
		Error:         model.StringValue(outcome.Body),
		RetryCount:    0,
		Status:        0,
		NextAttemptAt: nil,
	}

	err := s.failures.InsertFailedRequest(ctx, rec)
	metrics.RecordFailurePersisted(err)
	if err != nil {
		s.logger.Error("[Pricemind] Failed to persist failed request",
			"endpoint", req.URL,
			"method", req.Method,
			"error", err,
		)
	}
}

func redactHeaders(headers map[string]string) string {
	redacted := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.EqualFold(k, "X-API-Key") {
			v = redactedValue
		}
		redacted[k] = v
	}
	data, err := json.Marshal(redacted)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func marshalPayload(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

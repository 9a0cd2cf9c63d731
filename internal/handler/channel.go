package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/pkg/apierror"
	"pricemind-sync-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ChannelAdmin is the channel selector backend.
type ChannelAdmin interface {
	Options(ctx context.Context, website string) (model.ChannelOptions, error)
	SaveChannel(ctx context.Context, website, channelID string) (model.SourceDetection, error)
}

// ProductDomainLookup resolves Pricemind product domains.
type ProductDomainLookup interface {
	LookupProductDomainID(ctx context.Context, channelID, sku, website string) (int, bool)
}

// ChannelHandler serves the channel admin endpoints.
type ChannelHandler struct {
	channels ChannelAdmin
	lookup   ProductDomainLookup
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(channels ChannelAdmin, lookup ProductDomainLookup) *ChannelHandler {
	return &ChannelHandler{channels: channels, lookup: lookup}
}

// List handles GET /api/v1/channels?website=
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	website := strings.TrimSpace(r.URL.Query().Get("website"))

	opts, err := h.channels.Options(r.Context(), website)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load channel options"))
		return
	}
	response.OK(w, opts)
}

// SelectChannelRequest is the body of PUT /api/v1/channels/selected.
type SelectChannelRequest struct {
	Website   string `json:"website"`
	ChannelID string `json:"channel_id"`
}

// Select handles PUT /api/v1/channels/selected
func (h *ChannelHandler) Select(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req SelectChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	detection, err := h.channels.SaveChannel(r.Context(), strings.TrimSpace(req.Website), req.ChannelID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to save channel"))
		return
	}
	response.OK(w, detection)
}

// ProductDomain handles GET /api/v1/channels/{channel_id}/product-domain?sku=&website=
func (h *ChannelHandler) ProductDomain(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	sku := r.URL.Query().Get("sku")
	if sku == "" {
		response.Error(w, apierror.BadRequest("sku is required"))
		return
	}

	id, ok := h.lookup.LookupProductDomainID(r.Context(), channelID, sku, strings.TrimSpace(r.URL.Query().Get("website")))
	if !ok {
		response.Error(w, apierror.NotFound("product domain not found"))
		return
	}
	response.OK(w, map[string]interface{}{
		"channel_id":        channelID,
		"sku":               sku,
		"product_domain_id": id,
	})
}

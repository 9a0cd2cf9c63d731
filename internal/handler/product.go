package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/pkg/apierror"
	"pricemind-sync-api/pkg/response"
)

const maxEventBody = 1 << 20

// PriceSyncer handles one product save event.
type PriceSyncer interface {
	HandlePriceChange(ctx context.Context, snap *model.PriceSnapshot) model.DispatchResult
}

// ProductHandler receives product save events.
type ProductHandler struct {
	sync PriceSyncer
}

// NewProductHandler creates a new product handler.
func NewProductHandler(sync PriceSyncer) *ProductHandler {
	return &ProductHandler{sync: sync}
}

// PriceEvent handles POST /api/v1/products/price-events. Once the snapshot
// is valid the response is always 200 with the dispatch result.
func (h *ProductHandler) PriceEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var snap model.PriceSnapshot
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&snap); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if strings.TrimSpace(snap.SKU) == "" {
		response.Error(w, apierror.ValidationError("invalid price event",
			apierror.FieldError{Field: "sku", Message: "sku is required"}))
		return
	}

	response.OK(w, h.sync.HandlePriceChange(r.Context(), &snap))
}

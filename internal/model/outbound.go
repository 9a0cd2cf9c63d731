package model

import (
	"encoding/json"
	"time"
)

// Defaults applied to outbound requests that leave them unset.
const (
	DefaultConnectTimeout = 1 * time.Second
	DefaultTimeout        = 2 * time.Second
	DefaultMethod         = "POST"
)

// Custom field machine names on the Pricemind side.
const (
	SpecialPriceStartDateField = "special_price_start_date"
	SpecialPriceEndDateField   = "special_price_end_date"
)

// OutboundRequest is a single JSON call to the Pricemind API.
type OutboundRequest struct {
	URL            string
	Method         string
	Headers        map[string]string
	Payload        any
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// SendOutcome is the uniform result of a send. Status and Body are nil when
// no response was received.
type SendOutcome struct {
	OK     bool    `json:"ok"`
	Status *int    `json:"status"`
	Body   *string `json:"body"`
}

// NullableString distinguishes an absent value (Set=false) from an explicit
// JSON null (Set=true, Value=nil).
type NullableString struct {
	Set   bool
	Value *string
}

// PricePayload is the body of POST /v1/channels/{id}/prices.
type PricePayload struct {
	ProductSKU   string
	Price        string
	Currency     string
	IncludesTax  bool
	SpecialPrice NullableString
}

type pricePayloadBase struct {
	ProductSKU  string `json:"product_sku"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	IncludesTax bool   `json:"includes_tax"`
}

// MarshalJSON omits special_price unless it is set, in which case it is
// written as a string or null.
func (p PricePayload) MarshalJSON() ([]byte, error) {
	base := pricePayloadBase{
		ProductSKU:  p.ProductSKU,
		Price:       p.Price,
		Currency:    p.Currency,
		IncludesTax: p.IncludesTax,
	}
	if !p.SpecialPrice.Set {
		return json.Marshal(base)
	}
	return json.Marshal(struct {
		pricePayloadBase
		SpecialPrice *string `json:"special_price"`
	}{base, p.SpecialPrice.Value})
}

// CustomFieldPayload is the body of PUT /v1/custom-fields.
type CustomFieldPayload struct {
	ChannelID   int    `json:"channel_id"`
	MachineName string `json:"machine_name"`
	ProductSKU  string `json:"product_sku"`
	Value       string `json:"value"`
}

// DispatchResult summarizes what a price change event caused.
type DispatchResult struct {
	Changed    bool `json:"changed"`
	Configured bool `json:"configured"`
	Attempted  int  `json:"attempted"`
	Failed     int  `json:"failed"`
}

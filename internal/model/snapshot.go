package model

// PriceSnapshot holds the before/after values of the watched price fields for
// one save of one product. A nil pointer means the attribute had no value.
type PriceSnapshot struct {
	SKU          string `json:"sku"`
	StoreID      int    `json:"store_id"`
	WebsiteCode  string `json:"website_code"`
	CurrencyCode string `json:"currency_code"`

	OldPrice *string `json:"old_price"`
	NewPrice *string `json:"new_price"`

	OldSpecialPrice *string `json:"old_special_price"`
	NewSpecialPrice *string `json:"new_special_price"`

	OldSpecialFrom *string `json:"old_special_from_date"`
	NewSpecialFrom *string `json:"new_special_from_date"`

	OldSpecialTo *string `json:"old_special_to_date"`
	NewSpecialTo *string `json:"new_special_to_date"`
}

// PriceChanges reports which watched fields differ between old and new values.
type PriceChanges struct {
	Price        bool
	SpecialPrice bool
	SpecialFrom  bool
	SpecialTo    bool
}

// Any reports whether at least one watched field changed.
func (c PriceChanges) Any() bool {
	return c.Price || c.SpecialPrice || c.SpecialFrom || c.SpecialTo
}

// Changes compares the snapshot's old and new values. A missing old price is
// always a change so the first save of a product is pushed.
func (s *PriceSnapshot) Changes() PriceChanges {
	return PriceChanges{
		Price:        s.OldPrice == nil || differs(s.OldPrice, s.NewPrice),
		SpecialPrice: differs(s.OldSpecialPrice, s.NewSpecialPrice),
		SpecialFrom:  differs(s.OldSpecialFrom, s.NewSpecialFrom),
		SpecialTo:    differs(s.OldSpecialTo, s.NewSpecialTo),
	}
}

func differs(a, b *string) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

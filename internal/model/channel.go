package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ChannelConfig is the per-website Pricemind connection resolved from config.
type ChannelConfig struct {
	BaseURL   string
	APIKey    string
	ChannelID string
}

// Configured reports whether the integration is enabled for the scope.
func (c ChannelConfig) Configured() bool {
	return c.APIKey != "" && c.ChannelID != ""
}

// FlexibleID accepts both JSON numbers and strings.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexibleID(n.String())
	return nil
}

// Channel is one entry of GET /v1/channels.
type Channel struct {
	ID        FlexibleID `json:"id,omitempty"`
	ChannelID FlexibleID `json:"channel_id,omitempty"`
	Name      string     `json:"name,omitempty"`
}

// Identifier prefers channel_id and falls back to id.
func (c Channel) Identifier() string {
	if c.ChannelID != "" {
		return string(c.ChannelID)
	}
	return string(c.ID)
}

// ChannelSource is the active product source of a channel.
type ChannelSource struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Config ChannelSourceConfig `json:"config"`
}

// ChannelSourceConfig carries the free-form attribute mapping of a source.
type ChannelSourceConfig struct {
	Mapping map[string]any `json:"mapping,omitempty"`
}

// ChannelOption is one selectable channel in the admin form.
type ChannelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChannelOptions is the channel selector state for a scope.
type ChannelOptions struct {
	Enabled bool            `json:"enabled"`
	Comment string          `json:"comment,omitempty"`
	Options []ChannelOption `json:"options"`
}

// SourceDetection is what was learned about a channel's active source.
type SourceDetection struct {
	ChannelID         string `json:"channel_id"`
	SourceType        string `json:"source_type"`
	SourceTitle       string `json:"source_title"`
	IsMagento         bool   `json:"is_magento"`
	SpecialFromField  string `json:"special_from_field,omitempty"`
	SpecialToField    string `json:"special_to_field,omitempty"`
	SourceUnavailable bool   `json:"source_unavailable,omitempty"`
}

// LeadingInt parses the optional sign and leading decimal digits of s,
// ignoring anything after them. "12abc" is 12 and "abc" is 0.
func LeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, strconv.IntSize)
	if err != nil {
		n = math.MaxInt
		if neg {
			return math.MinInt
		}
	}
	if neg {
		return -int(n)
	}
	return int(n)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"pricemind-sync-api/internal/cache"
	"pricemind-sync-api/internal/model"
)

const (
	channelPlaceholderLabel = "-- Please select a channel --"
	channelDisabledComment  = "Add API Key and Save to enable channel selection."
	channelOptionsKeyPrefix = "channel_options:"
)

var errChannelsUnavailable = errors.New("channels unavailable")

// ChannelAPI is the part of the Pricemind client used by channel admin.
type ChannelAPI interface {
	ListChannels(ctx context.Context, website string) []model.Channel
	ActiveChannelSource(ctx context.Context, channelID, website string) *model.ChannelSource
}

// ChannelService backs the channel selector: it lists selectable channels
// and reacts to a channel being saved.
type ChannelService struct {
	api    ChannelAPI
	config *ConfigService
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewChannelService creates a new channel service. Options are cached for ttl.
func NewChannelService(api ChannelAPI, config *ConfigService, c cache.Cache, ttl time.Duration, logger *slog.Logger) *ChannelService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChannelService{api: api, config: config, cache: c, ttl: ttl, logger: logger}
}

// Options returns the channel selector for website. The selector is disabled
// until an API key is stored.
func (s *ChannelService) Options(ctx context.Context, website string) (model.ChannelOptions, error) {
	placeholder := model.ChannelOption{Value: "", Label: channelPlaceholderLabel}

	apiKey, err := s.config.Value(ctx, model.ConfigPathAccessKey, website)
	if err != nil {
		return model.ChannelOptions{}, err
	}
	if apiKey == "" {
		return model.ChannelOptions{
			Enabled: false,
			Comment: channelDisabledComment,
			Options: []model.ChannelOption{placeholder},
		}, nil
	}

	data, err := s.cache.GetOrSet(ctx, channelOptionsKeyPrefix+website, s.ttl, func() ([]byte, error) {
		channels := s.api.ListChannels(ctx, website)
		if channels == nil {
			return nil, errChannelsUnavailable
		}
		return json.Marshal(channelOptions(channels))
	})

	opts := model.ChannelOptions{Enabled: true, Options: []model.ChannelOption{placeholder}}
	if err != nil {
		if !errors.Is(err, errChannelsUnavailable) {
			s.logger.Warn("[Pricemind] Channel options cache failed", "website", website, "error", err)
		}
		return opts, nil
	}

	var cached []model.ChannelOption
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("[Pricemind] Discarding corrupt channel options", "website", website, "error", err)
		s.Invalidate(ctx, website)
		return opts, nil
	}
	opts.Options = append(opts.Options, cached...)
	return opts, nil
}

func channelOptions(channels []model.Channel) []model.ChannelOption {
	options := make([]model.ChannelOption, 0, len(channels))
	for _, ch := range channels {
		value := ch.Identifier()
		if value == "" {
			continue
		}
		label := ch.Name
		if label == "" {
			label = value
		}
		options = append(options, model.ChannelOption{Value: value, Label: label})
	}
	return options
}

// Invalidate drops the cached channel options of website.
func (s *ChannelService) Invalidate(ctx context.Context, website string) {
	if err := s.cache.Delete(ctx, channelOptionsKeyPrefix+website); err != nil {
		s.logger.Warn("[Pricemind] Failed to invalidate channel options", "website", website, "error", err)
	}
}

// SaveChannel stores the selected channel for website and records what is
// known about the channel's active source. Only storing the channel id can
// fail; source detection problems are logged.
func (s *ChannelService) SaveChannel(ctx context.Context, website, channelID string) (model.SourceDetection, error) {
	channelID = strings.TrimSpace(channelID)
	if err := s.config.Save(ctx, model.ConfigPathChannelID, channelID, website); err != nil {
		return model.SourceDetection{}, err
	}
	s.Invalidate(ctx, website)

	detection := model.SourceDetection{ChannelID: channelID}
	if channelID == "" {
		return detection, nil
	}

	source := s.api.ActiveChannelSource(ctx, channelID, website)
	if source == nil {
		detection.SourceUnavailable = true
	} else {
		detection = DetectSource(channelID, source)
	}

	s.persistDetection(ctx, website, detection)
	return detection, nil
}

func (s *ChannelService) persistDetection(ctx context.Context, website string, d model.SourceDetection) {
	isMagento := "0"
	if d.IsMagento {
		isMagento = "1"
	}
	writes := [][2]string{{model.ConfigPathSourceIsMagento, isMagento}}
	if d.SourceType != "" {
		writes = append(writes, [2]string{model.ConfigPathSourceType, d.SourceType})
	}
	if d.SourceTitle != "" {
		writes = append(writes, [2]string{model.ConfigPathSourceTitle, d.SourceTitle})
	}

	for _, w := range writes {
		if err := s.config.Save(ctx, w[0], w[1], website); err != nil {
			s.logger.Warn("[Pricemind] Failed to store active channel source",
				"website", website,
				"path", w[0],
				"error", err,
			)
		}
	}
}

// DetectSource inspects an active channel source: whether it is a Magento
// source, and which custom fields hold the special price dates.
func DetectSource(channelID string, src *model.ChannelSource) model.SourceDetection {
	d := model.SourceDetection{
		ChannelID:   channelID,
		SourceType:  src.Type,
		SourceTitle: src.Title,
	}
	mapping := src.Config.Mapping

	if strings.ToLower(src.Type) == "magento" || src.Title == "Magento" {
		d.IsMagento = true
	} else if attr, ok := mapping["sku_attribute"].(string); ok && attr == "sku" {
		d.IsMagento = true
	}

	special, _ := mapping["special_price"].(map[string]any)
	fromAttr := scalarString(special["from_attribute"])
	toAttr := scalarString(special["to_attribute"])

	fields := mapping["custom_field"]
	if isEmptyValue(fields) {
		fields = mapping["custom_fields"]
	}

	var fromField, toField string
	switch cf := fields.(type) {
	case map[string]any:
		fromField = directField(cf, fromAttr)
		toField = directField(cf, toAttr)
		if fromField == "" {
			fromField = inverseField(cf, fromAttr)
		}
		if toField == "" {
			toField = inverseField(cf, toAttr)
		}
		if fromField == "" || toField == "" {
			keys := sortedKeys(cf)
			items := make([]any, 0, len(keys))
			for _, k := range keys {
				items = append(items, cf[k])
			}
			fromField, toField = listFields(items, fromAttr, toAttr, fromField, toField)
		}
	case []any:
		fromField, toField = listFields(cf, fromAttr, toAttr, "", "")
	}

	if fromField == "" && special["from_custom_field"] != nil {
		fromField = scalarString(special["from_custom_field"])
	}
	if toField == "" && special["to_custom_field"] != nil {
		toField = scalarString(special["to_custom_field"])
	}

	if fromField == "" {
		fromField = fromAttr
	}
	if toField == "" {
		toField = toAttr
	}

	d.SpecialFromField = fromField
	d.SpecialToField = toField
	return d
}

// directField reads an attribute => machine name map.
func directField(cf map[string]any, attr string) string {
	if attr == "" {
		return ""
	}
	v, _ := cf[attr].(string)
	return v
}

// inverseField reads a machine name => attribute map.
func inverseField(cf map[string]any, attr string) string {
	if attr == "" {
		return ""
	}
	for _, k := range sortedKeys(cf) {
		if v, ok := cf[k].(string); ok && v == attr {
			return k
		}
	}
	return ""
}

// listFields reads a list of {"attribute": ..., "machine_name": ...} objects.
func listFields(items []any, fromAttr, toAttr, fromField, toField string) (string, string) {
	for _, item := range items {
		if fromField != "" && toField != "" {
			break
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		attr := scalarString(obj["attribute"])
		machine := scalarString(obj["machine_name"])
		if attr == "" || machine == "" {
			continue
		}
		if fromField == "" && fromAttr != "" && attr == fromAttr {
			fromField = machine
		}
		if toField == "" && toAttr != "" && attr == toAttr {
			toField = machine
		}
	}
	return fromField, toField
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scalarString renders JSON scalars as strings; other values become "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
	}
	return ""
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == "" || t == "0"
	case bool:
		return !t
	case float64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

package service

import (
	"context"
	"testing"
	"time"

	"pricemind-sync-api/internal/cache"
	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/obs"
	"pricemind-sync-api/internal/repository"
)

type fakeChannelAPI struct {
	channels    []model.Channel
	source      *model.ChannelSource
	listCalls   int
	sourceCalls int
}

func (f *fakeChannelAPI) ListChannels(ctx context.Context, website string) []model.Channel {
	f.listCalls++
	return f.channels
}

func (f *fakeChannelAPI) ActiveChannelSource(ctx context.Context, channelID, website string) *model.ChannelSource {
	f.sourceCalls++
	return f.source
}

func newChannelService(t *testing.T, api ChannelAPI) (*ChannelService, *repository.MemoryConfigRepository) {
	t.Helper()
	repo := repository.NewMemoryConfigRepository()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	return NewChannelService(api, NewConfigService(repo, nil), c, time.Minute, obs.Discard()), repo
}

func TestChannelService_OptionsDisabledWithoutAPIKey(t *testing.T) {
	api := &fakeChannelAPI{}
	svc, _ := newChannelService(t, api)

	opts, err := svc.Options(context.Background(), "")
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Enabled || opts.Comment != "Add API Key and Save to enable channel selection." {
		t.Fatalf("unexpected options %+v", opts)
	}
	if len(opts.Options) != 1 || opts.Options[0].Label != "-- Please select a channel --" {
		t.Fatalf("unexpected option list %+v", opts.Options)
	}
	if api.listCalls != 0 {
		t.Fatalf("api must not be called without a key")
	}
}

func TestChannelService_OptionsSkipEmptyIDsAndAreCached(t *testing.T) {
	api := &fakeChannelAPI{channels: []model.Channel{
		{ChannelID: "1", Name: "Main"},
		{ID: "2"},
		{Name: "No id"},
		{ID: "3", ChannelID: "30", Name: "Preferred"},
	}}
	svc, repo := newChannelService(t, api)
	ctx := context.Background()
	_ = repo.Save(ctx, model.ConfigPathAccessKey, "v1:encrypted", repository.ScopeDefault, "")

	for i := 0; i < 2; i++ {
		opts, err := svc.Options(ctx, "")
		if err != nil {
			t.Fatalf("Options: %v", err)
		}
		want := []model.ChannelOption{
			{Value: "", Label: "-- Please select a channel --"},
			{Value: "1", Label: "Main"},
			{Value: "2", Label: "2"},
			{Value: "30", Label: "Preferred"},
		}
		if !opts.Enabled || len(opts.Options) != len(want) {
			t.Fatalf("unexpected options %+v", opts)
		}
		for j := range want {
			if opts.Options[j] != want[j] {
				t.Fatalf("option %d = %+v, want %+v", j, opts.Options[j], want[j])
			}
		}
	}
	if api.listCalls != 1 {
		t.Fatalf("expected cached options, api called %d times", api.listCalls)
	}

	if _, err := svc.SaveChannel(ctx, "", "1"); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if _, err := svc.Options(ctx, ""); err != nil {
		t.Fatalf("Options: %v", err)
	}
	if api.listCalls != 2 {
		t.Fatalf("save must invalidate the cache, api called %d times", api.listCalls)
	}
}

func TestChannelService_OptionsAPIFailureIsNotCached(t *testing.T) {
	api := &fakeChannelAPI{channels: nil}
	svc, repo := newChannelService(t, api)
	ctx := context.Background()
	_ = repo.Save(ctx, model.ConfigPathAccessKey, "v1:encrypted", repository.ScopeDefault, "")

	for i := 0; i < 2; i++ {
		opts, err := svc.Options(ctx, "")
		if err != nil || !opts.Enabled || len(opts.Options) != 1 {
			t.Fatalf("Options = %+v, %v", opts, err)
		}
	}
	if api.listCalls != 2 {
		t.Fatalf("failed lookups must not be cached, api called %d times", api.listCalls)
	}
}

func TestChannelService_SaveChannelPersistsDetection(t *testing.T) {
	api := &fakeChannelAPI{source: &model.ChannelSource{Type: "MAGENTO", Title: "Store"}}
	svc, repo := newChannelService(t, api)
	ctx := context.Background()

	d, err := svc.SaveChannel(ctx, "eu", " 42 ")
	if err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if !d.IsMagento || d.ChannelID != "42" {
		t.Fatalf("detection %+v", d)
	}

	expect := map[string]string{
		model.ConfigPathChannelID:       "42",
		model.ConfigPathSourceIsMagento: "1",
		model.ConfigPathSourceType:      "MAGENTO",
		model.ConfigPathSourceTitle:     "Store",
	}
	for path, want := range expect {
		got, found, _ := repo.Get(ctx, path, repository.ScopeWebsites, "eu")
		if !found || got != want {
			t.Errorf("%s = %q (found=%v), want %q", path, got, found, want)
		}
	}
}

func TestChannelService_SaveChannelWithoutSource(t *testing.T) {
	api := &fakeChannelAPI{}
	svc, repo := newChannelService(t, api)
	ctx := context.Background()

	d, err := svc.SaveChannel(ctx, "", "7")
	if err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if !d.SourceUnavailable || d.IsMagento {
		t.Fatalf("detection %+v", d)
	}
	if v, _, _ := repo.Get(ctx, model.ConfigPathSourceIsMagento, repository.ScopeDefault, ""); v != "0" {
		t.Fatalf("source_is_magento = %q", v)
	}
	if _, found, _ := repo.Get(ctx, model.ConfigPathSourceType, repository.ScopeDefault, ""); found {
		t.Fatal("empty source type must not be stored")
	}
}

func TestChannelService_SaveEmptyChannelSkipsDetection(t *testing.T) {
	api := &fakeChannelAPI{}
	svc, _ := newChannelService(t, api)

	if _, err := svc.SaveChannel(context.Background(), "", ""); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if api.sourceCalls != 0 {
		t.Fatal("empty channel must not be looked up")
	}
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name     string
		src      model.ChannelSource
		magento  bool
		from, to string
	}{
		{
			name:    "title",
			src:     model.ChannelSource{Type: "custom", Title: "Magento"},
			magento: true,
		},
		{
			name:    "sku attribute",
			src:     model.ChannelSource{Config: model.ChannelSourceConfig{Mapping: map[string]any{"sku_attribute": "sku"}}},
			magento: true,
		},
		{
			name: "not magento",
			src:  model.ChannelSource{Type: "shopify", Title: "magento"},
		},
		{
			name: "attribute to machine name map",
			src: model.ChannelSource{Config: model.ChannelSourceConfig{Mapping: map[string]any{
				"special_price": map[string]any{"from_attribute": "special_from_date", "to_attribute": "special_to_date"},
				"custom_field":  map[string]any{"special_from_date": "promo_start", "special_to_date": "promo_end"},
			}}},
			from: "promo_start", to: "promo_end",
		},
		{
			name: "inverse map from custom_fields",
			src: model.ChannelSource{Config: model.ChannelSourceConfig{Mapping: map[string]any{
				"special_price": map[string]any{"from_attribute": "special_from_date", "to_attribute": "special_to_date"},
				"custom_field":  map[string]any{},
				"custom_fields": map[string]any{"starts": "special_from_date", "ends": "special_to_date"},
			}}},
			from: "starts", to: "ends",
		},
		{
			name: "list of objects",
			src: model.ChannelSource{Config: model.ChannelSourceConfig{Mapping: map[string]any{
				"special_price": map[string]any{"from_attribute": "special_from_date", "to_attribute": "special_to_date"},
				"custom_fields": []any{
					"junk",
					map[string]any{"attribute": "special_to_date", "machine_name": "cf_end"},
					map[string]any{"attribute": "special_from_date", "machine_name": "cf_start"},
				},
			}}},
			from: "cf_start", to: "cf_end",
		},
		{
			name: "explicit custom field names",
			src: model.ChannelSource{Config: model.ChannelSourceConfig{Mapping: map[string]any{
				"special_price": map[string]any{"from_custom_field": "explicit_start", "to_attribute": "special_to_date"},
			}}},
			from: "explicit_start", to: "special_to_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DetectSource("1", &tt.src)
			if d.IsMagento != tt.magento || d.SpecialFromField != tt.from || d.SpecialToField != tt.to {
				t.Fatalf("detection %+v, want magento=%v from=%q to=%q", d, tt.magento, tt.from, tt.to)
			}
		})
	}
}

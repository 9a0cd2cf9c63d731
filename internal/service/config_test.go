package service

import (
	"context"
	"errors"
	"testing"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/repository"
	"pricemind-sync-api/pkg/secret"
)

func TestConfigService_ScopeFallback(t *testing.T) {
	repo := repository.NewMemoryConfigRepository()
	svc := NewConfigService(repo, nil)
	ctx := context.Background()

	_ = repo.Save(ctx, model.ConfigPathChannelID, "1", repository.ScopeDefault, "")
	_ = repo.Save(ctx, model.ConfigPathChannelID, "2", repository.ScopeWebsites, "eu")
	_ = repo.Save(ctx, model.ConfigPathBaseURL, "", repository.ScopeWebsites, "eu")
	_ = repo.Save(ctx, model.ConfigPathBaseURL, "https://default", repository.ScopeDefault, "")

	cases := []struct {
		path, website, want string
	}{
		{model.ConfigPathChannelID, "", "1"},
		{model.ConfigPathChannelID, "eu", "2"},
		{model.ConfigPathChannelID, "us", "1"},
		{model.ConfigPathBaseURL, "eu", ""},
		{model.ConfigPathBaseURL, "us", "https://default"},
		{model.ConfigPathAccessKey, "eu", ""},
	}
	for _, tc := range cases {
		got, err := svc.Value(ctx, tc.path, tc.website)
		if err != nil || got != tc.want {
			t.Errorf("Value(%s, %q) = %q, %v; want %q", tc.path, tc.website, got, err, tc.want)
		}
	}
}

func TestConfigService_SaveSettingEncryptsAPIKey(t *testing.T) {
	box, _ := secret.NewBox("k")
	repo := repository.NewMemoryConfigRepository()
	svc := NewConfigService(repo, box)
	ctx := context.Background()

	path, err := svc.SaveSetting(ctx, "api/access_key", " secret-key ", "eu")
	if err != nil || path != model.ConfigPathAccessKey {
		t.Fatalf("SaveSetting = %q, %v", path, err)
	}
	stored, found, _ := repo.Get(ctx, model.ConfigPathAccessKey, repository.ScopeWebsites, "eu")
	if !found || stored == "secret-key" {
		t.Fatalf("stored value not encrypted: %q", stored)
	}
	plain, err := box.Decrypt(stored)
	if err != nil || plain != "secret-key" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}

	if _, err := svc.SaveSetting(ctx, "pricemind/api/base_url", "https://x/ ", ""); err != nil {
		t.Fatalf("base url: %v", err)
	}
	if v, _ := svc.Value(ctx, model.ConfigPathBaseURL, ""); v != "https://x/" {
		t.Fatalf("base url = %q", v)
	}

	if _, err := svc.SaveSetting(ctx, "api/channel_id", "1", ""); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

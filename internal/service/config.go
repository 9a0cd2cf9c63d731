package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/repository"
)

// ErrUnknownSetting is returned for config paths that cannot be written
// through SaveSetting.
var ErrUnknownSetting = errors.New("unknown setting")

// Encrypter protects secret settings before they are stored.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// ConfigService reads and writes scoped settings. Website values override
// the default scope.
type ConfigService struct {
	repo      repository.ConfigRepository
	encrypter Encrypter
}

// NewConfigService creates a new config service.
func NewConfigService(repo repository.ConfigRepository, encrypter Encrypter) *ConfigService {
	return &ConfigService{repo: repo, encrypter: encrypter}
}

// ScopeFor maps a website code to its config scope.
func ScopeFor(website string) (scope, scopeCode string) {
	if website == "" {
		return repository.ScopeDefault, ""
	}
	return repository.ScopeWebsites, website
}

// Value returns the website value of path, else the default value, else "".
func (s *ConfigService) Value(ctx context.Context, path, website string) (string, error) {
	if website != "" {
		v, found, err := s.repo.Get(ctx, path, repository.ScopeWebsites, website)
		if err != nil {
			return "", err
		}
		if found {
			return v, nil
		}
	}

	v, _, err := s.repo.Get(ctx, path, repository.ScopeDefault, "")
	if err != nil {
		return "", err
	}
	return v, nil
}

// Save stores value at the scope of website.
func (s *ConfigService) Save(ctx context.Context, path, value, website string) error {
	scope, code := ScopeFor(website)
	return s.repo.Save(ctx, path, value, scope, code)
}

// SaveSetting stores an admin-editable setting. The API key is encrypted
// before it is written; an empty key is stored as is.
func (s *ConfigService) SaveSetting(ctx context.Context, path, value, website string) (string, error) {
	path = NormalizeSettingPath(path)

	switch path {
	case model.ConfigPathBaseURL:
		value = strings.TrimSpace(value)
	case model.ConfigPathAccessKey:
		value = strings.TrimSpace(value)
		if value != "" {
			enc, err := s.encrypter.Encrypt(value)
			if err != nil {
				return path, fmt.Errorf("encrypt api key: %w", err)
			}
			value = enc
		}
	default:
		return path, ErrUnknownSetting
	}

	return path, s.Save(ctx, path, value, website)
}

// NormalizeSettingPath accepts both "api/base_url" and "pricemind/api/base_url".
func NormalizeSettingPath(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if !strings.HasPrefix(path, "pricemind/") {
		path = "pricemind/" + path
	}
	return path
}

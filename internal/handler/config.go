package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/service"
	"pricemind-sync-api/pkg/apierror"
	"pricemind-sync-api/pkg/response"
	"pricemind-sync-api/pkg/secret"
)

// SettingsWriter stores admin settings.
type SettingsWriter interface {
	SaveSetting(ctx context.Context, path, value, website string) (string, error)
}

// CacheInvalidator drops cached data derived from settings.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, website string)
}

// ConfigHandler serves PUT /api/v1/config.
type ConfigHandler struct {
	settings SettingsWriter
	cache    CacheInvalidator
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(settings SettingsWriter, cache CacheInvalidator) *ConfigHandler {
	return &ConfigHandler{settings: settings, cache: cache}
}

// SaveSettingRequest is the body of PUT /api/v1/config.
type SaveSettingRequest struct {
	Path    string `json:"path"`
	Value   string `json:"value"`
	Website string `json:"website"`
}

// Save handles PUT /api/v1/config. The API key value is never echoed back.
func (h *ConfigHandler) Save(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req SaveSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		response.Error(w, apierror.ValidationError("invalid setting",
			apierror.FieldError{Field: "path", Message: "path is required"}))
		return
	}

	website := strings.TrimSpace(req.Website)
	path, err := h.settings.SaveSetting(r.Context(), req.Path, req.Value, website)
	if errors.Is(err, service.ErrUnknownSetting) {
		response.Error(w, apierror.ValidationError("invalid setting",
			apierror.FieldError{Field: "path", Message: "only api/base_url and api/access_key can be set here"}))
		return
	}
	if errors.Is(err, secret.ErrNoKey) {
		response.Error(w, apierror.ServiceUnavailable("APP_SECRET_KEY must be configured to store the API key"))
		return
	}
	if err != nil {
		log.Printf("[ConfigHandler] Failed to save %s: %v", path, err)
		response.Error(w, apierror.InternalError("failed to save setting"))
		return
	}
	h.cache.Invalidate(r.Context(), website)

	value := req.Value
	if path == model.ConfigPathAccessKey {
		value = "******"
	}
	response.OK(w, map[string]string{
		"path":    path,
		"value":   value,
		"website": website,
	})
}

package model

// Config paths of the Pricemind integration.
const (
	ConfigPathBaseURL         = "pricemind/api/base_url"
	ConfigPathAccessKey       = "pricemind/api/access_key"
	ConfigPathChannelID       = "pricemind/api/channel_id"
	ConfigPathSourceIsMagento = "pricemind/api/source_is_magento"
	ConfigPathSourceType      = "pricemind/api/source_type"
	ConfigPathSourceTitle     = "pricemind/api/source_title"
)

package model

import "time"

// AppSetting represents a key-value pair for global platform configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingRegistrationOpen = "registration_open"
	SettingAnnouncement     = "announcement"
	SettingMaintenanceMode  = "maintenance_mode"
	SettingDefaultCoins     = "default_signup_codecoins"
)

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

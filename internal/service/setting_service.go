package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
)

// publicSettingKeys is the subset of app settings exposed without
// authentication. Everything else stays admin-only.
var publicSettingKeys = map[string]bool{
	model.SettingRegistrationOpen: true,
	model.SettingAnnouncement:     true,
	model.SettingMaintenanceMode:  true,
}

type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string)
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

// GetPublicSettings returns only the allow-listed keys. Signup pages
// and the CLI read this before any login.
func (s *SettingService) GetPublicSettings(ctx context.Context) (map[string]string, error) {
	all, err := s.GetAllSettings(ctx)
	if err != nil {
		return nil, err
	}

	public := make(map[string]string, len(publicSettingKeys))
	for key, value := range all {
		if publicSettingKeys[key] {
			public[key] = value
		}
	}
	return public, nil
}

func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	if len(settingsMap) == 0 {
		return nil
	}
	if err := s.settingRepo.UpsertMany(ctx, settingsMap); err != nil {
		s.log.Error().Err(err).Msg("failed to update settings")
		return err
	}
	return nil
}

func (s *SettingService) GetSettingByKey(ctx context.Context, key string) (string, error) {
	setting, err := s.settingRepo.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

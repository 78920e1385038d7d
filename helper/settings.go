package helper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"bakery_manager/database"
	"bakery_manager/model"

	"gorm.io/datatypes"
)

// SettingsTTL is how long business settings stay cached.
const SettingsTTL = 5 * time.Minute

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	SaveSetting(ctx context.Context, setting *model.Setting) error
}

// SettingsService reads business settings through a shared cache. A nil cache reads the
// store every time.
type SettingsService struct {
	store SettingsStore
	cache Cache
	log   *slog.Logger
}

func NewSettingsService(store SettingsStore, cache Cache, log *slog.Logger) *SettingsService {
	return &SettingsService{store: store, cache: cache, log: log.With("component", "settings")}
}

func (s *SettingsService) Business(ctx context.Context) (model.BusinessSettings, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, model.SettingBusiness)
		if err != nil {
			s.log.Warn("settings cache read failed", "err", err)
		} else if raw != nil {
			var b model.BusinessSettings
			if err := json.Unmarshal(raw, &b); err == nil {
				return b, nil
			}
		}
	}

	b := model.DefaultBusinessSettings()
	setting, err := s.store.GetSetting(ctx, model.SettingBusiness)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// not configured yet, use defaults
	case err != nil:
		return model.BusinessSettings{}, err
	default:
		if err := json.Unmarshal(setting.Value, &b); err != nil {
			return model.BusinessSettings{}, err
		}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(b); err == nil {
			if err := s.cache.Set(ctx, model.SettingBusiness, raw, SettingsTTL); err != nil {
				s.log.Warn("settings cache write failed", "err", err)
			}
		}
	}
	return b, nil
}

func (s *SettingsService) UpdateBusiness(ctx context.Context, b model.BusinessSettings) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := s.store.SaveSetting(ctx, &model.Setting{Key: model.SettingBusiness, Value: datatypes.JSON(raw)}); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, model.SettingBusiness); err != nil {
			s.log.Warn("settings cache invalidate failed", "err", err)
		}
	}
	return nil
}

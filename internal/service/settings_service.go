// internal/service/settings_service.go
package service

import (
	"context"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"
)

// SettingsService はデバイスローカルの表示設定を扱います。
// テーマはサインイン状態に関係なく常にローカルストアに保存する。
type SettingsService interface {
	GetTheme(ctx context.Context) (string, error)
	SaveTheme(ctx context.Context, theme string) error
}

type settingsService struct {
	local *repository.LocalStore
}

func NewSettingsService(local *repository.LocalStore) SettingsService {
	return &settingsService{local: local}
}

func (s *settingsService) GetTheme(ctx context.Context) (string, error) {
	theme, err := s.local.Theme(ctx)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to load theme", "error", err)
		return "", model.NewAppError("INTERNAL_SERVER_ERROR", "テーマ設定の取得に失敗しました。", "", err)
	}
	if theme == "" {
		// 未設定時はOSの設定に従う
		return "system", nil
	}
	return theme, nil
}

func (s *settingsService) SaveTheme(ctx context.Context, theme string) error {
	if err := s.local.SaveTheme(ctx, theme); err != nil {
		middleware.GetLogger(ctx).Error("Failed to save theme", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "テーマ設定の保存に失敗しました。", "", err)
	}
	return nil
}

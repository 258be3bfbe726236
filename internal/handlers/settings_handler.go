// internal/handlers/settings_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"
)

type SettingsHandler struct {
	service service.SettingsService
	logger  *slog.Logger
}

func NewSettingsHandler(s service.SettingsService, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{
		service: s,
		logger:  logger,
	}
}

// GetTheme は現在のテーマ設定を取得するためのハンドラ
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTheme"))

	theme, err := h.service.GetTheme(r.Context())
	if err != nil {
		logger.Error("Error loading theme in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"theme": theme}, logger)
}

// PutTheme はテーマ設定を保存するためのハンドラ
func (h *SettingsHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutTheme"))

	var req model.ThemeRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.SaveTheme(r.Context(), req.Theme); err != nil {
		logger.Error("Error saving theme in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Theme saved successfully", slog.String("theme", req.Theme))
	w.WriteHeader(http.StatusNoContent)
}

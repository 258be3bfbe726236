// internal/handlers/auth_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"
)

type AuthHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(s service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service: s,
		logger:  logger,
	}
}

// Register は新規登録のためのハンドラ
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Register"))

	var req model.RegisterRequest
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

	learner, err := h.service.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Error registering learner in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Learner registered successfully", slog.String("learner_id", learner.LearnerID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.LearnerResponse{
		LearnerID: learner.LearnerID,
		Name:      learner.Name,
		Email:     learner.Email,
		CreatedAt: learner.CreatedAt,
	}, logger)
}

// Login はログインのためのハンドラ
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Login"))

	var req model.LoginRequest
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

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		logger.Warn("Login failed in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// Logout はデバイスローカルのセッションを破棄するハンドラ
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Logout"))

	if err := h.service.Logout(r.Context()); err != nil {
		logger.Error("Error logging out in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSession は現在のセッション情報を返すハンドラ。
// 認証済みならリモートの学習者情報、未認証ならローカルキャッシュを参照する。
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSession"))

	if learnerID, ok := middleware.GetLearnerID(r.Context()); ok {
		learner, err := h.service.GetLearner(r.Context(), learnerID)
		if err != nil {
			logger.Error("Error getting learner in service", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
			return
		}
		webutil.RespondWithJSON(w, http.StatusOK, model.LearnerResponse{
			LearnerID: learner.LearnerID,
			Name:      learner.Name,
			Email:     learner.Email,
			CreatedAt: learner.CreatedAt,
		}, logger)
		return
	}

	creds, err := h.service.CachedSession(r.Context())
	if err != nil {
		logger.Info("No cached session", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, creds, logger)
}

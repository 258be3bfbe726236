// internal/handlers/training_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"
)

type TrainingHandler struct {
	service service.TrainingService
	logger  *slog.Logger
}

func NewTrainingHandler(s service.TrainingService, logger *slog.Logger) *TrainingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainingHandler{
		service: s,
		logger:  logger,
	}
}

// Start はトレーニングセッションを開始するためのハンドラ
func (h *TrainingHandler) Start(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "StartTraining"))

	var req model.TrainingConfig
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

	state, err := h.service.Start(r.Context(), &req)
	if err != nil {
		logger.Warn("Error starting training session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, state, logger)
}

// GetState はトレーニングセッションの現在状態を返すためのハンドラ
func (h *TrainingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTrainingState"))

	sessionID, err := parseUUIDParam(r, "session_id")
	if err != nil {
		logger.Warn("Invalid session ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	state, err := h.service.State(r.Context(), sessionID)
	if err != nil {
		logger.Warn("Error loading training state in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// Reveal はカードの裏面を表示するためのハンドラ
func (h *TrainingHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "RevealCard"))

	sessionID, err := parseUUIDParam(r, "session_id")
	if err != nil {
		logger.Warn("Invalid session ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	state, err := h.service.Reveal(r.Context(), sessionID)
	if err != nil {
		logger.Warn("Error revealing card in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// Rate は現在のカードを評価して次へ進むためのハンドラ
func (h *TrainingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "RateCard"))

	sessionID, err := parseUUIDParam(r, "session_id")
	if err != nil {
		logger.Warn("Invalid session ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.RateCardRequest
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

	state, err := h.service.Rate(r.Context(), sessionID, req.Rating)
	if err != nil {
		logger.Warn("Error rating card in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// internal/handlers/reading_handler.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"

	"github.com/google/uuid"
)

type ReadingHandler struct {
	service service.ReadingService
	logger  *slog.Logger
}

func NewReadingHandler(s service.ReadingService, logger *slog.Logger) *ReadingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingHandler{
		service: s,
		logger:  logger,
	}
}

// Start は読書セッションを開始するためのハンドラ
func (h *ReadingHandler) Start(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "StartReading"))

	var req model.StartReadingRequest
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
		logger.Error("Error starting reading session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, state, logger)
}

func (h *ReadingHandler) step(w http.ResponseWriter, r *http.Request, name string,
	move func(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error)) {
	logger := h.logger.With(slog.String("handler", name))

	sessionID, err := parseUUIDParam(r, "session_id")
	if err != nil {
		logger.Warn("Invalid session ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	state, err := move(r.Context(), sessionID)
	if err != nil {
		logger.Warn("Reading step failed in service", slog.Any("error", err), slog.String("session_id", sessionID.String()))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}

// GetState は読書セッションの現在状態を返すためのハンドラ
func (h *ReadingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "GetReadingState", h.service.State)
}

// Advance は読書フローを1ステップ進めるためのハンドラ
func (h *ReadingHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "AdvanceReading", h.service.Advance)
}

// Back は読書フローを1ステップ戻すためのハンドラ
func (h *ReadingHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "BackReading", h.service.Back)
}

// Skip は現在の文の残りを飛ばすためのハンドラ
func (h *ReadingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "SkipReading", h.service.Skip)
}

// Speak はテキストの読み上げ音声を返すためのハンドラ
func (h *ReadingHandler) Speak(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Speak"))

	var req model.SpeakRequest
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

	audio, err := h.service.Speak(r.Context(), req.Text)
	if err != nil {
		logger.Error("Error synthesizing speech in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		logger.Error("Failed to write audio response", slog.Any("error", err))
	}
}

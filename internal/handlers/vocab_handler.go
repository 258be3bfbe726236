// internal/handlers/vocab_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type VocabHandler struct {
	service service.VocabService
	logger  *slog.Logger
}

func NewVocabHandler(s service.VocabService, logger *slog.Logger) *VocabHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabHandler{
		service: s,
		logger:  logger,
	}
}

// ListVocabulary は語彙リスト全体を取得するためのハンドラ
func (h *VocabHandler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListVocabulary"))

	items, err := h.service.ListVocabulary(r.Context())
	if err != nil {
		logger.Error("Error listing vocabulary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if items == nil {
		items = []*model.VocabularyItem{}
	}
	logger.Info("Vocabulary listed successfully", slog.Int("count", len(items)))
	webutil.RespondWithJSON(w, http.StatusOK, items, logger)
}

// UpdateMastery は単語の習熟度を更新するためのハンドラ
func (h *VocabHandler) UpdateMastery(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UpdateMastery"))

	wordIDStr := chi.URLParam(r, "word_id")
	wordID, err := uuid.Parse(wordIDStr)
	if err != nil {
		logger.Warn("Invalid word ID format in URL", slog.String("word_id_str", wordIDStr), slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_URL_PARAM", "word_idの形式が正しくありません。", "word_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("word_id", wordID.String()))

	var req model.UpdateMasteryRequest
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

	if err := h.service.UpdateMastery(r.Context(), wordID, req.MasteryLevel); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Word not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error updating mastery in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Mastery updated successfully", slog.String("level", req.MasteryLevel))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteWords は単語を一括削除するためのハンドラ
func (h *VocabHandler) DeleteWords(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteWords"))

	var req model.DeleteVocabularyRequest
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

	if err := h.service.DeleteWords(r.Context(), req.WordIDs); err != nil {
		logger.Error("Error deleting vocabulary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Vocabulary deleted successfully", slog.Int("count", len(req.WordIDs)))
	w.WriteHeader(http.StatusNoContent)
}

// Import はエクスポート済みの語彙JSONを取り込むためのハンドラ
func (h *VocabHandler) Import(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Import"))

	var req model.ImportVocabularyRequest
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

	imported, err := h.service.Import(r.Context(), req.Items)
	if err != nil {
		logger.Error("Error importing vocabulary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Vocabulary imported successfully", slog.Int("imported", imported))
	webutil.RespondWithJSON(w, http.StatusOK, model.ImportVocabularyResponse{Imported: imported}, logger)
}

// internal/handlers/scan_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/service"
	"go_4_scan_read/internal/webutil"
)

type ScanHandler struct {
	service service.IngestionService
	logger  *slog.Logger
}

func NewScanHandler(s service.IngestionService, logger *slog.Logger) *ScanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanHandler{
		service: s,
		logger:  logger,
	}
}

// Scan はページ写真を解析するためのハンドラ。
// book_id が指定されていればそのまま取り込みまで行う。
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Scan"))

	var req model.ScanRequest
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

	resp, err := h.service.Scan(r.Context(), &req)
	if err != nil {
		logger.Error("Error scanning page in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Page scanned successfully", slog.Int("sentences", len(resp.Analysis.Sentences)))
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// Commit は保留中の解析結果を本に取り込むためのハンドラ
func (h *ScanHandler) Commit(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Commit"))

	var req model.CommitScanRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if req.NewBook != nil {
		if err := webutil.ValidateStruct(*req.NewBook); err != nil {
			logger.Warn("Validation failed for new book", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
			return
		}
	}

	result, err := h.service.Commit(r.Context(), &req)
	if err != nil {
		logger.Error("Error committing scan in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Scan committed successfully",
		slog.String("page_id", result.Page.PageID.String()),
		slog.Int("inserted_words", result.InsertedWords),
	)
	webutil.RespondWithJSON(w, http.StatusCreated, result, logger)
}

// History は直近の解析履歴を取得するためのハンドラ
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "History"))

	entries, err := h.service.History(r.Context())
	if err != nil {
		logger.Error("Error loading history in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if entries == nil {
		entries = []model.AnalysisHistoryEntry{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, entries, logger)
}

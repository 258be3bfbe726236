// internal/handlers/book_handler.go
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

type BookHandler struct {
	service service.BookService
	logger  *slog.Logger
}

func NewBookHandler(s service.BookService, logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookHandler{
		service: s,
		logger:  logger,
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_URL_PARAM", name+"の形式が正しくありません。", name, model.ErrInvalidInput)
	}
	return id, nil
}

// ListBooks は本の一覧を取得するためのハンドラ
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListBooks"))

	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		logger.Error("Error listing books in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if books == nil {
		books = []*model.Book{}
	}
	logger.Info("Books listed successfully", slog.Int("count", len(books)))
	webutil.RespondWithJSON(w, http.StatusOK, books, logger)
}

// CreateBook は本を作成するためのハンドラ
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateBook"))

	var req model.CreateBookRequest
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

	book, err := h.service.CreateBook(r.Context(), &req)
	if err != nil {
		logger.Error("Error creating book in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Book created successfully", slog.String("book_id", book.BookID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, book, logger)
}

// DeleteBook は本とその配下のページを削除するためのハンドラ
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteBook"))

	bookID, err := parseUUIDParam(r, "book_id")
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	if err := h.service.DeleteBook(r.Context(), bookID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Book not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error deleting book in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Book deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// ListPages は本のページ一覧(サマリ)を取得するためのハンドラ
func (h *BookHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListPages"))

	bookID, err := parseUUIDParam(r, "book_id")
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	pages, err := h.service.ListPages(r.Context(), bookID)
	if err != nil {
		logger.Error("Error listing pages in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if pages == nil {
		pages = []*model.PageSummary{}
	}
	logger.Info("Pages listed successfully", slog.Int("count", len(pages)))
	webutil.RespondWithJSON(w, http.StatusOK, pages, logger)
}

// GetPage は1ページの全体(解析結果込み)を取得するためのハンドラ
func (h *BookHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPage"))

	bookID, err := parseUUIDParam(r, "book_id")
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	pageID, err := parseUUIDParam(r, "page_id")
	if err != nil {
		logger.Warn("Invalid page ID format in URL", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()), slog.String("page_id", pageID.String()))

	page, err := h.service.GetPage(r.Context(), bookID, pageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Page not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting page in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, page, logger)
}

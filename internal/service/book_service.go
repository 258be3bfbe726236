// internal/service/book_service.go
package service

import (
	"context"
	"errors"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
)

type BookService interface {
	ListBooks(ctx context.Context) ([]*model.Book, error)
	CreateBook(ctx context.Context, req *model.CreateBookRequest) (*model.Book, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
	ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.PageSummary, error)
	GetPage(ctx context.Context, bookID, pageID uuid.UUID) (*model.Page, error)
}

type bookService struct {
	store repository.Store
}

func NewBookService(store repository.Store) BookService {
	return &bookService{store: store}
}

func (s *bookService) ListBooks(ctx context.Context) ([]*model.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list books", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "本のリストの取得に失敗しました。", "", err)
	}
	return books, nil
}

func (s *bookService) CreateBook(ctx context.Context, req *model.CreateBookRequest) (*model.Book, error) {
	logger := middleware.GetLogger(ctx)

	book, err := s.store.CreateBook(ctx, req.Title, req.Author)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			return nil, model.NewAppError("INVALID_TITLE", "タイトルを入力してください。", "title", model.ErrInvalidInput)
		}
		logger.Error("Failed to create book", "error", err, "title", req.Title)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "本の作成に失敗しました。", "", err)
	}

	logger.Info("Book created", "book_id", book.BookID, "title", book.Title)
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	err := s.store.DeleteBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Book not found for deletion", "book_id", bookID.String())
			return model.NewAppError("BOOK_NOT_FOUND", "指定された本が見つかりません。", "book_id", model.ErrNotFound)
		}
		logger.Error("Failed to delete book", "error", err, "book_id", bookID.String())
		return model.NewAppError("INTERNAL_SERVER_ERROR", "本の削除に失敗しました。", "", err)
	}

	logger.Info("Book deleted", "book_id", bookID.String())
	return nil
}

// ListPages は本のページ一覧を軽量なサマリ(解析結果・画像を含まない)で返します
func (s *bookService) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.PageSummary, error) {
	pages, err := s.store.ListPages(ctx, bookID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list pages", "error", err, "book_id", bookID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ページ一覧の取得に失敗しました。", "", err)
	}

	summaries := make([]*model.PageSummary, 0, len(pages))
	for _, page := range pages {
		summaries = append(summaries, page.Summary())
	}
	return summaries, nil
}

func (s *bookService) GetPage(ctx context.Context, bookID, pageID uuid.UUID) (*model.Page, error) {
	pages, err := s.store.ListPages(ctx, bookID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to load pages", "error", err, "book_id", bookID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ページの取得に失敗しました。", "", err)
	}
	for _, page := range pages {
		if page.PageID == pageID {
			return page, nil
		}
	}
	return nil, model.NewAppError("PAGE_NOT_FOUND", "指定されたページが見つかりません。", "page_id", model.ErrNotFound)
}

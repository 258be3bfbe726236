// internal/service/ingestion_service.go
package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/lexical"
	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
)

// IngestionService はページ写真のスキャンから本への取り込みまでを調整します。
// 取り込みは「ページ追加 → 語彙一括追加」の順序を守る。どちらも最大1回しか
// 実行しないため、語彙追加の失敗でページが重複することはない。
type IngestionService interface {
	// Scan は画像を解析し、本が指定されていればそのまま取り込みます
	Scan(ctx context.Context, req *model.ScanRequest) (*model.ScanResponse, error)
	// Commit は保留中の解析結果を既存の本または新しい本に取り込みます
	Commit(ctx context.Context, req *model.CommitScanRequest) (*model.IngestionResult, error)
	// History は直近の解析履歴を返します(デバイスローカル、上限件数あり)
	History(ctx context.Context) ([]model.AnalysisHistoryEntry, error)
}

type ingestionService struct {
	store    repository.Store
	local    *repository.LocalStore
	analyzer Analyzer
	cfg      *config.Config
}

func NewIngestionService(store repository.Store, local *repository.LocalStore, analyzer Analyzer, cfg *config.Config) IngestionService {
	return &ingestionService{
		store:    store,
		local:    local,
		analyzer: analyzer,
		cfg:      cfg,
	}
}

// previewOf は履歴一覧用に先頭文の冒頭を切り出します
func previewOf(analysis *model.PageAnalysisResult) string {
	if len(analysis.Sentences) == 0 {
		return ""
	}
	original := analysis.Sentences[0].Original
	const maxRunes = 80
	if utf8.RuneCountInString(original) <= maxRunes {
		return original
	}
	runes := []rune(original)
	return string(runes[:maxRunes])
}

func (s *ingestionService) Scan(ctx context.Context, req *model.ScanRequest) (*model.ScanResponse, error) {
	logger := middleware.GetLogger(ctx)

	analysis, err := s.analyzer.AnalyzePage(ctx, req.Image)
	if err != nil {
		logger.Error("Page analysis failed", "error", err)
		return nil, model.NewAppError("ANALYSIS_FAILED", "ページの解析に失敗しました。もう一度撮影してください。", "", err)
	}
	if len(analysis.Sentences) == 0 {
		return nil, model.NewAppError("EMPTY_ANALYSIS", "ページから文を検出できませんでした。", "", model.ErrInvalidInput)
	}

	// 履歴はベストエフォート。失敗してもスキャン自体は成功扱い
	entry := model.AnalysisHistoryEntry{
		ScannedAt:     time.Now(),
		SentenceCount: len(analysis.Sentences),
		Preview:       previewOf(analysis),
		Analysis:      analysis,
	}
	if err := s.local.PushHistory(ctx, entry, s.cfg.App.HistoryLimit); err != nil {
		logger.Warn("Failed to push analysis history", "error", err)
	}

	// 本が選択済みなら即時取り込み
	if req.BookID != nil {
		result, err := s.ingest(ctx, *req.BookID, req.Image, analysis)
		if err != nil {
			return nil, err
		}
		return &model.ScanResponse{Analysis: analysis, Ingestion: result}, nil
	}

	// 本が未選択: 解析結果を保留キャッシュに置き、選択候補を返す
	if err := s.local.SaveLastAnalysis(ctx, analysis); err != nil {
		logger.Error("Failed to cache pending analysis", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "解析結果の保存に失敗しました。", "", err)
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		logger.Error("Failed to list books for scan response", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "本のリストの取得に失敗しました。", "", err)
	}

	return &model.ScanResponse{Analysis: analysis, Books: books}, nil
}

func (s *ingestionService) Commit(ctx context.Context, req *model.CommitScanRequest) (*model.IngestionResult, error) {
	logger := middleware.GetLogger(ctx)

	if (req.BookID == nil) == (req.NewBook == nil) {
		return nil, model.NewAppError("INVALID_COMMIT", "book_id か new_book のどちらか一方を指定してください。", "", model.ErrInvalidInput)
	}

	analysis, err := s.local.LastAnalysis(ctx)
	if err != nil {
		logger.Error("Failed to load pending analysis", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "解析結果の読み込みに失敗しました。", "", err)
	}
	if analysis == nil {
		return nil, model.NewAppError("NO_PENDING_ANALYSIS", "取り込み待ちの解析結果がありません。先にページを撮影してください。", "", model.ErrNotFound)
	}

	bookID := uuid.Nil
	if req.BookID != nil {
		bookID = *req.BookID
	} else {
		book, err := s.store.CreateBook(ctx, req.NewBook.Title, req.NewBook.Author)
		if err != nil {
			if errors.Is(err, model.ErrInvalidInput) {
				return nil, model.NewAppError("INVALID_TITLE", "タイトルを入力してください。", "title", model.ErrInvalidInput)
			}
			logger.Error("Failed to create book for commit", "error", err)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "本の作成に失敗しました。", "", err)
		}
		bookID = book.BookID
	}

	// 保留中のスキャンは画像を保持しない(解析結果のみ取り込む)
	result, err := s.ingest(ctx, bookID, "", analysis)
	if err != nil {
		return nil, err
	}

	// 取り込み済みの保留キャッシュは破棄する。失敗しても結果は返す
	if err := s.local.ClearLastAnalysis(ctx); err != nil {
		logger.Warn("Failed to clear pending analysis", "error", err)
	}

	return result, nil
}

// ingest はページ追加と語彙追加を順に行います。ページ追加の失敗は取り込み全体の
// 失敗。語彙追加はバックエンド側の劣化方針に従う(リモート障害時は0件)。
func (s *ingestionService) ingest(ctx context.Context, bookID uuid.UUID, image string, analysis *model.PageAnalysisResult) (*model.IngestionResult, error) {
	logger := middleware.GetLogger(ctx)

	page, err := s.store.AppendPage(ctx, bookID, image, analysis)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("BOOK_NOT_FOUND", "指定された本が見つかりません。", "book_id", model.ErrNotFound)
		}
		logger.Error("Failed to append page", "error", err, "book_id", bookID.String())
		return nil, model.NewAppError("PAGE_APPEND_FAILED", "ページの追加に失敗しました。", "", err)
	}

	candidates := lexical.Flatten(analysis.Sentences)
	inserted, err := s.store.AddVocabularyBatch(ctx, candidates)
	if err != nil {
		// ページは既に追加済み。語彙の失敗で取り込みを巻き戻さない
		logger.Error("Vocabulary batch insert failed after page append", "error", err, "page_id", page.PageID)
		inserted = 0
	}

	logger.Info("Page ingested",
		"book_id", bookID.String(),
		"page_id", page.PageID.String(),
		"page_number", page.PageNumber,
		"inserted_words", inserted,
	)
	return &model.IngestionResult{Page: page.Summary(), InsertedWords: inserted}, nil
}

func (s *ingestionService) History(ctx context.Context) ([]model.AnalysisHistoryEntry, error) {
	entries, err := s.local.History(ctx)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to load analysis history", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "履歴の取得に失敗しました。", "", err)
	}
	return entries, nil
}

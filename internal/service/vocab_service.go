// internal/service/vocab_service.go
package service

import (
	"context"
	"errors"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
)

type VocabService interface {
	ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error)
	UpdateMastery(ctx context.Context, wordID uuid.UUID, level string) error
	DeleteWords(ctx context.Context, wordIDs []uuid.UUID) error
	Import(ctx context.Context, items []*model.VocabularyItem) (int, error)
}

type vocabService struct {
	store repository.Store
}

func NewVocabService(store repository.Store) VocabService {
	return &vocabService{store: store}
}

func (s *vocabService) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	items, err := s.store.ListVocabulary(ctx)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list vocabulary", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "語彙リストの取得に失敗しました。", "", err)
	}
	return items, nil
}

func (s *vocabService) UpdateMastery(ctx context.Context, wordID uuid.UUID, level string) error {
	logger := middleware.GetLogger(ctx)

	masteryLevel := model.MasteryLevel(level)
	if !masteryLevel.Valid() {
		return model.NewAppError("INVALID_MASTERY_LEVEL", "不正な習熟度です。", "mastery_level", model.ErrInvalidInput)
	}

	err := s.store.UpdateMasteryLevel(ctx, wordID, masteryLevel)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Word not found for mastery update", "word_id", wordID.String())
			return model.NewAppError("WORD_NOT_FOUND", "指定された単語が見つかりません。", "word_id", model.ErrNotFound)
		}
		logger.Error("Failed to update mastery level", "error", err, "word_id", wordID.String())
		return model.NewAppError("INTERNAL_SERVER_ERROR", "習熟度の更新に失敗しました。", "", err)
	}
	return nil
}

func (s *vocabService) DeleteWords(ctx context.Context, wordIDs []uuid.UUID) error {
	if len(wordIDs) == 0 {
		return model.NewAppError("INVALID_INPUT", "削除対象が指定されていません。", "word_ids", model.ErrInvalidInput)
	}
	if err := s.store.RemoveVocabularyBatch(ctx, wordIDs); err != nil {
		middleware.GetLogger(ctx).Error("Failed to delete vocabulary", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の削除に失敗しました。", "", err)
	}
	return nil
}

func (s *vocabService) Import(ctx context.Context, items []*model.VocabularyItem) (int, error) {
	logger := middleware.GetLogger(ctx)

	imported, err := s.store.ImportVocabulary(ctx, items)
	if err != nil {
		logger.Error("Failed to import vocabulary", "error", err)
		return 0, model.NewAppError("INTERNAL_SERVER_ERROR", "語彙のインポートに失敗しました。", "", err)
	}
	logger.Info("Vocabulary imported", "requested", len(items), "imported", imported)
	return imported, nil
}

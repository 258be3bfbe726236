// internal/repository/remote.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// remoteStore はサインイン済み学習者用の永続化バックエンドです。
// 全テーブルを owner_id(学習者ID)でスコープする。概念的には
// identity → vocabulary | books | books/{id}/pages の階層に対応する。
// ゲートウェイが呼び出しごとに学習者IDを束ねて生成するため、
// このstructは1リクエストの寿命しか持たない。
type remoteStore struct {
	db        *gorm.DB
	learnerID uuid.UUID
}

func newRemoteStore(db *gorm.DB, learnerID uuid.UUID) *remoteStore {
	return &remoteStore{db: db, learnerID: learnerID}
}

func (s *remoteStore) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	var items []*model.VocabularyItem
	result := s.db.WithContext(ctx).
		Where("owner_id = ?", s.learnerID).
		Order("added_at DESC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("remoteStore.ListVocabulary: %w", result.Error)
	}
	return items, nil
}

func (s *remoteStore) InsertVocabulary(ctx context.Context, items []*model.VocabularyItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		item.OwnerID = s.learnerID
	}
	result := s.db.WithContext(ctx).Create(items)
	if result.Error != nil {
		return fmt.Errorf("remoteStore.InsertVocabulary: %w", result.Error)
	}
	return nil
}

func (s *remoteStore) UpdateVocabularyMastery(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel, mastered bool) error {
	// 更新は存在する値のみのカラムマップで行う(「値なし」を書き込まない)
	result := s.db.WithContext(ctx).
		Model(&model.VocabularyItem{}).
		Where("owner_id = ? AND word_id = ?", s.learnerID, wordID).
		Updates(map[string]interface{}{
			"mastery_level": level,
			"mastered":      mastered,
		})
	if result.Error != nil {
		return fmt.Errorf("remoteStore.UpdateVocabularyMastery: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *remoteStore) DeleteVocabulary(ctx context.Context, wordIDs []uuid.UUID) error {
	if len(wordIDs) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND word_id IN ?", s.learnerID, wordIDs).
		Delete(&model.VocabularyItem{})
	if result.Error != nil {
		return fmt.Errorf("remoteStore.DeleteVocabulary: %w", result.Error)
	}
	return nil
}

func (s *remoteStore) ListBooks(ctx context.Context) ([]*model.Book, error) {
	var books []*model.Book
	result := s.db.WithContext(ctx).
		Where("owner_id = ?", s.learnerID).
		Order("created_at DESC").
		Find(&books)
	if result.Error != nil {
		return nil, fmt.Errorf("remoteStore.ListBooks: %w", result.Error)
	}
	return books, nil
}

func (s *remoteStore) InsertBook(ctx context.Context, book *model.Book) error {
	book.OwnerID = s.learnerID
	result := s.db.WithContext(ctx).Create(book)
	if result.Error != nil {
		return fmt.Errorf("remoteStore.InsertBook: %w", result.Error)
	}
	return nil
}

func (s *remoteStore) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND book_id = ?", s.learnerID, bookID).
		Delete(&model.Book{})
	if result.Error != nil {
		return fmt.Errorf("remoteStore.DeleteBook: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *remoteStore) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error) {
	var pages []*model.Page
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND book_id = ?", s.learnerID, bookID).
		Order("page_number ASC").
		Find(&pages)
	if result.Error != nil {
		return nil, fmt.Errorf("remoteStore.ListPages: %w", result.Error)
	}
	return pages, nil
}

func (s *remoteStore) InsertPage(ctx context.Context, page *model.Page) error {
	logger := middleware.GetLogger(ctx)
	page.OwnerID = s.learnerID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 採番と page_count の加算を同一トランザクションで行う。
		// 行ロックで並行追加時の重複採番を防ぐ
		var book model.Book
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ? AND book_id = ?", s.learnerID, page.BookID).
			First(&book)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return result.Error
		}

		page.PageNumber = book.PageCount + 1
		if err := tx.Create(page).Error; err != nil {
			return err
		}

		return tx.Model(&model.Book{}).
			Where("owner_id = ? AND book_id = ?", s.learnerID, page.BookID).
			Update("page_count", gorm.Expr("page_count + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		logger.Error("Error inserting page in remote store",
			"error", err,
			"book_id", page.BookID.String(),
		)
		return fmt.Errorf("remoteStore.InsertPage: %w", err)
	}
	return nil
}

func (s *remoteStore) UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error {
	result := s.db.WithContext(ctx).
		Model(&model.Page{}).
		Where("owner_id = ? AND book_id = ? AND page_id = ?", s.learnerID, bookID, pageID).
		Update("last_sentence_index", sentenceIndex)
	if result.Error != nil {
		return fmt.Errorf("remoteStore.UpdatePageProgress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *remoteStore) DeletePages(ctx context.Context, bookID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("owner_id = ? AND book_id = ?", s.learnerID, bookID).
		Delete(&model.Page{})
	if result.Error != nil {
		return fmt.Errorf("remoteStore.DeletePages: %w", result.Error)
	}
	return nil
}

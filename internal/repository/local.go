// internal/repository/local.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ローカルストアのキー。論理コレクションごとに1キーで、
// 値はコレクション全体をJSONシリアライズしたもの。
const (
	keyVocabulary   = "vocabulary"
	keyBooks        = "books"
	keyPagesPrefix  = "pages:" // 本IDごとに名前空間を分ける
	keyLastAnalysis = "last_analysis"
	keyHistory      = "analysis_history"
	keyTheme        = "theme"
	keyCredentials  = "credentials"
)

// localEntry はローカルストアの1エントリ(キー → シリアライズ済みコレクション)
type localEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (localEntry) TableName() string {
	return "local_entries"
}

// LocalStore はサインインしていないデバイス用の永続化バックエンドです。
// Backend の実装に加えて、解析キャッシュ・履歴・テーマ・認証情報キャッシュなど
// デバイスローカル専用のキーも扱う(これらはバックエンド振り分けの対象外)。
type LocalStore struct {
	db *gorm.DB
	mu sync.Mutex // 読み出し〜書き戻しを直列化する
}

func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{db: db}
}

func pagesKey(bookID uuid.UUID) string {
	return keyPagesPrefix + bookID.String()
}

// load はキーの値をdstにデコードします。キーが未作成の場合はdstを変更しない。
func (s *LocalStore) load(ctx context.Context, key string, dst interface{}) error {
	var entry localEntry
	result := s.db.WithContext(ctx).First(&entry, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("localStore.load(%s): %w", key, result.Error)
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		return fmt.Errorf("localStore.load(%s): %w", key, err)
	}
	return nil
}

func (s *LocalStore) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localStore.save(%s): %w", key, err)
	}
	entry := localEntry{Key: key, Value: raw, UpdatedAt: time.Now()}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("localStore.save(%s): %w", key, result.Error)
	}
	return nil
}

func (s *LocalStore) drop(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Delete(&localEntry{}, "key = ?", key)
	if result.Error != nil {
		return fmt.Errorf("localStore.drop(%s): %w", key, result.Error)
	}
	return nil
}

// --- Backend 実装 ---

func (s *LocalStore) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*model.VocabularyItem
	if err := s.load(ctx, keyVocabulary, &items); err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	return items, nil
}

func (s *LocalStore) InsertVocabulary(ctx context.Context, newItems []*model.VocabularyItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*model.VocabularyItem
	if err := s.load(ctx, keyVocabulary, &items); err != nil {
		return err
	}
	items = append(items, newItems...)
	return s.save(ctx, keyVocabulary, items)
}

func (s *LocalStore) UpdateVocabularyMastery(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel, mastered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*model.VocabularyItem
	if err := s.load(ctx, keyVocabulary, &items); err != nil {
		return err
	}
	for _, item := range items {
		if item.WordID == wordID {
			item.MasteryLevel = level
			item.Mastered = mastered
			return s.save(ctx, keyVocabulary, items)
		}
	}
	return model.ErrNotFound
}

func (s *LocalStore) DeleteVocabulary(ctx context.Context, wordIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*model.VocabularyItem
	if err := s.load(ctx, keyVocabulary, &items); err != nil {
		return err
	}
	drop := make(map[uuid.UUID]bool, len(wordIDs))
	for _, id := range wordIDs {
		drop[id] = true
	}
	kept := items[:0]
	for _, item := range items {
		if !drop[item.WordID] {
			kept = append(kept, item)
		}
	}
	return s.save(ctx, keyVocabulary, kept)
}

func (s *LocalStore) ListBooks(ctx context.Context) ([]*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var books []*model.Book
	if err := s.load(ctx, keyBooks, &books); err != nil {
		return nil, err
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
	return books, nil
}

func (s *LocalStore) InsertBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var books []*model.Book
	if err := s.load(ctx, keyBooks, &books); err != nil {
		return err
	}
	books = append(books, book)
	return s.save(ctx, keyBooks, books)
}

func (s *LocalStore) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var books []*model.Book
	if err := s.load(ctx, keyBooks, &books); err != nil {
		return err
	}
	found := false
	kept := books[:0]
	for _, b := range books {
		if b.BookID == bookID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return model.ErrNotFound
	}
	return s.save(ctx, keyBooks, kept)
}

func (s *LocalStore) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pages []*model.Page
	if err := s.load(ctx, pagesKey(bookID), &pages); err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages, nil
}

func (s *LocalStore) InsertPage(ctx context.Context, page *model.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var books []*model.Book
	if err := s.load(ctx, keyBooks, &books); err != nil {
		return err
	}
	var book *model.Book
	for _, b := range books {
		if b.BookID == page.BookID {
			book = b
			break
		}
	}
	if book == nil {
		return model.ErrNotFound
	}

	// 採番は「現在のページ数 + 1」。削除で欠番が出ても再利用しない
	page.PageNumber = book.PageCount + 1

	var pages []*model.Page
	if err := s.load(ctx, pagesKey(page.BookID), &pages); err != nil {
		return err
	}
	pages = append(pages, page)
	if err := s.save(ctx, pagesKey(page.BookID), pages); err != nil {
		return err
	}

	book.PageCount++
	return s.save(ctx, keyBooks, books)
}

func (s *LocalStore) UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pages []*model.Page
	if err := s.load(ctx, pagesKey(bookID), &pages); err != nil {
		return err
	}
	for _, p := range pages {
		if p.PageID == pageID {
			p.LastSentenceIndex = sentenceIndex
			return s.save(ctx, pagesKey(bookID), pages)
		}
	}
	return model.ErrNotFound
}

func (s *LocalStore) DeletePages(ctx context.Context, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop(ctx, pagesKey(bookID))
}

// --- デバイスローカル専用のキー ---

// LastAnalysis は直近の解析結果キャッシュを返します(未設定ならnil)
func (s *LocalStore) LastAnalysis(ctx context.Context) (*model.PageAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var analysis *model.PageAnalysisResult
	if err := s.load(ctx, keyLastAnalysis, &analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func (s *LocalStore) SaveLastAnalysis(ctx context.Context, analysis *model.PageAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, keyLastAnalysis, analysis)
}

func (s *LocalStore) ClearLastAnalysis(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop(ctx, keyLastAnalysis)
}

// History は解析履歴を新しい順で返します
func (s *LocalStore) History(ctx context.Context) ([]model.AnalysisHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []model.AnalysisHistoryEntry
	if err := s.load(ctx, keyHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// PushHistory は履歴の先頭にエントリを追加します。limit件を超えた分は古い順に破棄する。
func (s *LocalStore) PushHistory(ctx context.Context, entry model.AnalysisHistoryEntry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []model.AnalysisHistoryEntry
	if err := s.load(ctx, keyHistory, &history); err != nil {
		return err
	}
	history = append([]model.AnalysisHistoryEntry{entry}, history...)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return s.save(ctx, keyHistory, history)
}

// Theme はテーマ設定を返します(未設定なら空文字)
func (s *LocalStore) Theme(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var theme string
	if err := s.load(ctx, keyTheme, &theme); err != nil {
		return "", err
	}
	return theme, nil
}

func (s *LocalStore) SaveTheme(ctx context.Context, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, keyTheme, theme)
}

// Credentials はキャッシュ済みのセッション情報を返します(未設定ならnil)
func (s *LocalStore) Credentials(ctx context.Context) (*model.CachedCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var creds *model.CachedCredentials
	if err := s.load(ctx, keyCredentials, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *LocalStore) SaveCredentials(ctx context.Context, creds *model.CachedCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, keyCredentials, creds)
}

func (s *LocalStore) ClearCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop(ctx, keyCredentials)
}

// internal/repository/gateway.go
package repository

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store は語彙・本・ページに対する統一CRUD契約です。
// サービス層はこのインターフェースにのみ依存する。
type Store interface {
	ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error)
	// AddVocabularyBatch は候補を重複排除して一括登録し、実際に追加した件数を返す
	AddVocabularyBatch(ctx context.Context, candidates []model.VocabularyCandidate) (int, error)
	UpdateMasteryLevel(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel) error
	RemoveVocabularyBatch(ctx context.Context, wordIDs []uuid.UUID) error
	// ImportVocabulary は重複排除しつつ、指定済みの識別子を保持して取り込む
	ImportVocabulary(ctx context.Context, items []*model.VocabularyItem) (int, error)

	ListBooks(ctx context.Context) ([]*model.Book, error)
	CreateBook(ctx context.Context, title string, author *string) (*model.Book, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error

	ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error)
	AppendPage(ctx context.Context, bookID uuid.UUID, image string, analysis *model.PageAnalysisResult) (*model.Page, error)
	UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error
}

// gateway は Store の実装です。呼び出しごとにコンテキストの学習者IDを見て
// ローカル/リモートのバックエンドを選択する。選択結果はキャッシュしないため、
// セッション途中のサインインも次の呼び出しから透過的にリモートへ向かう。
//
// リモート障害時の方針は可用性優先: 読み取りは「データなし」、書き込みは
// 黙って無視(ログのみ)。ただし識別子を返す作成系(本の作成・ページ追加)は
// 失敗を呼び出し元に返す。識別子なしでは呼び出し元が先へ進めないため。
type gateway struct {
	local *LocalStore
	// remote は学習者IDに紐付くリモートバックエンドを作る。nilの場合リモートは無効
	remote func(learnerID uuid.UUID) Backend
}

func NewGateway(local *LocalStore, remoteDB *gorm.DB) Store {
	g := &gateway{local: local}
	if remoteDB != nil {
		g.remote = func(learnerID uuid.UUID) Backend {
			return newRemoteStore(remoteDB, learnerID)
		}
	}
	return g
}

// backend は今回の呼び出しで使うバックエンドを解決します
func (g *gateway) backend(ctx context.Context) (Backend, bool) {
	if g.remote != nil {
		if learnerID, ok := middleware.GetLearnerID(ctx); ok {
			return g.remote(learnerID), true
		}
	}
	return g.local, false
}

// normalizeLegacy は masteryLevel を持たない旧形式のレコードを正規化します
func normalizeLegacy(item *model.VocabularyItem) {
	if item.MasteryLevel == "" {
		if item.Mastered {
			item.MasteryLevel = model.MasteryMastered
		} else {
			item.MasteryLevel = model.MasteryNew
		}
	}
	item.Mastered = item.MasteryLevel == model.MasteryMastered
}

func (g *gateway) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	b, remote := g.backend(ctx)
	items, err := b.ListVocabulary(ctx)
	if err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote vocabulary read failed, returning empty list", "error", err)
			return []*model.VocabularyItem{}, nil
		}
		return nil, err
	}
	for _, item := range items {
		normalizeLegacy(item)
	}
	return items, nil
}

// existingTerms は保存済みの表層形(正規化済み)の集合を返します。
// リモート読み取りに失敗した場合は空集合(可用性優先)。
func (g *gateway) existingTerms(ctx context.Context, b Backend, remote bool) map[string]bool {
	seen := make(map[string]bool)
	items, err := b.ListVocabulary(ctx)
	if err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote vocabulary read failed during dedup, assuming empty", "error", err)
			return seen
		}
		// ローカル読み取り失敗も追加自体は止めない
		middleware.GetLogger(ctx).Error("Local vocabulary read failed during dedup, assuming empty", "error", err)
		return seen
	}
	for _, item := range items {
		seen[model.NormalizeTerm(item.Word)] = true
	}
	return seen
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (g *gateway) AddVocabularyBatch(ctx context.Context, candidates []model.VocabularyCandidate) (int, error) {
	b, remote := g.backend(ctx)
	seen := g.existingTerms(ctx, b, remote)

	// バッチ全体で同一の追加時刻を共有する
	now := time.Now()
	var items []*model.VocabularyItem
	for _, c := range candidates {
		norm := model.NormalizeTerm(c.Word)
		// 既存との重複もバッチ内の重複もここで落ちる
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		item := &model.VocabularyItem{
			WordID:             uuid.New(),
			Word:               strings.TrimSpace(c.Word),
			Translation:        strOrEmpty(c.Translation),
			Explanation:        strOrEmpty(c.Explanation),
			LiteralTranslation: c.LiteralTranslation,
			Category:           c.Category,
			BaseForm:           c.BaseForm,
			Tense:              c.Tense,
			Person:             c.Person,
			AddedAt:            now,
			MasteryLevel:       model.MasteryNew,
			Mastered:           false,
		}
		if c.ContextSentence != "" {
			sentence := c.ContextSentence
			item.ContextSentence = &sentence
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := b.InsertVocabulary(ctx, items); err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote vocabulary batch insert failed, dropped silently", "error", err, "count", len(items))
			return 0, nil
		}
		return 0, err
	}
	return len(items), nil
}

func (g *gateway) UpdateMasteryLevel(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel) error {
	if !level.Valid() {
		return model.ErrInvalidInput
	}
	b, remote := g.backend(ctx)
	err := b.UpdateVocabularyMastery(ctx, wordID, level, level == model.MasteryMastered)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		if remote {
			middleware.GetLogger(ctx).Error("Remote mastery update failed, dropped silently", "error", err, "word_id", wordID.String())
			return nil
		}
		return err
	}
	return nil
}

func (g *gateway) RemoveVocabularyBatch(ctx context.Context, wordIDs []uuid.UUID) error {
	if len(wordIDs) == 0 {
		return nil
	}
	b, remote := g.backend(ctx)
	if err := b.DeleteVocabulary(ctx, wordIDs); err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote vocabulary delete failed, dropped silently", "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (g *gateway) ImportVocabulary(ctx context.Context, toImport []*model.VocabularyItem) (int, error) {
	b, remote := g.backend(ctx)
	seen := g.existingTerms(ctx, b, remote)

	now := time.Now()
	var items []*model.VocabularyItem
	for _, src := range toImport {
		norm := model.NormalizeTerm(src.Word)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		item := *src
		item.Word = strings.TrimSpace(item.Word)
		// エクスポート元の識別子があれば保持する
		if item.WordID == uuid.Nil {
			item.WordID = uuid.New()
		}
		if item.AddedAt.IsZero() {
			item.AddedAt = now
		}
		normalizeLegacy(&item)
		items = append(items, &item)
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := b.InsertVocabulary(ctx, items); err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote vocabulary import failed, dropped silently", "error", err, "count", len(items))
			return 0, nil
		}
		return 0, err
	}
	return len(items), nil
}

func (g *gateway) ListBooks(ctx context.Context) ([]*model.Book, error) {
	b, remote := g.backend(ctx)
	books, err := b.ListBooks(ctx)
	if err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote book read failed, returning empty list", "error", err)
			return []*model.Book{}, nil
		}
		return nil, err
	}
	return books, nil
}

func (g *gateway) CreateBook(ctx context.Context, title string, author *string) (*model.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ErrInvalidInput
	}

	book := &model.Book{
		BookID:     uuid.New(),
		Title:      title,
		Author:     author,
		CoverStyle: model.CoverStyles[rand.Intn(len(model.CoverStyles))],
		PageCount:  0,
		CreatedAt:  time.Now(),
	}
	b, _ := g.backend(ctx)
	// 作成は識別子を返すため、リモート障害も握りつぶさず返す
	if err := b.InsertBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (g *gateway) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	b, remote := g.backend(ctx)

	// カスケード削除はベストエフォート。ページ削除の失敗で本の削除は止めない
	if err := b.DeletePages(ctx, bookID); err != nil {
		middleware.GetLogger(ctx).Warn("Cascade page delete failed, book will be deleted anyway", "error", err, "book_id", bookID.String())
	}

	if err := b.DeleteBook(ctx, bookID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		if remote {
			middleware.GetLogger(ctx).Error("Remote book delete failed, dropped silently", "error", err, "book_id", bookID.String())
			return nil
		}
		return err
	}
	return nil
}

func (g *gateway) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error) {
	b, remote := g.backend(ctx)
	pages, err := b.ListPages(ctx, bookID)
	if err != nil {
		if remote {
			middleware.GetLogger(ctx).Error("Remote page read failed, returning empty list", "error", err, "book_id", bookID.String())
			return []*model.Page{}, nil
		}
		return nil, err
	}
	return pages, nil
}

func (g *gateway) AppendPage(ctx context.Context, bookID uuid.UUID, image string, analysis *model.PageAnalysisResult) (*model.Page, error) {
	if analysis == nil {
		return nil, model.ErrInvalidInput
	}

	page := &model.Page{
		PageID:            uuid.New(),
		BookID:            bookID,
		Image:             image,
		Analysis:          analysis,
		LastSentenceIndex: 0,
		CreatedAt:         time.Now(),
	}
	b, _ := g.backend(ctx)
	// ページ追加も識別子を返す作成系。失敗はそのまま返す
	if err := b.InsertPage(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (g *gateway) UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error {
	if sentenceIndex < 0 {
		return model.ErrInvalidInput
	}
	b, remote := g.backend(ctx)
	err := b.UpdatePageProgress(ctx, bookID, pageID, sentenceIndex)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		if remote {
			middleware.GetLogger(ctx).Error("Remote progress save failed, dropped silently", "error", err, "page_id", pageID.String())
			return nil
		}
		return err
	}
	return nil
}

// internal/repository/backend.go
package repository

import (
	"context"

	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
)

// Backend は1つの永続化先(ローカル or リモート)に対する低レベル操作の契約です。
// 重複排除・正規化・フォールバックといったポリシーはゲートウェイ側が持ち、
// バックエンドは素朴な読み書きのみを提供する。
type Backend interface {
	ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error)
	InsertVocabulary(ctx context.Context, items []*model.VocabularyItem) error
	UpdateVocabularyMastery(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel, mastered bool) error
	DeleteVocabulary(ctx context.Context, wordIDs []uuid.UUID) error

	ListBooks(ctx context.Context) ([]*model.Book, error)
	InsertBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, bookID uuid.UUID) error

	// ListPages はページ番号の昇順で返す
	ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error)
	// InsertPage はページ番号の採番(現在のページ数+1)と本のページ数の加算を
	// 原子的に行い、page.PageNumber に採番結果をセットする
	InsertPage(ctx context.Context, page *model.Page) error
	UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error
	// DeletePages は本に属する全ページを削除する(カスケード削除用)
	DeletePages(ctx context.Context, bookID uuid.UUID) error
}

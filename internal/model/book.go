// internal/model/book.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CoverStyles は本の表紙スタイルの固定パレット。
// 本の作成時に疑似ランダムで1つ割り当てる(見た目のみの属性)。
var CoverStyles = []string{"amber", "forest", "ocean", "plum", "slate", "terracotta"}

// Book は読書単位(1冊の本)を表します
type Book struct {
	BookID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"book_id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Title      string    `gorm:"not null" json:"title"`
	Author     *string   `json:"author,omitempty"`
	CoverStyle string    `json:"cover_style"`
	// 子ページ数の非正規化カウンタ。ページ追加時にトランザクション内で加算する。
	// ページ番号は追記専用(欠番を再利用しない)ため、削除時には減算しない。
	PageCount int       `gorm:"not null;default:0" json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

// Page はスキャンされた1ページを表します
type Page struct {
	PageID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"page_id"`
	BookID  uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	// 1始まりの通し番号。作成時の「現在のページ数 + 1」で採番する
	PageNumber int `gorm:"not null" json:"page_number"`
	// 元画像(base64)。JSONレスポンスでは省略可
	Image string `gorm:"type:text" json:"image,omitempty"`
	// AI解析結果(不変)。リモートストアにはJSONドキュメントとして保存する
	Analysis *PageAnalysisResult `gorm:"serializer:json" json:"analysis,omitempty"`
	// 読書進捗チェックポイント(最後に表示した文のインデックス、デフォルト0)
	LastSentenceIndex int       `gorm:"not null;default:0" json:"last_sentence_index"`
	CreatedAt         time.Time `json:"created_at"`
}

func (Page) TableName() string {
	return "pages"
}

// 本作成リクエストDTO
type CreateBookRequest struct {
	Title  string  `json:"title" validate:"required,min=1,max=200"`
	Author *string `json:"author,omitempty" validate:"omitempty,max=200"`
}

// PageSummary はページ一覧用のレスポンスDTO(画像・解析結果は含めない)
type PageSummary struct {
	PageID            uuid.UUID `json:"page_id"`
	BookID            uuid.UUID `json:"book_id"`
	PageNumber        int       `json:"page_number"`
	SentenceCount     int       `json:"sentence_count"`
	LastSentenceIndex int       `json:"last_sentence_index"`
	CreatedAt         time.Time `json:"created_at"`
}

// Summary はページ一覧表示用のDTOへ変換します
func (p *Page) Summary() *PageSummary {
	count := 0
	if p.Analysis != nil {
		count = len(p.Analysis.Sentences)
	}
	return &PageSummary{
		PageID:            p.PageID,
		BookID:            p.BookID,
		PageNumber:        p.PageNumber,
		SentenceCount:     count,
		LastSentenceIndex: p.LastSentenceIndex,
		CreatedAt:         p.CreatedAt,
	}
}

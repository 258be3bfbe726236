// internal/model/vocabulary.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MasteryLevel は学習者が付ける習熟度ラベルです(時間ベースのスケジューリングはしない)
type MasteryLevel string

const (
	MasteryNew      MasteryLevel = "new"
	MasteryAgain    MasteryLevel = "again"
	MasteryMedium   MasteryLevel = "medium"
	MasteryGood     MasteryLevel = "good"
	MasteryMastered MasteryLevel = "mastered"
)

// Valid は習熟度ラベルとして正しい値かを返します
func (l MasteryLevel) Valid() bool {
	switch l {
	case MasteryNew, MasteryAgain, MasteryMedium, MasteryGood, MasteryMastered:
		return true
	}
	return false
}

// VocabularyItem は収集済みの単語・フレーズを表します
type VocabularyItem struct {
	WordID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"word_id"`
	OwnerID            uuid.UUID     `gorm:"type:uuid;not null;index" json:"-"` // リモートストアのみ使用
	Word               string        `gorm:"not null" json:"word"`              // 表層形(トリム済み)
	Translation        string        `json:"translation"`
	Explanation        string        `json:"explanation"`
	LiteralTranslation *string       `json:"literal_translation,omitempty"`
	Category           *WordCategory `json:"category,omitempty"`
	BaseForm           *string       `json:"base_form,omitempty"`
	Tense              *string       `json:"tense,omitempty"`
	Person             *string       `json:"person,omitempty"`
	ContextSentence    *string       `json:"context_sentence,omitempty"`
	AddedAt            time.Time     `gorm:"not null;index" json:"added_at"`
	MasteryLevel       MasteryLevel  `json:"mastery_level"`
	// 旧クライアント互換のためのフィールド。常に (MasteryLevel == mastered) と同期する。
	// 業務ロジックはこの値を読まない。
	Mastered bool `json:"mastered"`
}

func (VocabularyItem) TableName() string {
	return "vocabulary_items"
}

// NormalizeTerm は重複判定用に表層形を正規化します(トリム + 小文字化)
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// 習熟度更新リクエストDTO
type UpdateMasteryRequest struct {
	MasteryLevel string `json:"mastery_level" validate:"required,oneof=new again medium good mastered"`
}

// 一括削除リクエストDTO
type DeleteVocabularyRequest struct {
	WordIDs []uuid.UUID `json:"word_ids" validate:"required,min=1"`
}

// インポートリクエストDTO (エクスポート済みJSONの取り込み)
type ImportVocabularyRequest struct {
	Items []*VocabularyItem `json:"items" validate:"required,min=1"`
}

// ImportVocabularyResponse はインポート結果
type ImportVocabularyResponse struct {
	Imported int `json:"imported"`
}

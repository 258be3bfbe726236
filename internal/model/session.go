// internal/model/session.go
package model

import "github.com/google/uuid"

// ReadingPhase は読書ウォークスルーの現在フェーズです
type ReadingPhase string

const (
	PhaseSentence    ReadingPhase = "sentence"    // 文全体の表示
	PhaseWords       ReadingPhase = "words"       // 語ごとの表示
	PhaseTranslation ReadingPhase = "translation" // 訳の表示
)

// ReadingEntry は1文の語彙キューの1エントリです。
// 下位語(複合語の構成語)の場合、PhraseOf に親フレーズの表層形が入る(ハイライト用)。
type ReadingEntry struct {
	Word string `json:"word"`
	WordDetail
	ContextSentence string  `json:"context_sentence"`
	PhraseOf        *string `json:"phrase_of,omitempty"`
}

// StartReadingRequest は読書セッション開始リクエストDTO
type StartReadingRequest struct {
	BookID uuid.UUID `json:"book_id" validate:"required"`
	PageID uuid.UUID `json:"page_id" validate:"required"`
}

// ReadingStateResponse は読書セッションの現在状態
type ReadingStateResponse struct {
	SessionID     uuid.UUID     `json:"session_id"`
	SentenceIndex int           `json:"sentence_index"`
	SentenceCount int           `json:"sentence_count"`
	Phase         ReadingPhase  `json:"phase"`
	WordIndex     int           `json:"word_index"`
	Sentence      *Sentence     `json:"sentence,omitempty"` // 現在の文(終了後はnil)
	CurrentWord   *ReadingEntry `json:"current_word,omitempty"`
	Finished      bool          `json:"finished"`
}

// SpeakRequest は読み上げリクエストDTO
type SpeakRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// TrainingConfig はトレーニングセッションの絞り込み設定です。
// カテゴリ "other" は「カテゴリなし、または未知のカテゴリ」を意味する。
type TrainingConfig struct {
	Categories []string `json:"categories" validate:"required,min=1,dive,oneof=noun verb adjective other"`
	Levels     []string `json:"levels" validate:"required,min=1,dive,oneof=new again medium good mastered"`
	// 動詞について原形のみを対象にする(活用形を除外する)
	VerbsBaseFormOnly bool `json:"verbs_base_form_only"`
}

// TrainingCard はトレーニング中に表示する1枚のカード
type TrainingCard struct {
	WordID uuid.UUID `json:"word_id"`
	Word   string    `json:"word"`
	// 以下は Revealed のときのみ返す
	Translation        *string `json:"translation,omitempty"`
	Explanation        *string `json:"explanation,omitempty"`
	LiteralTranslation *string `json:"literal_translation,omitempty"`
	ContextSentence    *string `json:"context_sentence,omitempty"`
}

// TrainingStateResponse はトレーニングセッションの現在状態
type TrainingStateResponse struct {
	SessionID uuid.UUID     `json:"session_id"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Revealed  bool          `json:"revealed"`
	Card      *TrainingCard `json:"card,omitempty"` // 終了後はnil
	Finished  bool          `json:"finished"`
}

// RateCardRequest はカード評価リクエストDTO。
// "new" は評価としては使えない(評価は必ずラベルを前へ進めるか戻すかのどちらか)。
type RateCardRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again medium good mastered"`
}

// ThemeRequest はテーマ設定リクエストDTO
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark system"`
}

// internal/model/analysis.go
package model

// TokenType はAI解析が返すトークンの種別です
type TokenType string

const (
	TokenTypeWord        TokenType = "word"
	TokenTypePunctuation TokenType = "punctuation"
)

// WordCategory は品詞カテゴリ
type WordCategory string

const (
	CategoryNoun      WordCategory = "noun"
	CategoryVerb      WordCategory = "verb"
	CategoryAdjective WordCategory = "adjective"
	CategoryFunction  WordCategory = "function"
)

// WordDetail は語トークンに付随する文法情報です。
// 省略可能な属性はポインタで表現し、JSONでは存在しない値を出力しない
// (リモートストアは「値なし」を受け付けないため、omitemptyがサニタイズを兼ねる)。
type WordDetail struct {
	Translation        *string       `json:"translation,omitempty"`
	Explanation        *string       `json:"explanation,omitempty"`
	LiteralTranslation *string       `json:"literal_translation,omitempty"`
	Category           *WordCategory `json:"category,omitempty"`
	BaseForm           *string       `json:"base_form,omitempty"` // 原形(レンマ)
	Tense              *string       `json:"tense,omitempty"`
	Person             *string       `json:"person,omitempty"`
}

// SubWord は複合語(再帰動詞など)を構成する個々の語です。
// SubWord はさらに下位語を持たない。トークン木の深さが2で固定であることを
// 型で保証するため、LexicalToken とは別の型にしている。
type SubWord struct {
	Text string `json:"text"`
	WordDetail
}

// LexicalToken は文を構成する1トークン(語・複合語・句読点)です
type LexicalToken struct {
	Text string    `json:"text"`
	Type TokenType `json:"type"`
	WordDetail
	// Type = word の場合のみ。複合語を構成する語のリスト
	SubWords []SubWord `json:"sub_words,omitempty"`
}

// Sentence はページ上の1文とその解析結果です。
// Tokens の表層文字列を順に連結すると Original と一致する(句読点・空白含む)。
type Sentence struct {
	Original    string         `json:"original"`
	Translation string         `json:"translation"`
	Tokens      []LexicalToken `json:"tokens"`
}

// PageAnalysisResult はAI解析サービスが1ページに対して返す結果です。
// 文の順序はページ上の出現順で、意味を持つ。
type PageAnalysisResult struct {
	Sentences []Sentence `json:"sentences"`
}

// VocabularyCandidate は平坦化で得られる語彙登録候補です
type VocabularyCandidate struct {
	Word string `json:"word"`
	WordDetail
	ContextSentence string `json:"context_sentence"` // 抽出元の文
}

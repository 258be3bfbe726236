// internal/service/training_session.go
package service

import (
	"math/rand"

	"go_4_scan_read/internal/model"
)

// matchesCategory はカードの品詞が選択カテゴリに含まれるかを判定します。
// "other" は noun/verb/adjective のいずれでもないもの全て
// (カテゴリなし、機能語、未知のカテゴリ)を受ける。
func matchesCategory(item *model.VocabularyItem, categories []string) bool {
	var actual string
	if item.Category != nil {
		actual = string(*item.Category)
	}
	primary := actual == string(model.CategoryNoun) ||
		actual == string(model.CategoryVerb) ||
		actual == string(model.CategoryAdjective)

	for _, c := range categories {
		if c == "other" {
			if !primary {
				return true
			}
			continue
		}
		if primary && c == actual {
			return true
		}
	}
	return false
}

// isConjugatedVerb は原形が別に存在する動詞(=活用形)かを判定します
func isConjugatedVerb(item *model.VocabularyItem) bool {
	if item.Category == nil || *item.Category != model.CategoryVerb {
		return false
	}
	if item.BaseForm == nil {
		return false
	}
	return model.NormalizeTerm(*item.BaseForm) != model.NormalizeTerm(item.Word)
}

// FilterTrainingItems は設定に合致する語彙を抽出します。元の順序を保つ。
func FilterTrainingItems(items []*model.VocabularyItem, cfg *model.TrainingConfig) []*model.VocabularyItem {
	levels := make(map[string]bool, len(cfg.Levels))
	for _, l := range cfg.Levels {
		levels[l] = true
	}

	var selected []*model.VocabularyItem
	for _, item := range items {
		if !levels[string(item.MasteryLevel)] {
			continue
		}
		if !matchesCategory(item, cfg.Categories) {
			continue
		}
		if cfg.VerbsBaseFormOnly && isConjugatedVerb(item) {
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

// TrainingSession はシャッフル済みの固定カードキューを1周する状態機械です。
// 評価済みカードの再投入はしない(1セッション = 各カード1回)。
type TrainingSession struct {
	items    []*model.VocabularyItem
	index    int
	revealed bool
}

// NewTrainingSession は抽出済みの語彙から一様シャッフルでセッションを作ります
func NewTrainingSession(items []*model.VocabularyItem) *TrainingSession {
	shuffled := make([]*model.VocabularyItem, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &TrainingSession{items: shuffled}
}

// Current は現在のカードを返します(終了後はnil)
func (t *TrainingSession) Current() *model.VocabularyItem {
	if t.Finished() {
		return nil
	}
	return t.items[t.index]
}

// Reveal はカードの裏面(訳・解説)を表示状態にします
func (t *TrainingSession) Reveal() {
	if !t.Finished() {
		t.revealed = true
	}
}

// Next は次のカードへ進みます
func (t *TrainingSession) Next() {
	if t.Finished() {
		return
	}
	t.index++
	t.revealed = false
}

func (t *TrainingSession) Finished() bool {
	return t.index >= len(t.items)
}

// Snapshot は現在状態のレスポンス表現を返します
func (t *TrainingSession) Snapshot() model.TrainingStateResponse {
	resp := model.TrainingStateResponse{
		Index:    t.index,
		Total:    len(t.items),
		Revealed: t.revealed,
		Finished: t.Finished(),
	}
	item := t.Current()
	if item == nil {
		return resp
	}

	card := &model.TrainingCard{
		WordID: item.WordID,
		Word:   item.Word,
	}
	if t.revealed {
		// 裏面の情報は表示状態になるまで返さない
		if item.Translation != "" {
			translation := item.Translation
			card.Translation = &translation
		}
		if item.Explanation != "" {
			explanation := item.Explanation
			card.Explanation = &explanation
		}
		card.LiteralTranslation = item.LiteralTranslation
		card.ContextSentence = item.ContextSentence
	}
	resp.Card = card
	return resp
}

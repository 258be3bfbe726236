// internal/service/training_session_test.go
package service

import (
	"testing"

	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainItem(word string, level model.MasteryLevel, category *model.WordCategory, baseForm *string) *model.VocabularyItem {
	return &model.VocabularyItem{
		WordID:       uuid.New(),
		Word:         word,
		MasteryLevel: level,
		Category:     category,
		BaseForm:     baseForm,
	}
}

func catp(c model.WordCategory) *model.WordCategory { return &c }

func strp(s string) *string { return &s }

func TestFilterTrainingItems(t *testing.T) {
	items := []*model.VocabularyItem{
		trainItem("casa", model.MasteryNew, catp(model.CategoryNoun), nil),
		trainItem("hablar", model.MasteryNew, catp(model.CategoryVerb), strp("hablar")),
		trainItem("hablé", model.MasteryAgain, catp(model.CategoryVerb), strp("hablar")),
		trainItem("rojo", model.MasteryGood, catp(model.CategoryAdjective), nil),
		trainItem("de", model.MasteryNew, catp(model.CategoryFunction), nil),
		trainItem("eso", model.MasteryNew, nil, nil),
		trainItem("viejo", model.MasteryMastered, catp(model.CategoryAdjective), nil),
	}

	tests := []struct {
		name      string
		cfg       model.TrainingConfig
		wantWords []string
	}{
		{
			name: "正常系: 習熟度で絞り込む",
			cfg: model.TrainingConfig{
				Categories: []string{"noun", "verb", "adjective", "other"},
				Levels:     []string{"new"},
			},
			wantWords: []string{"casa", "hablar", "de", "eso"},
		},
		{
			name: "正常系: otherはカテゴリなし・機能語を受ける",
			cfg: model.TrainingConfig{
				Categories: []string{"other"},
				Levels:     []string{"new", "again", "medium", "good", "mastered"},
			},
			wantWords: []string{"de", "eso"},
		},
		{
			name: "正常系: 動詞の原形のみ(活用形を除外)",
			cfg: model.TrainingConfig{
				Categories:        []string{"verb"},
				Levels:            []string{"new", "again"},
				VerbsBaseFormOnly: true,
			},
			wantWords: []string{"hablar"},
		},
		{
			name: "正常系: 原形フィルタは動詞以外に影響しない",
			cfg: model.TrainingConfig{
				Categories:        []string{"noun", "adjective"},
				Levels:            []string{"new", "good", "mastered"},
				VerbsBaseFormOnly: true,
			},
			wantWords: []string{"casa", "rojo", "viejo"},
		},
		{
			name: "正常系: 合致なしは空",
			cfg: model.TrainingConfig{
				Categories: []string{"noun"},
				Levels:     []string{"medium"},
			},
			wantWords: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := FilterTrainingItems(items, &tt.cfg)
			var words []string
			for _, item := range selected {
				words = append(words, item.Word)
			}
			assert.Equal(t, tt.wantWords, words)
		})
	}
}

func TestTrainingSession_Walkthrough(t *testing.T) {
	items := []*model.VocabularyItem{
		trainItem("casa", model.MasteryNew, catp(model.CategoryNoun), nil),
		trainItem("hablar", model.MasteryNew, catp(model.CategoryVerb), strp("hablar")),
	}
	sess := NewTrainingSession(items)

	seen := map[string]bool{}
	for i := 0; i < len(items); i++ {
		card := sess.Current()
		require.NotNil(t, card)
		seen[card.Word] = true
		sess.Reveal()
		sess.Next()
	}

	// 各カードはちょうど1回ずつ出る(再投入なし)
	assert.True(t, sess.Finished())
	assert.Nil(t, sess.Current())
	assert.Len(t, seen, 2)

	// 終了後のNext/Revealは何もしない
	sess.Next()
	sess.Reveal()
	snap := sess.Snapshot()
	assert.True(t, snap.Finished)
	assert.Nil(t, snap.Card)
}

func TestTrainingSession_Snapshot_HidesBackUntilRevealed(t *testing.T) {
	item := trainItem("casa", model.MasteryNew, catp(model.CategoryNoun), nil)
	item.Translation = "家"
	item.Explanation = "名詞"
	item.ContextSentence = strp("La casa es grande.")
	sess := NewTrainingSession([]*model.VocabularyItem{item})

	snap := sess.Snapshot()
	require.NotNil(t, snap.Card)
	assert.Equal(t, "casa", snap.Card.Word)
	assert.False(t, snap.Revealed)
	assert.Nil(t, snap.Card.Translation, "裏面は表示前に返さない")
	assert.Nil(t, snap.Card.Explanation)
	assert.Nil(t, snap.Card.ContextSentence)

	sess.Reveal()
	snap = sess.Snapshot()
	require.NotNil(t, snap.Card)
	assert.True(t, snap.Revealed)
	require.NotNil(t, snap.Card.Translation)
	assert.Equal(t, "家", *snap.Card.Translation)
	require.NotNil(t, snap.Card.ContextSentence)
	assert.Equal(t, "La casa es grande.", *snap.Card.ContextSentence)

	// 次のカードへ進むと表示状態はリセットされる
	sess.Next()
	assert.True(t, sess.Finished())
}

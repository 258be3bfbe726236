// internal/service/reading_flow_test.go
package service

import (
	"testing"

	"go_4_scan_read/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordToken(text string) model.LexicalToken {
	return model.LexicalToken{Text: text, Type: model.TokenTypeWord}
}

// 2文構成: 1文目は語3つ、2文目は句読点のみ(語キューが空)
func flowSentences() []model.Sentence {
	return []model.Sentence{
		{
			Original:    "Me gusta leer.",
			Translation: "読書が好きです。",
			Tokens: []model.LexicalToken{
				wordToken("Me"),
				wordToken("gusta"),
				wordToken("leer"),
				{Text: ".", Type: model.TokenTypePunctuation},
			},
		},
		{
			Original:    "...",
			Translation: "…",
			Tokens: []model.LexicalToken{
				{Text: "...", Type: model.TokenTypePunctuation},
			},
		},
	}
}

type flowState struct {
	sentenceIndex int
	phase         model.ReadingPhase
	wordIndex     int
	finished      bool
}

func stateOf(f *Flow) flowState {
	snap := f.Snapshot()
	return flowState{
		sentenceIndex: snap.SentenceIndex,
		phase:         snap.Phase,
		wordIndex:     snap.WordIndex,
		finished:      snap.Finished,
	}
}

func TestFlow_Advance_FullWalkthrough(t *testing.T) {
	f := NewFlow(flowSentences(), 0)

	// 文 → 語1 → 語2 → 語3 → 訳 → 文(語なしのため訳へ) → 訳 → 終了
	want := []flowState{
		{0, model.PhaseSentence, 0, false},
		{0, model.PhaseWords, 0, false},
		{0, model.PhaseWords, 1, false},
		{0, model.PhaseWords, 2, false},
		{0, model.PhaseTranslation, 0, false},
		{1, model.PhaseSentence, 0, false},
		{1, model.PhaseTranslation, 0, false},
		{1, model.PhaseTranslation, 0, true},
	}

	assert.Equal(t, want[0], stateOf(f))
	for i := 1; i < len(want); i++ {
		f.Advance()
		assert.Equal(t, want[i], stateOf(f), "advance %d 回目", i)
	}
	assert.True(t, f.Finished())

	// 終了後のAdvanceは状態を変えない
	f.Advance()
	assert.Equal(t, want[len(want)-1], stateOf(f))
}

func TestFlow_Back_MirrorsAdvance(t *testing.T) {
	f := NewFlow(flowSentences(), 0)

	// 終了直前まで進める(7ステップ目で終了するので6ステップ)
	var trail []flowState
	trail = append(trail, stateOf(f))
	for i := 0; i < 6; i++ {
		f.Advance()
		trail = append(trail, stateOf(f))
	}
	require.Equal(t, flowState{1, model.PhaseTranslation, 0, false}, stateOf(f))

	// 来た道を逆順にたどる
	for i := len(trail) - 2; i >= 0; i-- {
		f.Back()
		assert.Equal(t, trail[i], stateOf(f))
	}

	// 先頭の文フェーズでのBackは何もしない
	f.Back()
	assert.Equal(t, trail[0], stateOf(f))
}

func TestFlow_Back_FromFinished(t *testing.T) {
	f := NewFlow(flowSentences(), 0)
	for !f.Finished() {
		f.Advance()
	}

	// 終了状態から戻ると最終文の訳フェーズに復帰する
	f.Back()
	assert.Equal(t, flowState{1, model.PhaseTranslation, 0, false}, stateOf(f))
}

func TestFlow_Skip(t *testing.T) {
	tests := []struct {
		name    string
		advance int // スキップ前に進める回数
		skip    int
		want    flowState
	}{
		{
			name: "正常系: 語フェーズの途中からでも次の文の文フェーズへ",
			advance: 2, skip: 1,
			want: flowState{1, model.PhaseSentence, 0, false},
		},
		{
			name: "正常系: 最終文でのスキップは終了扱い",
			advance: 0, skip: 2,
			want: flowState{1, model.PhaseSentence, 0, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlow(flowSentences(), 0)
			for i := 0; i < tt.advance; i++ {
				f.Advance()
			}
			for i := 0; i < tt.skip; i++ {
				f.Skip()
			}
			assert.Equal(t, tt.want, stateOf(f))
		})
	}
}

func TestFlow_ResumeIndexClamped(t *testing.T) {
	tests := []struct {
		name        string
		resumeIndex int
		wantIndex   int
	}{
		{"正常系: 範囲内の再開位置", 1, 1},
		{"正常系: 負の値は先頭にクランプ", -5, 0},
		{"正常系: 範囲超過は末尾にクランプ", 99, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlow(flowSentences(), tt.resumeIndex)
			assert.Equal(t, tt.wantIndex, f.SentenceIndex())
			assert.Equal(t, model.PhaseSentence, f.Snapshot().Phase)
		})
	}
}

func TestFlow_Snapshot(t *testing.T) {
	f := NewFlow(flowSentences(), 0)

	snap := f.Snapshot()
	require.NotNil(t, snap.Sentence)
	assert.Equal(t, "Me gusta leer.", snap.Sentence.Original)
	assert.Nil(t, snap.CurrentWord, "語フェーズ以外ではCurrentWordを返さない")
	assert.Equal(t, 2, snap.SentenceCount)

	f.Advance() // 語フェーズへ
	snap = f.Snapshot()
	require.NotNil(t, snap.CurrentWord)
	assert.Equal(t, "Me", snap.CurrentWord.Word)

	for !f.Finished() {
		f.Advance()
	}
	snap = f.Snapshot()
	assert.True(t, snap.Finished)
	assert.Nil(t, snap.Sentence, "終了後は現在文を返さない")
	assert.Nil(t, snap.CurrentWord)
}

// internal/service/reading_flow.go
package service

import (
	"go_4_scan_read/internal/lexical"
	"go_4_scan_read/internal/model"
)

// Flow は1ページの読書ウォークスルーの状態機械です。
// 各文を「文 → 語 → 訳」の3フェーズで進む。語キューが空の文では
// 語フェーズを飛ばす。並行アクセスの制御は呼び出し側(ReadingService)が行う。
type Flow struct {
	sentences []model.Sentence
	// 文ごとの語キュー(開始時に一度だけ構築する)
	queues [][]model.ReadingEntry

	sentenceIndex int
	phase         model.ReadingPhase
	wordIndex     int
	finished      bool
}

// NewFlow は読書フローを作ります。resumeIndex は前回の進捗チェックポイントで、
// 範囲外の値は先頭/末尾にクランプされる。
func NewFlow(sentences []model.Sentence, resumeIndex int) *Flow {
	queues := make([][]model.ReadingEntry, len(sentences))
	for i, sentence := range sentences {
		queues[i] = lexical.ReadingQueue(sentence)
	}

	if resumeIndex < 0 {
		resumeIndex = 0
	}
	if resumeIndex >= len(sentences) {
		resumeIndex = len(sentences) - 1
	}

	return &Flow{
		sentences:     sentences,
		queues:        queues,
		sentenceIndex: resumeIndex,
		phase:         model.PhaseSentence,
	}
}

func (f *Flow) queue() []model.ReadingEntry {
	return f.queues[f.sentenceIndex]
}

// Advance は1ステップ前へ進めます。終了後は何もしない。
func (f *Flow) Advance() {
	if f.finished {
		return
	}
	switch f.phase {
	case model.PhaseSentence:
		if len(f.queue()) == 0 {
			f.phase = model.PhaseTranslation
			return
		}
		f.phase = model.PhaseWords
		f.wordIndex = 0
	case model.PhaseWords:
		f.wordIndex++
		if f.wordIndex >= len(f.queue()) {
			f.phase = model.PhaseTranslation
			f.wordIndex = 0
		}
	case model.PhaseTranslation:
		if f.sentenceIndex+1 >= len(f.sentences) {
			f.finished = true
			return
		}
		f.sentenceIndex++
		f.phase = model.PhaseSentence
		f.wordIndex = 0
	}
}

// Back は1ステップ戻ります。先頭の文フェーズではなにもしない。
// 終了後に戻ると最終文の訳フェーズに復帰する。
func (f *Flow) Back() {
	if f.finished {
		f.finished = false
		f.sentenceIndex = len(f.sentences) - 1
		f.phase = model.PhaseTranslation
		f.wordIndex = 0
		return
	}
	switch f.phase {
	case model.PhaseSentence:
		if f.sentenceIndex == 0 {
			return
		}
		f.sentenceIndex--
		f.phase = model.PhaseTranslation
		f.wordIndex = 0
	case model.PhaseWords:
		if f.wordIndex == 0 {
			f.phase = model.PhaseSentence
			return
		}
		f.wordIndex--
	case model.PhaseTranslation:
		if len(f.queue()) == 0 {
			f.phase = model.PhaseSentence
			return
		}
		f.phase = model.PhaseWords
		f.wordIndex = len(f.queue()) - 1
	}
}

// Skip は現在の文の残りを飛ばして次の文の文フェーズへ移ります。
// 最終文でのスキップはフローを終了させる。スキップは「読んだ」扱いにしない。
func (f *Flow) Skip() {
	if f.finished {
		return
	}
	if f.sentenceIndex+1 >= len(f.sentences) {
		f.finished = true
		return
	}
	f.sentenceIndex++
	f.phase = model.PhaseSentence
	f.wordIndex = 0
}

// Finished はフローが終端に達したかを返します
func (f *Flow) Finished() bool {
	return f.finished
}

// SentenceIndex は現在の文インデックス(進捗チェックポイント値)を返します
func (f *Flow) SentenceIndex() int {
	return f.sentenceIndex
}

// Snapshot は現在状態のレスポンス表現を返します
func (f *Flow) Snapshot() model.ReadingStateResponse {
	resp := model.ReadingStateResponse{
		SentenceIndex: f.sentenceIndex,
		SentenceCount: len(f.sentences),
		Phase:         f.phase,
		WordIndex:     f.wordIndex,
		Finished:      f.finished,
	}
	if f.finished {
		return resp
	}
	sentence := f.sentences[f.sentenceIndex]
	resp.Sentence = &sentence
	if f.phase == model.PhaseWords {
		entry := f.queue()[f.wordIndex]
		resp.CurrentWord = &entry
	}
	return resp
}

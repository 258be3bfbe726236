// internal/lexical/flatten.go
package lexical

import "go_4_scan_read/internal/model"

// Flatten は解析結果の全文から語彙登録候補を抽出します。
// 句読点トークンは捨てる。複合語は親フレーズを先に、直後に構成語を出力する。
// 文の出現順・トークンの出現順を保つ。
func Flatten(sentences []model.Sentence) []model.VocabularyCandidate {
	var candidates []model.VocabularyCandidate
	for _, sentence := range sentences {
		for _, token := range sentence.Tokens {
			if token.Type != model.TokenTypeWord {
				continue
			}
			candidates = append(candidates, model.VocabularyCandidate{
				Word:            token.Text,
				WordDetail:      token.WordDetail,
				ContextSentence: sentence.Original,
			})
			for _, sub := range token.SubWords {
				candidates = append(candidates, model.VocabularyCandidate{
					Word:            sub.Text,
					WordDetail:      sub.WordDetail,
					ContextSentence: sentence.Original,
				})
			}
		}
	}
	return candidates
}

// ReadingQueue は1文の語フェーズで巡回する語のキューを作ります。
// Flatten と同じ展開順で、構成語には親フレーズの表層形を付ける。
func ReadingQueue(sentence model.Sentence) []model.ReadingEntry {
	var entries []model.ReadingEntry
	for _, token := range sentence.Tokens {
		if token.Type != model.TokenTypeWord {
			continue
		}
		entries = append(entries, model.ReadingEntry{
			Word:            token.Text,
			WordDetail:      token.WordDetail,
			ContextSentence: sentence.Original,
		})
		if len(token.SubWords) == 0 {
			continue
		}
		phrase := token.Text
		for _, sub := range token.SubWords {
			entries = append(entries, model.ReadingEntry{
				Word:            sub.Text,
				WordDetail:      sub.WordDetail,
				ContextSentence: sentence.Original,
				PhraseOf:        &phrase,
			})
		}
	}
	return entries
}

// internal/model/scan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanRequest はページ画像の解析リクエストDTO。
// BookID が指定されていればそのままページとして取り込み、
// 未指定なら解析結果を保留キャッシュに置き、本の選択を呼び出し元に委ねる。
type ScanRequest struct {
	Image  string     `json:"image" validate:"required"` // base64エンコード済み画像
	BookID *uuid.UUID `json:"book_id,omitempty"`
}

// IngestionResult はページ取り込みの結果
type IngestionResult struct {
	Page          *PageSummary `json:"page"`
	InsertedWords int          `json:"inserted_words"` // 実際に追加された語彙数(重複除外後)
}

// ScanResponse はスキャンAPIのレスポンス
type ScanResponse struct {
	Analysis *PageAnalysisResult `json:"analysis"`
	// 本が未選択の場合のみ: 選択候補の一覧
	Books []*Book `json:"books,omitempty"`
	// 本が選択済みの場合のみ: 取り込み結果
	Ingestion *IngestionResult `json:"ingestion,omitempty"`
}

// CommitScanRequest は保留中の解析結果を本に紐付けて取り込むリクエストDTO。
// BookID か NewBook のどちらか一方を指定する。
type CommitScanRequest struct {
	BookID  *uuid.UUID         `json:"book_id,omitempty"`
	NewBook *CreateBookRequest `json:"new_book,omitempty"`
}

// AnalysisHistoryEntry は解析履歴の1件(ローカルストアに直近10件のみ保持)
type AnalysisHistoryEntry struct {
	ScannedAt     time.Time           `json:"scanned_at"`
	SentenceCount int                 `json:"sentence_count"`
	Preview       string              `json:"preview"` // 先頭文の冒頭
	Analysis      *PageAnalysisResult `json:"analysis"`
}

// internal/service/analyzer.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
)

// Analyzer はページ画像をAI解析サービスへ送り、構造化された解析結果を受け取ります
type Analyzer interface {
	AnalyzePage(ctx context.Context, image string) (*model.PageAnalysisResult, error)
}

// --- httpAnalyzer ---

type analyzeRequest struct {
	Image string `json:"image"` // base64エンコード済みのページ写真
}

type httpAnalyzer struct {
	cfg    *config.Config
	client *http.Client
}

func (a *httpAnalyzer) AnalyzePage(ctx context.Context, image string) (*model.PageAnalysisResult, error) {
	logger := middleware.GetLogger(ctx)

	payload, err := json.Marshal(analyzeRequest{Image: image})
	if err != nil {
		return nil, fmt.Errorf("httpAnalyzer.AnalyzePage: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Analyzer.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("httpAnalyzer.AnalyzePage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.Analyzer.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Analyzer.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Error("Analyzer request failed", "error", err, "url", a.cfg.Analyzer.URL)
		return nil, fmt.Errorf("httpAnalyzer.AnalyzePage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Analyzer returned non-OK status", "status", resp.StatusCode)
		return nil, fmt.Errorf("httpAnalyzer.AnalyzePage: unexpected status %d", resp.StatusCode)
	}

	var result model.PageAnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("Failed to decode analyzer response", "error", err)
		return nil, fmt.Errorf("httpAnalyzer.AnalyzePage: decode response: %w", err)
	}

	logger.Info("Page analyzed", "sentences", len(result.Sentences))
	return &result, nil
}

// --- stubAnalyzer ---

// stubAnalyzer はAIサービスなしで開発・テストするための固定応答実装です
type stubAnalyzer struct{}

func (a *stubAnalyzer) AnalyzePage(ctx context.Context, image string) (*model.PageAnalysisResult, error) {
	translation := "こんにちは"
	category := model.CategoryNoun
	return &model.PageAnalysisResult{
		Sentences: []model.Sentence{
			{
				Original:    "Hola.",
				Translation: "こんにちは。",
				Tokens: []model.LexicalToken{
					{
						Text: "Hola",
						Type: model.TokenTypeWord,
						WordDetail: model.WordDetail{
							Translation: &translation,
							Category:    &category,
						},
					},
					{Text: ".", Type: model.TokenTypePunctuation},
				},
			},
		},
	}, nil
}

// NewAnalyzer は設定に応じた Analyzer 実装を返します
func NewAnalyzer(cfg *config.Config) Analyzer {
	switch cfg.Analyzer.Type {
	case "http":
		slog.Info("Initializing HTTP analyzer...", "url", cfg.Analyzer.URL)
		return &httpAnalyzer{
			cfg:    cfg,
			client: &http.Client{Timeout: cfg.Analyzer.Timeout},
		}
	case "stub":
		slog.Info("Initializing stub analyzer...")
		return &stubAnalyzer{}
	default:
		slog.Warn("Unknown analyzer type, defaulting to stub", "type", cfg.Analyzer.Type)
		return &stubAnalyzer{}
	}
}

// internal/service/speech.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/middleware"
)

// Synthesizer はテキストを音声データ(MP3)に変換します
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// --- httpSynthesizer ---

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type httpSynthesizer struct {
	cfg    *config.Config
	client *http.Client
}

func (s *httpSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	logger := middleware.GetLogger(ctx)

	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: s.cfg.Speech.Voice})
	if err != nil {
		return nil, fmt.Errorf("httpSynthesizer.Synthesize: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Speech.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("httpSynthesizer.Synthesize: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Speech.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Speech.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("Speech request failed", "error", err, "url", s.cfg.Speech.URL)
		return nil, fmt.Errorf("httpSynthesizer.Synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Speech service returned non-OK status", "status", resp.StatusCode)
		return nil, fmt.Errorf("httpSynthesizer.Synthesize: unexpected status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpSynthesizer.Synthesize: read response: %w", err)
	}
	return audio, nil
}

// --- stubSynthesizer ---

// stubSynthesizer は音声サービスなしで開発・テストするための実装です。
// 無音に近い最小のMP3フレームを返す。
type stubSynthesizer struct{}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte{0xFF, 0xFB, 0x90, 0x00}, nil
}

// NewSynthesizer は設定に応じた Synthesizer 実装を返します
func NewSynthesizer(cfg *config.Config) Synthesizer {
	switch cfg.Speech.Type {
	case "http":
		slog.Info("Initializing HTTP speech synthesizer...", "url", cfg.Speech.URL)
		return &httpSynthesizer{
			cfg:    cfg,
			client: &http.Client{Timeout: cfg.Speech.Timeout},
		}
	case "stub":
		slog.Info("Initializing stub speech synthesizer...")
		return &stubSynthesizer{}
	default:
		slog.Warn("Unknown speech type, defaulting to stub", "type", cfg.Speech.Type)
		return &stubSynthesizer{}
	}
}

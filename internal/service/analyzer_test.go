// internal/service/analyzer_test.go
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzerConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Analyzer.Type = "http"
	cfg.Analyzer.URL = url
	cfg.Analyzer.APIKey = "test-key"
	cfg.Analyzer.Timeout = 5 * time.Second
	return cfg
}

func TestHttpAnalyzer_AnalyzePage(t *testing.T) {
	t.Run("正常系: リクエスト内容とレスポンスの復元", func(t *testing.T) {
		var gotAuth, gotContentType string
		var gotBody analyzeRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			json.NewEncoder(w).Encode(model.PageAnalysisResult{
				Sentences: []model.Sentence{
					{Original: "Hola.", Translation: "こんにちは。"},
				},
			})
		}))
		defer server.Close()

		analyzer := NewAnalyzer(analyzerConfig(server.URL))
		result, err := analyzer.AnalyzePage(context.Background(), "base64data")
		require.NoError(t, err)

		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "base64data", gotBody.Image)
		require.Len(t, result.Sentences, 1)
		assert.Equal(t, "Hola.", result.Sentences[0].Original)
	})

	t.Run("異常系: 200以外のステータス", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		analyzer := NewAnalyzer(analyzerConfig(server.URL))
		_, err := analyzer.AnalyzePage(context.Background(), "base64data")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 502")
	})

	t.Run("異常系: 壊れたレスポンスボディ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		analyzer := NewAnalyzer(analyzerConfig(server.URL))
		_, err := analyzer.AnalyzePage(context.Background(), "base64data")
		require.Error(t, err)
	})
}

func TestNewAnalyzer_DefaultsToStub(t *testing.T) {
	cfg := &config.Config{}
	cfg.Analyzer.Type = "unknown"

	analyzer := NewAnalyzer(cfg)
	result, err := analyzer.AnalyzePage(context.Background(), "ignored")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Sentences, "スタブは常に固定の解析結果を返す")
}

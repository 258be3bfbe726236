// internal/service/speech_test.go
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_4_scan_read/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speechConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Speech.Type = "http"
	cfg.Speech.URL = url
	cfg.Speech.Voice = "es-ES-standard"
	cfg.Speech.Timeout = 5 * time.Second
	return cfg
}

func TestHttpSynthesizer_Synthesize(t *testing.T) {
	t.Run("正常系: リクエスト内容と音声データの受け取り", func(t *testing.T) {
		var gotBody synthesizeRequest
		audio := []byte{0xFF, 0xFB, 0x01, 0x02}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write(audio)
		}))
		defer server.Close()

		synth := NewSynthesizer(speechConfig(server.URL))
		got, err := synth.Synthesize(context.Background(), "Hola.")
		require.NoError(t, err)

		assert.Equal(t, "Hola.", gotBody.Text)
		assert.Equal(t, "es-ES-standard", gotBody.Voice)
		assert.Equal(t, audio, got)
	})

	t.Run("異常系: 音声側のタイムアウト設定が効く", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		cfg := speechConfig(server.URL)
		cfg.Speech.Timeout = 50 * time.Millisecond
		// 解析側の長いタイムアウトに引きずられないこと
		cfg.Analyzer.Timeout = time.Hour

		synth := NewSynthesizer(cfg)
		start := time.Now()
		_, err := synth.Synthesize(context.Background(), "Hola.")
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("異常系: 200以外のステータス", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		synth := NewSynthesizer(speechConfig(server.URL))
		_, err := synth.Synthesize(context.Background(), "Hola.")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 500")
	})
}

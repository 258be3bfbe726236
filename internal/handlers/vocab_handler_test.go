// internal/handlers/vocab_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_4_scan_read/internal/handlers"
	"go_4_scan_read/internal/model"
)

// fakeVocabService は呼び出しを記録し、仕込んだ結果を返すスタブ
type fakeVocabService struct {
	items     []*model.VocabularyItem
	listErr   error
	updateErr error
	deleteErr error
	imported  int
	importErr error

	gotWordID  uuid.UUID
	gotLevel   string
	gotWordIDs []uuid.UUID
	called     []string
}

func (f *fakeVocabService) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	f.called = append(f.called, "ListVocabulary")
	return f.items, f.listErr
}

func (f *fakeVocabService) UpdateMastery(ctx context.Context, wordID uuid.UUID, level string) error {
	f.called = append(f.called, "UpdateMastery")
	f.gotWordID = wordID
	f.gotLevel = level
	return f.updateErr
}

func (f *fakeVocabService) DeleteWords(ctx context.Context, wordIDs []uuid.UUID) error {
	f.called = append(f.called, "DeleteWords")
	f.gotWordIDs = wordIDs
	return f.deleteErr
}

func (f *fakeVocabService) Import(ctx context.Context, items []*model.VocabularyItem) (int, error) {
	f.called = append(f.called, "Import")
	return f.imported, f.importErr
}

func vocabRouter(svc *fakeVocabService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.NewVocabHandler(svc, logger)

	r := chi.NewRouter()
	r.Get("/api/v1/vocabulary", h.ListVocabulary)
	r.Put("/api/v1/vocabulary/{word_id}/mastery", h.UpdateMastery)
	r.Post("/api/v1/vocabulary/delete", h.DeleteWords)
	r.Post("/api/v1/vocabulary/import", h.Import)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestVocabHandler_ListVocabulary(t *testing.T) {
	t.Run("正常系: 語彙リストを返す", func(t *testing.T) {
		svc := &fakeVocabService{
			items: []*model.VocabularyItem{
				{WordID: uuid.New(), Word: "hola", MasteryLevel: model.MasteryNew, AddedAt: time.Now()},
			},
		}
		rr := doJSON(t, vocabRouter(svc), http.MethodGet, "/api/v1/vocabulary", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []*model.VocabularyItem
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "hola", got[0].Word)
	})

	t.Run("正常系: 空の語彙はnullではなく空配列", func(t *testing.T) {
		svc := &fakeVocabService{items: nil}
		rr := doJSON(t, vocabRouter(svc), http.MethodGet, "/api/v1/vocabulary", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestVocabHandler_UpdateMastery(t *testing.T) {
	wordID := uuid.New()

	tests := []struct {
		name           string
		path           string
		body           interface{}
		updateErr      error
		expectedStatus int
		wantCalled     bool
	}{
		{
			name:           "正常系: 習熟度を更新して204",
			path:           "/api/v1/vocabulary/" + wordID.String() + "/mastery",
			body:           model.UpdateMasteryRequest{MasteryLevel: "good"},
			expectedStatus: http.StatusNoContent,
			wantCalled:     true,
		},
		{
			name:           "異常系: 不正なUUID",
			path:           "/api/v1/vocabulary/not-a-uuid/mastery",
			body:           model.UpdateMasteryRequest{MasteryLevel: "good"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: バリデーション違反(未知の習熟度)",
			path:           "/api/v1/vocabulary/" + wordID.String() + "/mastery",
			body:           model.UpdateMasteryRequest{MasteryLevel: "excellent"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: 存在しない単語は404",
			path:           "/api/v1/vocabulary/" + wordID.String() + "/mastery",
			body:           model.UpdateMasteryRequest{MasteryLevel: "good"},
			updateErr:      model.NewAppError("WORD_NOT_FOUND", "単語が見つかりません。", "word_id", model.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeVocabService{updateErr: tt.updateErr}
			rr := doJSON(t, vocabRouter(svc), http.MethodPut, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.wantCalled {
				assert.Equal(t, []string{"UpdateMastery"}, svc.called)
				assert.Equal(t, wordID, svc.gotWordID)
			} else {
				assert.Empty(t, svc.called, "サービスは呼ばれない")
			}
		})
	}
}

func TestVocabHandler_DeleteWords(t *testing.T) {
	t.Run("正常系: 一括削除して204", func(t *testing.T) {
		svc := &fakeVocabService{}
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		rr := doJSON(t, vocabRouter(svc), http.MethodPost, "/api/v1/vocabulary/delete",
			model.DeleteVocabularyRequest{WordIDs: ids})

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, ids, svc.gotWordIDs)
	})

	t.Run("異常系: 空のID列はバリデーションで弾く", func(t *testing.T) {
		svc := &fakeVocabService{}
		rr := doJSON(t, vocabRouter(svc), http.MethodPost, "/api/v1/vocabulary/delete",
			model.DeleteVocabularyRequest{})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, svc.called)
	})
}

func TestVocabHandler_Import(t *testing.T) {
	t.Run("正常系: 取り込み件数を返す", func(t *testing.T) {
		svc := &fakeVocabService{imported: 2}
		rr := doJSON(t, vocabRouter(svc), http.MethodPost, "/api/v1/vocabulary/import",
			model.ImportVocabularyRequest{Items: []*model.VocabularyItem{
				{Word: "hola"},
				{Word: "adiós"},
			}})

		assert.Equal(t, http.StatusOK, rr.Code)
		var got model.ImportVocabularyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 2, got.Imported)
	})

	t.Run("異常系: 壊れたJSONボディ", func(t *testing.T) {
		svc := &fakeVocabService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/vocabulary/import", bytes.NewReader([]byte("{broken")))
		rr := httptest.NewRecorder()
		vocabRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, svc.called)
	})
}

// internal/service/reading_service_test.go
package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressSave struct {
	ctx           context.Context
	bookID        uuid.UUID
	pageID        uuid.UUID
	sentenceIndex int
}

// progressRecordingStore は進捗保存の呼び出しをコンテキストごと記録する Store スタブ
type progressRecordingStore struct {
	repository.Store

	pages []*model.Page
	saves chan progressSave
}

func (s *progressRecordingStore) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error) {
	return s.pages, nil
}

func (s *progressRecordingStore) UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error {
	s.saves <- progressSave{ctx: ctx, bookID: bookID, pageID: pageID, sentenceIndex: sentenceIndex}
	return nil
}

func readingPage(bookID uuid.UUID, lastSentenceIndex int) *model.Page {
	return &model.Page{
		PageID:            uuid.New(),
		BookID:            bookID,
		PageNumber:        1,
		LastSentenceIndex: lastSentenceIndex,
		Analysis: &model.PageAnalysisResult{
			Sentences: []model.Sentence{
				{
					Original:    "Hola.",
					Translation: "こんにちは。",
					Tokens: []model.LexicalToken{
						{Text: "Hola", Type: model.TokenTypeWord},
						{Text: ".", Type: model.TokenTypePunctuation},
					},
				},
				{
					Original:    "Adiós.",
					Translation: "さようなら。",
					Tokens: []model.LexicalToken{
						{Text: "Adiós", Type: model.TokenTypeWord},
						{Text: ".", Type: model.TokenTypePunctuation},
					},
				},
			},
		},
	}
}

func setupReadingService(t *testing.T, lastSentenceIndex int) (*progressRecordingStore, ReadingService, *model.Page) {
	t.Helper()
	bookID := uuid.New()
	page := readingPage(bookID, lastSentenceIndex)
	store := &progressRecordingStore{
		pages: []*model.Page{page},
		saves: make(chan progressSave, 8),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store, NewReadingService(store, nil, logger), page
}

func awaitSave(t *testing.T, store *progressRecordingStore) progressSave {
	t.Helper()
	select {
	case save := <-store.saves:
		return save
	case <-time.After(2 * time.Second):
		t.Fatal("progress save was not issued")
		return progressSave{}
	}
}

func TestReadingService_SaveProgress_KeepsLearnerIdentity(t *testing.T) {
	store, svc, page := setupReadingService(t, 0)

	// サインイン済みのリクエストコンテキスト
	learnerID := uuid.New()
	ctx := context.WithValue(context.Background(), model.LearnerIDKey, learnerID)

	state, err := svc.Start(ctx, &model.StartReadingRequest{BookID: page.BookID, PageID: page.PageID})
	require.NoError(t, err)

	// 文 → 語 → 訳 → 次の文 で文インデックスが変わり、保存が走る
	for i := 0; i < 3; i++ {
		state, err = svc.Advance(ctx, state.SessionID)
		require.NoError(t, err)
	}
	require.Equal(t, 1, state.SentenceIndex)

	save := awaitSave(t, store)
	assert.Equal(t, page.BookID, save.bookID)
	assert.Equal(t, page.PageID, save.pageID)
	assert.Equal(t, 1, save.sentenceIndex)

	// 保存コンテキストは学習者IDを引き継ぐ(リモートへのルーティングに必要)
	gotID, ok := middleware.GetLearnerID(save.ctx)
	require.True(t, ok, "学習者IDが保存コンテキストから落ちている")
	assert.Equal(t, learnerID, gotID)
	// リクエストのキャンセルからは切り離されている
	assert.NoError(t, save.ctx.Err())
}

func TestReadingService_SaveProgress_DetachedFromRequestCancel(t *testing.T) {
	store, svc, page := setupReadingService(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	state, err := svc.Start(ctx, &model.StartReadingRequest{BookID: page.BookID, PageID: page.PageID})
	require.NoError(t, err)

	// 文インデックスを変えた直後にリクエストが打ち切られるケース
	_, err = svc.Skip(ctx, state.SessionID)
	require.NoError(t, err)
	cancel()

	save := awaitSave(t, store)
	assert.Equal(t, 1, save.sentenceIndex)
	assert.NoError(t, save.ctx.Err(), "親のキャンセルが保存コンテキストへ伝播している")
}

func TestReadingService_Finish_ClearsResumePointer(t *testing.T) {
	store, svc, page := setupReadingService(t, 1)

	ctx := context.WithValue(context.Background(), model.LearnerIDKey, uuid.New())
	state, err := svc.Start(ctx, &model.StartReadingRequest{BookID: page.BookID, PageID: page.PageID})
	require.NoError(t, err)

	// 前回の進捗チェックポイントから再開する
	assert.Equal(t, 1, state.SentenceIndex)
	assert.Equal(t, model.PhaseSentence, state.Phase)

	// 最終文を読み切る: 文 → 語 → 訳 → 終了
	for i := 0; i < 3; i++ {
		state, err = svc.Advance(ctx, state.SessionID)
		require.NoError(t, err)
	}
	require.True(t, state.Finished)

	// 読了で再開ポインタは先頭に戻る
	save := awaitSave(t, store)
	assert.Equal(t, 0, save.sentenceIndex)
	gotID, ok := middleware.GetLearnerID(save.ctx)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, gotID)
}

// internal/repository/gateway_test.go
package repository

import (
	"context"
	"errors"
	"testing"

	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー (インメモリのローカルストア) ---
func setupTestGateway(t *testing.T) (Store, *LocalStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&localEntry{}))

	local := NewLocalStore(db)
	return NewGateway(local, nil), local
}

func strp(s string) *string { return &s }

func candidate(word string) model.VocabularyCandidate {
	return model.VocabularyCandidate{
		Word:            word,
		WordDetail:      model.WordDetail{Translation: strp("訳")},
		ContextSentence: "文脈",
	}
}

func Test_gateway_AddVocabularyBatch_Dedup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		preexisting  []model.VocabularyCandidate
		batch        []model.VocabularyCandidate
		wantInserted int
		wantTotal    int
	}{
		{
			name:         "正常系: 新規バッチは全件追加される",
			batch:        []model.VocabularyCandidate{candidate("hola"), candidate("adiós")},
			wantInserted: 2,
			wantTotal:    2,
		},
		{
			name:         "正常系: 既存と同じ表層形はスキップされる(大文字小文字・前後空白を無視)",
			preexisting:  []model.VocabularyCandidate{candidate("hola")},
			batch:        []model.VocabularyCandidate{candidate("  HOLA "), candidate("adiós")},
			wantInserted: 1,
			wantTotal:    2,
		},
		{
			name:         "正常系: バッチ内の重複も1件に畳まれる",
			batch:        []model.VocabularyCandidate{candidate("ser"), candidate("Ser"), candidate("SER ")},
			wantInserted: 1,
			wantTotal:    1,
		},
		{
			name:         "正常系: 空文字の候補は無視される",
			batch:        []model.VocabularyCandidate{candidate("   "), candidate("uno")},
			wantInserted: 1,
			wantTotal:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _ := setupTestGateway(t)

			if len(tt.preexisting) > 0 {
				_, err := gw.AddVocabularyBatch(ctx, tt.preexisting)
				require.NoError(t, err)
			}

			inserted, err := gw.AddVocabularyBatch(ctx, tt.batch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInserted, inserted)

			items, err := gw.ListVocabulary(ctx)
			require.NoError(t, err)
			assert.Len(t, items, tt.wantTotal)
		})
	}
}

func Test_gateway_AddVocabularyBatch_Defaults(t *testing.T) {
	ctx := context.Background()
	gw, _ := setupTestGateway(t)

	inserted, err := gw.AddVocabularyBatch(ctx, []model.VocabularyCandidate{candidate("  hola  ")})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	items, err := gw.ListVocabulary(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// 表層形はトリムされ、初期状態は未習熟
	assert.Equal(t, "hola", items[0].Word)
	assert.Equal(t, model.MasteryNew, items[0].MasteryLevel)
	assert.False(t, items[0].Mastered)
	assert.NotEqual(t, uuid.Nil, items[0].WordID)
	assert.False(t, items[0].AddedAt.IsZero())
	require.NotNil(t, items[0].ContextSentence)
	assert.Equal(t, "文脈", *items[0].ContextSentence)
}

func Test_gateway_UpdateMasteryLevel(t *testing.T) {
	ctx := context.Background()
	gw, _ := setupTestGateway(t)

	_, err := gw.AddVocabularyBatch(ctx, []model.VocabularyCandidate{candidate("hola")})
	require.NoError(t, err)
	items, err := gw.ListVocabulary(ctx)
	require.NoError(t, err)
	wordID := items[0].WordID

	tests := []struct {
		name         string
		wordID       uuid.UUID
		level        model.MasteryLevel
		wantErr      error
		wantMastered bool
	}{
		{
			name:         "正常系: mastered に更新すると旧フラグも同期する",
			wordID:       wordID,
			level:        model.MasteryMastered,
			wantMastered: true,
		},
		{
			name:         "正常系: mastered 以外に戻すと旧フラグも落ちる",
			wordID:       wordID,
			level:        model.MasteryGood,
			wantMastered: false,
		},
		{
			name:    "異常系: 不正な習熟度",
			wordID:  wordID,
			level:   model.MasteryLevel("excellent"),
			wantErr: model.ErrInvalidInput,
		},
		{
			name:    "異常系: 存在しない単語",
			wordID:  uuid.New(),
			level:   model.MasteryGood,
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gw.UpdateMasteryLevel(ctx, tt.wordID, tt.level)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			items, err := gw.ListVocabulary(ctx)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tt.level, items[0].MasteryLevel)
			assert.Equal(t, tt.wantMastered, items[0].Mastered)
		})
	}
}

func Test_gateway_ListVocabulary_LegacyNormalization(t *testing.T) {
	ctx := context.Background()
	gw, local := setupTestGateway(t)

	// 旧形式(masteryLevelなし)のレコードを直接投入する
	legacy := []*model.VocabularyItem{
		{WordID: uuid.New(), Word: "viejo", Mastered: true},
		{WordID: uuid.New(), Word: "nuevo", Mastered: false},
	}
	require.NoError(t, local.InsertVocabulary(ctx, legacy))

	items, err := gw.ListVocabulary(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byWord := map[string]*model.VocabularyItem{}
	for _, item := range items {
		byWord[item.Word] = item
	}
	assert.Equal(t, model.MasteryMastered, byWord["viejo"].MasteryLevel)
	assert.True(t, byWord["viejo"].Mastered)
	assert.Equal(t, model.MasteryNew, byWord["nuevo"].MasteryLevel)
	assert.False(t, byWord["nuevo"].Mastered)
}

func Test_gateway_ImportVocabulary(t *testing.T) {
	ctx := context.Background()
	gw, _ := setupTestGateway(t)

	_, err := gw.AddVocabularyBatch(ctx, []model.VocabularyCandidate{candidate("hola")})
	require.NoError(t, err)

	keepID := uuid.New()
	toImport := []*model.VocabularyItem{
		{WordID: keepID, Word: "adiós", Translation: "さようなら", MasteryLevel: model.MasteryGood},
		{Word: "HOLA"}, // 既存と重複 → スキップ
		{Word: "gracias", Mastered: true}, // 旧形式 → 正規化されて取り込まれる
	}

	imported, err := gw.ImportVocabulary(ctx, toImport)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	items, err := gw.ListVocabulary(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byWord := map[string]*model.VocabularyItem{}
	for _, item := range items {
		byWord[item.Word] = item
	}
	// エクスポート元の識別子と習熟度が保持される
	assert.Equal(t, keepID, byWord["adiós"].WordID)
	assert.Equal(t, model.MasteryGood, byWord["adiós"].MasteryLevel)
	// 旧形式は取り込み時に正規化される
	assert.Equal(t, model.MasteryMastered, byWord["gracias"].MasteryLevel)
	// 識別子なしのものには新規採番される
	assert.NotEqual(t, uuid.Nil, byWord["gracias"].WordID)
}

func Test_gateway_Books_And_Pages(t *testing.T) {
	ctx := context.Background()
	gw, _ := setupTestGateway(t)

	book, err := gw.CreateBook(ctx, "  El Principito  ", strp("Saint-Exupéry"))
	require.NoError(t, err)
	assert.Equal(t, "El Principito", book.Title)
	assert.Contains(t, model.CoverStyles, book.CoverStyle)
	assert.Equal(t, 0, book.PageCount)

	_, err = gw.CreateBook(ctx, "   ", nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	analysis := &model.PageAnalysisResult{
		Sentences: []model.Sentence{{Original: "Hola.", Translation: "こんにちは。"}},
	}

	// ページ番号は 1..N の昇順で採番される
	for i := 1; i <= 3; i++ {
		page, err := gw.AppendPage(ctx, book.BookID, "", analysis)
		require.NoError(t, err)
		assert.Equal(t, i, page.PageNumber)
	}

	books, err := gw.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 3, books[0].PageCount)

	pages, err := gw.ListPages(ctx, book.BookID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.PageNumber)
	}

	// 進捗チェックポイントの更新
	require.NoError(t, gw.UpdatePageProgress(ctx, book.BookID, pages[1].PageID, 4))
	pages, err = gw.ListPages(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 4, pages[1].LastSentenceIndex)

	err = gw.UpdatePageProgress(ctx, book.BookID, uuid.New(), 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// 存在しない本へのページ追加は失敗する(作成系は握りつぶさない)
	_, err = gw.AppendPage(ctx, uuid.New(), "", analysis)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// 本の削除でページも消える
	require.NoError(t, gw.DeleteBook(ctx, book.BookID))
	books, err = gw.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	pages, err = gw.ListPages(ctx, book.BookID)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

// --- リモート障害時の劣化方針 ---

var errBackendDown = errors.New("backend down")

// failingBackend は全操作が失敗するバックエンドのスタブ
type failingBackend struct{}

func (failingBackend) ListVocabulary(ctx context.Context) ([]*model.VocabularyItem, error) {
	return nil, errBackendDown
}
func (failingBackend) InsertVocabulary(ctx context.Context, items []*model.VocabularyItem) error {
	return errBackendDown
}
func (failingBackend) UpdateVocabularyMastery(ctx context.Context, wordID uuid.UUID, level model.MasteryLevel, mastered bool) error {
	return errBackendDown
}
func (failingBackend) DeleteVocabulary(ctx context.Context, wordIDs []uuid.UUID) error {
	return errBackendDown
}
func (failingBackend) ListBooks(ctx context.Context) ([]*model.Book, error) {
	return nil, errBackendDown
}
func (failingBackend) InsertBook(ctx context.Context, book *model.Book) error { return errBackendDown }
func (failingBackend) DeleteBook(ctx context.Context, bookID uuid.UUID) error { return errBackendDown }
func (failingBackend) ListPages(ctx context.Context, bookID uuid.UUID) ([]*model.Page, error) {
	return nil, errBackendDown
}
func (failingBackend) InsertPage(ctx context.Context, page *model.Page) error { return errBackendDown }
func (failingBackend) UpdatePageProgress(ctx context.Context, bookID, pageID uuid.UUID, sentenceIndex int) error {
	return errBackendDown
}
func (failingBackend) DeletePages(ctx context.Context, bookID uuid.UUID) error { return errBackendDown }

func setupFailingRemoteGateway(t *testing.T) (Store, context.Context) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&localEntry{}))

	g := &gateway{
		local:  NewLocalStore(db),
		remote: func(learnerID uuid.UUID) Backend { return failingBackend{} },
	}

	// 認証済みのコンテキスト(リモートへルーティングされる)
	ctx := context.WithValue(context.Background(), model.LearnerIDKey, uuid.New())
	return g, ctx
}

func Test_gateway_RemoteDegradation(t *testing.T) {
	t.Run("読み取り失敗は空リストに劣化する", func(t *testing.T) {
		gw, ctx := setupFailingRemoteGateway(t)

		items, err := gw.ListVocabulary(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)

		books, err := gw.ListBooks(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)

		pages, err := gw.ListPages(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, pages)
	})

	t.Run("書き込み失敗は黙って無視される", func(t *testing.T) {
		gw, ctx := setupFailingRemoteGateway(t)

		inserted, err := gw.AddVocabularyBatch(ctx, []model.VocabularyCandidate{candidate("hola")})
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		assert.NoError(t, gw.UpdateMasteryLevel(ctx, uuid.New(), model.MasteryGood))
		assert.NoError(t, gw.RemoveVocabularyBatch(ctx, []uuid.UUID{uuid.New()}))
		assert.NoError(t, gw.DeleteBook(ctx, uuid.New()))
		assert.NoError(t, gw.UpdatePageProgress(ctx, uuid.New(), uuid.New(), 1))
	})

	t.Run("識別子を返す作成系は失敗を返す", func(t *testing.T) {
		gw, ctx := setupFailingRemoteGateway(t)

		_, err := gw.CreateBook(ctx, "título", nil)
		require.Error(t, err)

		_, err = gw.AppendPage(ctx, uuid.New(), "", &model.PageAnalysisResult{
			Sentences: []model.Sentence{{Original: "Hola."}},
		})
		require.Error(t, err)
	})

	t.Run("未認証のコンテキストはローカルへルーティングされる", func(t *testing.T) {
		gw, _ := setupFailingRemoteGateway(t)
		ctx := context.Background()

		inserted, err := gw.AddVocabularyBatch(ctx, []model.VocabularyCandidate{candidate("hola")})
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)

		items, err := gw.ListVocabulary(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

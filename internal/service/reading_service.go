// internal/service/reading_service.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
)

// ReadingService は読書セッションを管理します。セッションはインメモリで、
// サーバ再起動で消える。進捗チェックポイントだけがストアに永続化される。
type ReadingService interface {
	Start(ctx context.Context, req *model.StartReadingRequest) (*model.ReadingStateResponse, error)
	State(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error)
	Advance(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error)
	Back(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error)
	Skip(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error)
	Speak(ctx context.Context, text string) ([]byte, error)
}

type readingSession struct {
	flow   *Flow
	bookID uuid.UUID
	pageID uuid.UUID
}

type readingService struct {
	store       repository.Store
	synthesizer Synthesizer
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*readingSession
}

func NewReadingService(store repository.Store, synthesizer Synthesizer, logger *slog.Logger) ReadingService {
	return &readingService{
		store:       store,
		synthesizer: synthesizer,
		logger:      logger,
		sessions:    make(map[uuid.UUID]*readingSession),
	}
}

func (s *readingService) Start(ctx context.Context, req *model.StartReadingRequest) (*model.ReadingStateResponse, error) {
	logger := middleware.GetLogger(ctx)

	pages, err := s.store.ListPages(ctx, req.BookID)
	if err != nil {
		logger.Error("Failed to load pages for reading session", "error", err, "book_id", req.BookID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ページの読み込みに失敗しました。", "", err)
	}

	var page *model.Page
	for _, p := range pages {
		if p.PageID == req.PageID {
			page = p
			break
		}
	}
	if page == nil {
		return nil, model.NewAppError("PAGE_NOT_FOUND", "指定されたページが見つかりません。", "page_id", model.ErrNotFound)
	}
	if page.Analysis == nil || len(page.Analysis.Sentences) == 0 {
		return nil, model.NewAppError("EMPTY_PAGE", "このページには読める文がありません。", "page_id", model.ErrInvalidInput)
	}

	// 前回の進捗チェックポイントから再開する
	flow := NewFlow(page.Analysis.Sentences, page.LastSentenceIndex)

	sessionID := uuid.New()
	s.mu.Lock()
	s.sessions[sessionID] = &readingSession{flow: flow, bookID: req.BookID, pageID: req.PageID}
	s.mu.Unlock()

	logger.Info("Reading session started",
		"session_id", sessionID.String(),
		"page_id", req.PageID.String(),
		"resume_index", flow.SentenceIndex(),
	)

	resp := flow.Snapshot()
	resp.SessionID = sessionID
	return &resp, nil
}

func (s *readingService) session(sessionID uuid.UUID) (*readingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "読書セッションが見つかりません。", "session_id", model.ErrNotFound)
	}
	return sess, nil
}

// saveProgress は進捗チェックポイントを非同期で保存します。
// 最後に書いた値が勝つ。失敗はログに残すだけで読書は止めない。
// リクエストのキャンセルからは切り離すが、コンテキストの値(学習者ID)は
// 引き継ぐ。ゲートウェイのバックエンド選択が学習者IDに依存するため。
func (s *readingService) saveProgress(ctx context.Context, sess *readingSession, sentenceIndex int) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		err := s.store.UpdatePageProgress(ctx, sess.bookID, sess.pageID, sentenceIndex)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			s.logger.Error("Failed to save reading progress",
				"error", err,
				"page_id", sess.pageID.String(),
				"sentence_index", sentenceIndex,
			)
		}
	}()
}

func (s *readingService) step(ctx context.Context, sessionID uuid.UUID, move func(*Flow)) (*model.ReadingStateResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	before := sess.flow.SentenceIndex()
	move(sess.flow)
	after := sess.flow.SentenceIndex()
	finished := sess.flow.Finished()
	resp := sess.flow.Snapshot()
	s.mu.Unlock()

	resp.SessionID = sessionID

	if finished {
		// ページを読み終えたら次回は先頭から
		s.saveProgress(ctx, sess, 0)
		middleware.GetLogger(ctx).Info("Reading session finished", "session_id", sessionID.String())
	} else if after != before {
		s.saveProgress(ctx, sess, after)
	}
	return &resp, nil
}

func (s *readingService) State(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	resp := sess.flow.Snapshot()
	s.mu.Unlock()

	resp.SessionID = sessionID
	return &resp, nil
}

func (s *readingService) Advance(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error) {
	return s.step(ctx, sessionID, (*Flow).Advance)
}

func (s *readingService) Back(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error) {
	return s.step(ctx, sessionID, (*Flow).Back)
}

func (s *readingService) Skip(ctx context.Context, sessionID uuid.UUID) (*model.ReadingStateResponse, error) {
	return s.step(ctx, sessionID, (*Flow).Skip)
}

func (s *readingService) Speak(ctx context.Context, text string) ([]byte, error) {
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		middleware.GetLogger(ctx).Error("Speech synthesis failed", "error", err)
		return nil, model.NewAppError("SPEECH_FAILED", "音声の生成に失敗しました。", "", err)
	}
	return audio, nil
}

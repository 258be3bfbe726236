// internal/service/training_service.go
package service

import (
	"context"
	"errors"
	"sync"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/google/uuid"
)

// TrainingService はフラッシュカード・トレーニングのセッションを管理します。
// セッションはインメモリ。評価による習熟度の変更だけがストアに永続化される。
type TrainingService interface {
	Start(ctx context.Context, cfg *model.TrainingConfig) (*model.TrainingStateResponse, error)
	State(ctx context.Context, sessionID uuid.UUID) (*model.TrainingStateResponse, error)
	Reveal(ctx context.Context, sessionID uuid.UUID) (*model.TrainingStateResponse, error)
	Rate(ctx context.Context, sessionID uuid.UUID, rating string) (*model.TrainingStateResponse, error)
}

type trainingService struct {
	store repository.Store

	mu       sync.Mutex
	sessions map[uuid.UUID]*TrainingSession
}

func NewTrainingService(store repository.Store) TrainingService {
	return &trainingService{
		store:    store,
		sessions: make(map[uuid.UUID]*TrainingSession),
	}
}

func (s *trainingService) Start(ctx context.Context, cfg *model.TrainingConfig) (*model.TrainingStateResponse, error) {
	logger := middleware.GetLogger(ctx)

	items, err := s.store.ListVocabulary(ctx)
	if err != nil {
		logger.Error("Failed to load vocabulary for training", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "語彙の読み込みに失敗しました。", "", err)
	}

	selected := FilterTrainingItems(items, cfg)
	if len(selected) == 0 {
		return nil, model.NewAppError("NO_MATCHING_WORDS", "条件に合う単語がありません。絞り込みを変更してください。", "", model.ErrInvalidInput)
	}

	session := NewTrainingSession(selected)
	sessionID := uuid.New()
	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	logger.Info("Training session started",
		"session_id", sessionID.String(),
		"cards", len(selected),
	)

	resp := session.Snapshot()
	resp.SessionID = sessionID
	return &resp, nil
}

func (s *trainingService) session(sessionID uuid.UUID) (*TrainingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "トレーニングセッションが見つかりません。", "session_id", model.ErrNotFound)
	}
	return session, nil
}

func (s *trainingService) State(ctx context.Context, sessionID uuid.UUID) (*model.TrainingStateResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	resp := session.Snapshot()
	s.mu.Unlock()

	resp.SessionID = sessionID
	return &resp, nil
}

func (s *trainingService) Reveal(ctx context.Context, sessionID uuid.UUID) (*model.TrainingStateResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	session.Reveal()
	resp := session.Snapshot()
	s.mu.Unlock()

	resp.SessionID = sessionID
	return &resp, nil
}

// Rate は現在のカードに評価を付けて次のカードへ進みます。
// 評価は習熟度ラベルとしてそのままストアに保存される。
func (s *trainingService) Rate(ctx context.Context, sessionID uuid.UUID, rating string) (*model.TrainingStateResponse, error) {
	logger := middleware.GetLogger(ctx)

	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	level := model.MasteryLevel(rating)
	if !level.Valid() || level == model.MasteryNew {
		return nil, model.NewAppError("INVALID_RATING", "不正な評価です。", "rating", model.ErrInvalidInput)
	}

	s.mu.Lock()
	card := session.Current()
	s.mu.Unlock()
	if card == nil {
		return nil, model.NewAppError("SESSION_FINISHED", "このセッションは終了しています。", "", model.ErrInvalidInput)
	}

	if err := s.store.UpdateMasteryLevel(ctx, card.WordID, level); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// セッション開始後に削除された単語。評価は捨てて先へ進む
			logger.Warn("Rated word no longer exists", "word_id", card.WordID.String())
		} else {
			logger.Error("Failed to save rating", "error", err, "word_id", card.WordID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "評価の保存に失敗しました。", "", err)
		}
	}

	s.mu.Lock()
	session.Next()
	resp := session.Snapshot()
	s.mu.Unlock()

	resp.SessionID = sessionID
	return &resp, nil
}

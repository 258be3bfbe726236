// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Learner, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Logout(ctx context.Context) error
	GetLearner(ctx context.Context, learnerID uuid.UUID) (*model.Learner, error)
	CachedSession(ctx context.Context) (*model.CachedCredentials, error)
}

type authService struct {
	db          *gorm.DB // リモートストア。nilの場合サインイン機能は無効
	learnerRepo repository.LearnerRepository
	local       *repository.LocalStore
	mailer      Mailer
	cfg         *config.Config
}

func NewAuthService(db *gorm.DB, learnerRepo repository.LearnerRepository, local *repository.LocalStore, mailer Mailer, cfg *config.Config) AuthService {
	return &authService{
		db:          db,
		learnerRepo: learnerRepo,
		local:       local,
		mailer:      mailer,
		cfg:         cfg,
	}
}

// remoteRequired はサインイン機能に必要なリモートストアの有無を確認します
func (s *authService) remoteRequired(ctx context.Context) error {
	if s.db == nil {
		middleware.GetLogger(ctx).Warn("Auth operation rejected: remote store is not configured")
		return model.NewAppError("REMOTE_UNAVAILABLE", "サインイン機能は現在利用できません。", "", model.ErrBackendUnavailable)
	}
	return nil
}

// Register は新しい学習者を登録します。アカウントは即時に有効で、
// ウェルカムメールの送信失敗は登録を妨げない。
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Learner, error) {
	logger := middleware.GetLogger(ctx)
	if err := s.remoteRequired(ctx); err != nil {
		return nil, err
	}

	var newLearner *model.Learner
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Emailでの重複チェック
		_, err := s.learnerRepo.FindByEmail(ctx, tx, req.Email)
		if err == nil {
			logger.Warn("Email already exists", "email", req.Email)
			return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Failed to check email existence", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
		}

		learner := &model.Learner{
			LearnerID:    uuid.New(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hashedPassword),
		}

		if err := s.learnerRepo.Create(ctx, tx, learner); err != nil {
			// レースコンディションでCreate側が重複を検知した場合
			if errors.Is(err, model.ErrConflict) {
				logger.Warn("Conflict during learner creation (race condition)", "error", err)
				return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
			}
			logger.Error("Failed to create learner in DB", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの作成に失敗しました。", "", err)
		}
		newLearner = learner
		return nil
	})
	if err != nil {
		return nil, err
	}

	// ウェルカムメールは送れなくても登録は成功扱い
	go func(email, name string) {
		subject := fmt.Sprintf("【%s】ご登録ありがとうございます", s.cfg.App.Name)
		body := fmt.Sprintf("%s さん\n\n%s へようこそ。\n本のページを撮影して、読書と語彙学習を始めましょう。", name, s.cfg.App.Name)
		if err := s.mailer.Send(context.Background(), email, subject, body); err != nil {
			logger.Error("Failed to send welcome email", "error", err, "email", email)
		}
	}(newLearner.Email, newLearner.Name)

	logger.Info("Learner registered", "learner_id", newLearner.LearnerID, "email", newLearner.Email)
	return newLearner, nil
}

// Login は学習者を認証し、JWTを返します。成功時はデバイスローカルに
// セッション情報をキャッシュする(キャッシュ失敗はログインを妨げない)。
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("email", req.Email)
	if err := s.remoteRequired(ctx); err != nil {
		return nil, err
	}

	learner, err := s.learnerRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: learner not found")
			return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrInvalidInput)
		}
		logger.Error("Login failed: db error on FindByEmail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(learner.PasswordHash), []byte(req.Password))
	if err != nil {
		logger.Warn("Login failed: password mismatch", "learner_id", learner.LearnerID)
		return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrInvalidInput)
	}

	claims := &jwt.RegisteredClaims{
		Issuer:    s.cfg.App.Name,
		Subject:   learner.LearnerID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWT.AccessTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign JWT", "error", err, "learner_id", learner.LearnerID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	if err := s.local.SaveCredentials(ctx, &model.CachedCredentials{
		Email:       learner.Email,
		AccessToken: signedToken,
		CachedAt:    time.Now(),
	}); err != nil {
		logger.Warn("Failed to cache credentials locally", "error", err)
	}

	logger.Info("Login successful", "learner_id", learner.LearnerID)
	return &model.LoginResponse{
		AccessToken: signedToken,
		Learner: model.LearnerResponse{
			LearnerID: learner.LearnerID,
			Name:      learner.Name,
			Email:     learner.Email,
			CreatedAt: learner.CreatedAt,
		},
	}, nil
}

// Logout はデバイスローカルのセッションキャッシュを破棄します。
// サーバ側のトークンは期限切れで失効する(失効リストは持たない)。
func (s *authService) Logout(ctx context.Context) error {
	logger := middleware.GetLogger(ctx)
	if err := s.local.ClearCredentials(ctx); err != nil {
		logger.Error("Failed to clear cached credentials", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "ログアウト処理に失敗しました。", "", err)
	}
	logger.Info("Logged out, local session cleared")
	return nil
}

// GetLearner は指定されたIDの学習者を取得します
func (s *authService) GetLearner(ctx context.Context, learnerID uuid.UUID) (*model.Learner, error) {
	logger := middleware.GetLogger(ctx)
	if err := s.remoteRequired(ctx); err != nil {
		return nil, err
	}

	learner, err := s.learnerRepo.FindByID(ctx, s.db, learnerID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Learner not found", "learner_id", learnerID.String())
			return nil, model.NewAppError("LEARNER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding learner by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return learner, nil
}

// CachedSession はデバイスローカルに保存されたセッション情報を返します。
// 未サインインの場合は ErrNotFound。
func (s *authService) CachedSession(ctx context.Context) (*model.CachedCredentials, error) {
	creds, err := s.local.Credentials(ctx)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if creds == nil {
		return nil, model.NewAppError("NO_SESSION", "サインインしていません。", "", model.ErrNotFound)
	}
	return creds, nil
}

// internal/model/auth.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Learner はリモートストアを利用するサインイン済みユーザーを表します。
// サインインしていないデバイスはローカルストアのみを使う。
type Learner struct {
	LearnerID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"learner_id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"unique;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Learner) TableName() string {
	return "learners"
}

type ContextKey string

const (
	// LearnerIDKey はリクエストコンテキストに格納する学習者IDのキー。
	// 存在しない場合、永続化はローカルバックエンドへルーティングされる。
	LearnerIDKey ContextKey = "learnerID"
)

// RegisterRequest は新規登録APIのリクエストDTO
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest はログインAPIのリクエストDTO
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	Learner     LearnerResponse `json:"learner"`
}

// LearnerResponse はクライアントに返す学習者情報
type LearnerResponse struct {
	LearnerID uuid.UUID `json:"learner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedCredentials はデバイスローカルに保持するセッション情報です。
// ログイン時に保存され、ログアウトで破棄される。
type CachedCredentials struct {
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	CachedAt    time.Time `json:"cached_at"`
}

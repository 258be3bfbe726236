// internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/model"
	"go_4_scan_read/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OptionalAuthMiddleware は Authorization ヘッダーの Bearer トークンを検証し、
// 学習者IDをコンテキストに格納するミドルウェアです。
//
// ヘッダーが無い場合はエラーにせず素通しする点が通常の認証と異なる:
// サインインしていないデバイスはローカルストアで動作するのが仕様であり、
// 認証情報の有無はエラーではなく永続化バックエンドの選択条件である。
// ヘッダーが「ある」のに不正な場合のみ拒否する。
func OptionalAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				// 匿名アクセス。ローカルバックエンドにルーティングされる
				next.ServeHTTP(w, r)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				logger.Warn("Auth failed: Invalid Authorization header format")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			// 署名と有効期限を検証する
			token, err := jwt.Parse(headerParts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, model.NewAppError("UNEXPECTED_SIGNING_METHOD", "予期しない署名アルゴリズムです。", "", model.ErrForbidden)
				}
				return []byte(cfg.JWT.SecretKey), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("Auth failed: Invalid token", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Warn("Auth failed: Unknown claims type")
				appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			subject, err := claims.GetSubject()
			if err != nil {
				logger.Warn("Auth failed: Subject (sub) claim missing", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンにユーザー情報が含まれていません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}
			learnerID, err := uuid.Parse(subject)
			if err != nil {
				logger.Warn("Auth failed: Invalid subject (sub) format", "subject", subject, "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンのユーザー情報が不正です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			ctx := context.WithValue(r.Context(), model.LearnerIDKey, learnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLearnerID はコンテキストからサインイン済み学習者のIDを取得します。
// 第2戻り値が false の場合は匿名(ローカルストア)セッションを意味する。
func GetLearnerID(ctx context.Context) (uuid.UUID, bool) {
	value, ok := ctx.Value(model.LearnerIDKey).(uuid.UUID)
	return value, ok
}

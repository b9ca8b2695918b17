// Package middlewarectx содержит HTTP middleware для проверки токенов и ограничения
// частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность токена провайдера идентификации в
// заголовке Authorization, сопоставляет субъект токена с пользователем eventhub
// (создавая его при первом обращении) и кладёт ID пользователя в контекст запроса.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/jwt"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserID — ключ для ID пользователя в контексте.
const UserID Key = "user_id"

// TokenParser проверяет подпись и срок действия токена.
type TokenParser interface {
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// IdentityService сопоставляет идентичность из токена с пользователем.
type IdentityService interface {
	StoreUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет токен в заголовке Authorization.
func JWTMiddleware(parser TokenParser, identity IdentityService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			user, err := identity.StoreUser(r.Context(), claims.Identity())
			if err != nil {
				log.Error("failed to resolve user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to resolve user"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

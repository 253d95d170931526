package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"lumeer-engine/internal/auth"
	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/errors"
)

const (
	UserKey  = "user"
	TokenKey = "jwt_token"
)

type UserProvider interface {
	UserByID(id string) (*domain.User, bool)
}

type Auth struct {
	JWT   *auth.JWT
	Users UserProvider
}

func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		claims, err := m.JWT.Verify(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		user := &domain.User{ID: claims.UserID, Email: claims.Email}
		if m.Users != nil {
			if known, ok := m.Users.UserByID(claims.UserID); ok {
				user = known
			}
		}

		ctx.Set(UserKey, user)
		ctx.Set(TokenKey, token)
		ctx.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleWare.
func CurrentUser(ctx *gin.Context) *domain.User {
	value, ok := ctx.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*domain.User)
	return user
}

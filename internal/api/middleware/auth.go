package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/pkg/jwthelper"
)

// UserIDKey is the gin context key VerifyJWT stores the caller's ID under.
const UserIDKey = "userID"

var (
	errMissingToken = errors.New("missing bearer token")
	errNotStaff     = errors.New("staff access required")
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{signingKey: []byte(signingKey)}
}

func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			ctx.Abort()

			return
		}

		userID, _, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			ctx.Abort()

			return
		}

		ctx.Set(UserIDKey, userID)
		ctx.Next()
	}
}

// RequireStaff must run after VerifyJWT.
func RequireStaff(users UserService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := ctx.GetUint(UserIDKey)
		if userID == 0 {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			ctx.Abort()

			return
		}

		user, err := users.GetUser(ctx.Request.Context(), userID)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(fmt.Errorf("users.GetUser -> %w", err)))
			ctx.Abort()

			return
		}
		if !user.IsStaff {
			response.RenderErr(ctx, response.ErrPermissionDenied(errNotStaff))
			ctx.Abort()

			return
		}

		ctx.Next()
	}
}

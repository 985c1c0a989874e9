package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/pkg/jwthelper"
)

type stubUsers map[uint]domain.User

func (s stubUsers) GetUser(_ context.Context, id uint) (domain.User, error) {
	user, ok := s[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}

	return user, nil
}

func TestVerifyJWTAndRequireStaff(t *testing.T) {
	const key = "secret"
	users := stubUsers{
		1: {ID: 1, IsStaff: true},
		2: {ID: 2, IsStaff: false},
	}

	r := gin.New()
	r.GET("/admin/ping", NewAuthenticator(key).VerifyJWT(), RequireStaff(users), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "%d", ctx.GetUint(UserIDKey))
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		return rec
	}
	token := func(key string, userID uint) string {
		tok, err := jwthelper.GenerateToken([]byte(key), userID, "test")
		require.NoError(t, err)

		return tok
	}

	rec := call("Bearer " + token(key, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, call("Bearer "+token(key, 2)).Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token(key, 3)).Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token("other", 1)).Code)
	assert.Equal(t, http.StatusUnauthorized, call(token(key, 1)).Code)
	assert.Equal(t, http.StatusUnauthorized, call("").Code)
}

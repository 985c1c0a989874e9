package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/pkg/jwthelper"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
}

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type AuthHandler struct {
	conf  *config.APIConfig
	svc   AuthService
	users UserService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService, users UserService) *AuthHandler {
	return &AuthHandler{
		conf:  conf,
		svc:   svc,
		users: users,
	}
}

// HandleLogin godoc
// @Summary      Login a staff user
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) ||
			errors.Is(err, service.ErrWrongPassword) ||
			errors.Is(err, service.ErrNotStaff) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken() -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleGetMe godoc
// @Summary      Get the logged in staff user
// @Tags         auth
// @Produce      json
// @Success      200      {object}   domain.User
// @Failure      401      {object}   response.Err
// @Router       /admin/me [get]
// @Security BearerAuth
func (h *AuthHandler) HandleGetMe(ctx *gin.Context) {
	userID := actorID(ctx)

	user, err := h.users.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetMe -> h.users.GetUser", err, "ID", userID)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type CatalogService interface {
	CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	CreatePaymentMethod(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	ListBanks(ctx context.Context) ([]domain.Bank, error)
}

type CatalogHandler struct {
	svc CatalogService
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// HandleCreateRaffle godoc
// @Summary      Create a raffle
// @Description  The slug is generated from the title when omitted.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateRaffleRequest  true  "request body"
// @Success      201      {object}  domain.Raffle
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/raffles [post]
// @Security BearerAuth
func (h *CatalogHandler) HandleCreateRaffle(ctx *gin.Context) {
	var req request.CreateRaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateRaffle(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateRaffle -> h.svc.CreateRaffle", err, "IDs", req.PaymentMethodIDs)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCreatePaymentMethod godoc
// @Summary      Create a payment method
// @Description  Pago Móvil and transfer accounts must use a bank code from GET /admin/banks.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreatePaymentMethodRequest  true  "request body"
// @Success      201      {object}  domain.PaymentMethod
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/payment-methods [post]
// @Security BearerAuth
func (h *CatalogHandler) HandleCreatePaymentMethod(ctx *gin.Context) {
	var req request.CreatePaymentMethodRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreatePaymentMethod(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreatePaymentMethod -> h.svc.CreatePaymentMethod", err, "", nil)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListBanks godoc
// @Summary      List the bank catalog
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.Bank
// @Failure      500  {object}  response.Err
// @Router       /admin/banks [get]
// @Security BearerAuth
func (h *CatalogHandler) HandleListBanks(ctx *gin.Context) {
	banks, err := h.svc.ListBanks(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListBanks -> h.svc.ListBanks", err, "", nil)
		return
	}

	ctx.JSON(http.StatusOK, banks)
}

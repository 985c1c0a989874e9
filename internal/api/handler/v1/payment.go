package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

type PaymentService interface {
	Quote(ctx context.Context, participationID, methodID uint, paymentDate time.Time) (service.PaymentQuote, error)
	Create(ctx context.Context, input service.CreatePaymentInput) (domain.Payment, error)
	ChangeStatus(ctx context.Context, paymentID uint, next domain.PaymentStatus, actor uint, notes string) (domain.Payment, error)
	SafeDelete(ctx context.Context, paymentID, actor uint) error
	Bulk(ctx context.Context, action service.BulkAction, paymentIDs []uint, actor uint) (service.BulkResult, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// HandleCalculateAmount godoc
// @Summary      Quote the amount to pay
// @Description  Converts the ticket total to the payment method's currency using the rate in force on the payment date.
// @Tags         payments
// @Produce      json
// @Param        participation_id   query     int     true  "Participation ID"
// @Param        payment_method_id  query     int     true  "Payment method ID"
// @Param        payment_date       query     string  true  "Payment date (YYYY-MM-DD)"
// @Success      200                {object}  response.PaymentQuote
// @Failure      400                {object}  response.Err
// @Failure      404                {object}  response.Err
// @Failure      500                {object}  response.Err
// @Router       /payments/calculate-amount [get]
func (h *PaymentHandler) HandleCalculateAmount(ctx *gin.Context) {
	var query request.CalculateAmountQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := query.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	quote, err := h.svc.Quote(ctx.Request.Context(), query.ParticipationID, query.PaymentMethodID, request.ParseDate(query.PaymentDate))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCalculateAmount -> h.svc.Quote", err, "ID", query.ParticipationID)
		return
	}

	ctx.JSON(http.StatusOK, response.PaymentQuote{
		Amount:       quote.Amount.StringFixed(2),
		Currency:     quote.Currency,
		ExchangeRate: quote.Rate,
	})
}

// HandleCreatePayment godoc
// @Summary      Report a payment
// @Description  The payment stays PENDING until staff verifies it. Reporting the same transfer twice is refused.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreatePaymentRequest  true  "request body"
// @Success      201      {object}  domain.Payment
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /payments [post]
func (h *PaymentHandler) HandleCreatePayment(ctx *gin.Context) {
	var req request.CreatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	payment, err := h.svc.Create(ctx.Request.Context(), service.CreatePaymentInput{
		ParticipationID:    req.ParticipationID,
		PaymentMethodID:    req.PaymentMethodID,
		PaymentDate:        request.ParseDate(req.PaymentDate),
		TransactionDetails: req.TransactionDetails,
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreatePayment -> h.svc.Create", err, "ID", req.ParticipationID)
		return
	}

	ctx.JSON(http.StatusCreated, payment)
}

// HandleChangeStatus godoc
// @Summary      Change a payment's status
// @Description  Approving allocates tickets; leaving APPROVED releases them. REJECTED is final.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        paymentID  path      int                          true  "Payment ID"
// @Param        request    body      request.ChangeStatusRequest  true  "request body"
// @Success      200        {object}  domain.Payment
// @Failure      400        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /admin/payments/{paymentID}/status [post]
// @Security BearerAuth
func (h *PaymentHandler) HandleChangeStatus(ctx *gin.Context) {
	paymentID, respErr := uintParam(ctx, "paymentID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ChangeStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	payment, err := h.svc.ChangeStatus(ctx.Request.Context(), paymentID, domain.PaymentStatus(req.Status), actorID(ctx), req.Notes)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleChangeStatus -> h.svc.ChangeStatus", err, "ID", paymentID)
		return
	}

	ctx.JSON(http.StatusOK, payment)
}

// HandleBulkPayments godoc
// @Summary      Approve, reject or delete many payments
// @Description  Each payment is processed on its own; the result lists which ones failed and why.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.BulkPaymentsRequest  true  "request body"
// @Success      200      {object}  service.BulkResult
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/payments/bulk [post]
// @Security BearerAuth
func (h *PaymentHandler) HandleBulkPayments(ctx *gin.Context) {
	var req request.BulkPaymentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Bulk(ctx.Request.Context(), service.BulkAction(req.Action), req.IDs, actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleBulkPayments -> h.svc.Bulk", err, "", nil)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleDeletePayment godoc
// @Summary      Delete a payment
// @Description  Tickets of an approved payment are released first.
// @Tags         admin
// @Param        paymentID  path  int  true  "Payment ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/payments/{paymentID} [delete]
// @Security BearerAuth
func (h *PaymentHandler) HandleDeletePayment(ctx *gin.Context) {
	paymentID, respErr := uintParam(ctx, "paymentID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.SafeDelete(ctx.Request.Context(), paymentID, actorID(ctx)); err != nil {
		renderServiceErr(ctx, "v1.HandleDeletePayment -> h.svc.SafeDelete", err, "ID", paymentID)
		return
	}

	ctx.Status(http.StatusNoContent)
}

package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func uintParam(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s", name))
	}

	return uint(id), nil
}

// actorID is the authenticated staff user. Admin routes always run behind
// VerifyJWT, so it is never zero there.
func actorID(ctx *gin.Context) uint {
	return ctx.GetUint(middleware.UserIDKey)
}

var notFoundErrs = []struct {
	err      error
	resource string
}{
	{service.ErrRaffleNotFound, "raffle"},
	{service.ErrParticipationNotFound, "participation"},
	{service.ErrPaymentNotFound, "payment"},
	{service.ErrPaymentMethodNotFound, "payment method"},
	{service.ErrPrizeNotFound, "prize"},
	{service.ErrDrawNotFound, "draw"},
	{service.ErrUserNotFound, "user"},
}

var badRequestErrs = []error{
	service.ErrRaffleNotAvailable,
	service.ErrBelowMinimumPurchase,
	service.ErrInvalidPaymentMethod,
	service.ErrInvalidTransactionDetails,
	service.ErrExchangeRateUnavailable,
	service.ErrPaymentCalculation,
	service.ErrInvalidRate,
	service.ErrInvalidPaymentMethodDetails,
	service.ErrUnknownBank,
}

var conflictErrs = []error{
	service.ErrNotEnoughTickets,
	service.ErrInsufficientTickets,
	service.ErrTicketNumberTaken,
	service.ErrAlreadyAssigned,
	service.ErrDuplicatePayment,
	service.ErrPaymentAlreadyExists,
	service.ErrInvalidStatusTransition,
	service.ErrDrawProcessing,
	service.ErrRevokePrize,
	service.ErrPrizeState,
	service.ErrSlugTaken,
}

// renderServiceErr maps service errors to HTTP responses. key and value
// describe the looked up resource in 404 messages.
func renderServiceErr(ctx *gin.Context, op string, err error, key string, value any) {
	for _, nf := range notFoundErrs {
		if errors.Is(err, nf.err) {
			response.RenderErr(ctx, response.ErrNotFound(nf.resource, key, value))
			return
		}
	}

	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
	}

	for _, target := range conflictErrs {
		if errors.Is(err, target) {
			response.RenderErr(ctx, response.ErrConflict(err))
			return
		}
	}

	response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
}

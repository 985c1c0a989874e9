package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

type DrawService interface {
	ScheduleDraw(ctx context.Context, prizeID uint, lotteryName string, drawTime time.Time, actor uint) (domain.Draw, error)
	ProcessDrawResult(ctx context.Context, drawID uint, winningNumber int, actor uint) (service.DrawOutcome, error)
	RevokePrizeAssignment(ctx context.Context, prizeID, actor uint) (domain.Draw, error)
	ForceResetWinner(ctx context.Context, prizeID, actor uint) (domain.Draw, error)
	MarkDelivered(ctx context.Context, prizeID, actor uint) (domain.Prize, error)
	DeleteDraw(ctx context.Context, drawID, actor uint) error
}

type ExchangeRateService interface {
	SetManualRate(ctx context.Context, rate domain.ExchangeRate, actor uint) (domain.ExchangeRate, error)
}

type AuditReader interface {
	History(ctx context.Context, entityType domain.EntityType, entityID uint) ([]domain.AuditEntry, error)
}

type AdminHandler struct {
	draws DrawService
	rates ExchangeRateService
	audit AuditReader
	now   func() time.Time
}

func NewAdminHandler(draws DrawService, rates ExchangeRateService, audit AuditReader) *AdminHandler {
	return &AdminHandler{
		draws: draws,
		rates: rates,
		audit: audit,
		now:   time.Now,
	}
}

// HandleDrawResult godoc
// @Summary      Submit a lottery result
// @Description  A sold ticket with the winning number wins the prize. Otherwise the draw rolls over 24 hours.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        drawID   path      int                        true  "Draw ID"
// @Param        request  body      request.DrawResultRequest  true  "request body"
// @Success      200      {object}  service.DrawOutcome
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/draws/{drawID}/result [post]
// @Security BearerAuth
func (h *AdminHandler) HandleDrawResult(ctx *gin.Context) {
	drawID, respErr := uintParam(ctx, "drawID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.DrawResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	outcome, err := h.draws.ProcessDrawResult(ctx.Request.Context(), drawID, *req.WinningNumber, actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleDrawResult -> h.draws.ProcessDrawResult", err, "ID", drawID)
		return
	}

	ctx.JSON(http.StatusOK, outcome)
}

// HandleDeleteDraw godoc
// @Summary      Delete a draw
// @Tags         admin
// @Param        drawID  path  int  true  "Draw ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /admin/draws/{drawID} [delete]
// @Security BearerAuth
func (h *AdminHandler) HandleDeleteDraw(ctx *gin.Context) {
	drawID, respErr := uintParam(ctx, "drawID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.draws.DeleteDraw(ctx.Request.Context(), drawID, actorID(ctx)); err != nil {
		renderServiceErr(ctx, "v1.HandleDeleteDraw -> h.draws.DeleteDraw", err, "ID", drawID)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleScheduleDraw godoc
// @Summary      Schedule a draw for a prize
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        prizeID  path      int                          true  "Prize ID"
// @Param        request  body      request.ScheduleDrawRequest  true  "request body"
// @Success      201      {object}  domain.Draw
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /admin/prizes/{prizeID}/draws [post]
// @Security BearerAuth
func (h *AdminHandler) HandleScheduleDraw(ctx *gin.Context) {
	prizeID, respErr := uintParam(ctx, "prizeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ScheduleDrawRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(h.now()); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	draw, err := h.draws.ScheduleDraw(ctx.Request.Context(), prizeID, req.LotteryName, req.DrawTime, actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleScheduleDraw -> h.draws.ScheduleDraw", err, "ID", prizeID)
		return
	}

	ctx.JSON(http.StatusCreated, draw)
}

// HandleRevokePrize godoc
// @Summary      Revoke a prize assignment
// @Description  Clears the winner of an undelivered prize and schedules a new draw in 24 hours.
// @Tags         admin
// @Produce      json
// @Param        prizeID  path      int  true  "Prize ID"
// @Success      200      {object}  domain.Draw
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /admin/prizes/{prizeID}/revoke [post]
// @Security BearerAuth
func (h *AdminHandler) HandleRevokePrize(ctx *gin.Context) {
	h.prizeAction(ctx, "v1.HandleRevokePrize -> h.draws.RevokePrizeAssignment", h.draws.RevokePrizeAssignment)
}

// HandleForceResetWinner godoc
// @Summary      Clear a winner that has no completed draw
// @Tags         admin
// @Produce      json
// @Param        prizeID  path      int  true  "Prize ID"
// @Success      200      {object}  domain.Draw
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /admin/prizes/{prizeID}/force-reset [post]
// @Security BearerAuth
func (h *AdminHandler) HandleForceResetWinner(ctx *gin.Context) {
	h.prizeAction(ctx, "v1.HandleForceResetWinner -> h.draws.ForceResetWinner", h.draws.ForceResetWinner)
}

func (h *AdminHandler) prizeAction(ctx *gin.Context, op string, action func(ctx context.Context, prizeID, actor uint) (domain.Draw, error)) {
	prizeID, respErr := uintParam(ctx, "prizeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	next, err := action(ctx.Request.Context(), prizeID, actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, op, err, "ID", prizeID)
		return
	}

	ctx.JSON(http.StatusOK, next)
}

// HandleDeliverPrize godoc
// @Summary      Mark a prize as delivered
// @Tags         admin
// @Produce      json
// @Param        prizeID  path      int  true  "Prize ID"
// @Success      200      {object}  domain.Prize
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /admin/prizes/{prizeID}/deliver [post]
// @Security BearerAuth
func (h *AdminHandler) HandleDeliverPrize(ctx *gin.Context) {
	prizeID, respErr := uintParam(ctx, "prizeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	prize, err := h.draws.MarkDelivered(ctx.Request.Context(), prizeID, actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleDeliverPrize -> h.draws.MarkDelivered", err, "ID", prizeID)
		return
	}

	ctx.JSON(http.StatusOK, prize)
}

// HandleSetExchangeRate godoc
// @Summary      Set the exchange rate of a date by hand
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.ExchangeRateRequest  true  "request body"
// @Success      200      {object}  domain.ExchangeRate
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/exchange-rates [put]
// @Security BearerAuth
func (h *AdminHandler) HandleSetExchangeRate(ctx *gin.Context) {
	var req request.ExchangeRateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	saved, err := h.rates.SetManualRate(ctx.Request.Context(), req.ToDomain(), actorID(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSetExchangeRate -> h.rates.SetManualRate", err, "date", req.Date)
		return
	}

	ctx.JSON(http.StatusOK, saved)
}

var auditableEntities = map[domain.EntityType]bool{
	domain.EntityParticipation: true,
	domain.EntityPayment:       true,
	domain.EntityTicketBatch:   true,
	domain.EntityPrize:         true,
	domain.EntityDraw:          true,
	domain.EntityExchangeRate:  true,
}

// HandleAuditHistory godoc
// @Summary      Get the change history of an entity
// @Tags         admin
// @Produce      json
// @Param        entityType  path      string  true  "participation, payment, ticket_batch, prize, draw or exchange_rate"
// @Param        entityID    path      int     true  "Entity ID"
// @Success      200         {array}   domain.AuditEntry
// @Failure      400         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /admin/audit/{entityType}/{entityID} [get]
// @Security BearerAuth
func (h *AdminHandler) HandleAuditHistory(ctx *gin.Context) {
	entityType := domain.EntityType(ctx.Param("entityType"))
	if !auditableEntities[entityType] {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unknown entity type %q", entityType)))
		return
	}

	entityID, respErr := uintParam(ctx, "entityID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	entries, err := h.audit.History(ctx.Request.Context(), entityType, entityID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleAuditHistory -> h.audit.History", err, "ID", entityID)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

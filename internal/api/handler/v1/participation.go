package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type ParticipationService interface {
	Create(ctx context.Context, participation domain.Participation) (domain.Participation, error)
	Lookup(ctx context.Context, raffleID uint, identificationNumber, phone, email string) ([]domain.Participation, error)
}

type ParticipationHandler struct {
	svc            ParticipationService
	raffles        RaffleService
	reservationTTL time.Duration
}

func NewParticipationHandler(svc ParticipationService, raffles RaffleService, reservationTTL time.Duration) *ParticipationHandler {
	return &ParticipationHandler{
		svc:            svc,
		raffles:        raffles,
		reservationTTL: reservationTTL,
	}
}

// HandleCreateParticipation godoc
// @Summary      Reserve tickets in a raffle
// @Description  The reservation is released if no payment is reported before it expires.
// @Tags         participations
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateParticipationRequest  true  "request body"
// @Success      201      {object}  response.ParticipationCreated
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /participations [post]
func (h *ParticipationHandler) HandleCreateParticipation(ctx *gin.Context) {
	var req request.CreateParticipationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateParticipation -> h.svc.Create", err, "ID", req.RaffleID)
		return
	}

	ctx.JSON(http.StatusCreated, response.ParticipationCreated{
		ID:           created.ID,
		RaffleID:     created.RaffleID,
		TicketCount:  created.TicketCount,
		ReservedTill: created.CreatedAt.Add(h.reservationTTL),
	})
}

// HandleLookupTickets godoc
// @Summary      Find a participant's tickets
// @Description  All three contact fields must match the ones given when participating.
// @Tags         participations
// @Accept       json
// @Produce      json
// @Param        request  body      request.TicketLookupRequest  true  "request body"
// @Success      200      {array}   response.LookupParticipation
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Router       /tickets/lookup [post]
func (h *ParticipationHandler) HandleLookupTickets(ctx *gin.Context) {
	var req request.TicketLookupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, err := h.raffles.Get(ctx.Request.Context(), req.RaffleID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLookupTickets -> h.raffles.Get", err, "ID", req.RaffleID)
		return
	}

	found, err := h.svc.Lookup(ctx.Request.Context(), raffle.ID, req.IdentificationNumber, req.Phone, req.Email)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLookupTickets -> h.svc.Lookup", err, "ID", req.RaffleID)
		return
	}

	ctx.JSON(http.StatusOK, response.NewLookupParticipations(raffle, found))
}

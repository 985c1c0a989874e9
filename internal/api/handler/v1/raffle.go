package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type RaffleService interface {
	ListActive(ctx context.Context) ([]domain.Raffle, error)
	Get(ctx context.Context, id uint) (domain.Raffle, error)
	Detail(ctx context.Context, slug string) (domain.Raffle, error)
	Stats(ctx context.Context, slug string) (domain.RaffleStats, error)
	StatsFor(ctx context.Context, raffle domain.Raffle) (domain.RaffleStats, error)
}

type RaffleHandler struct {
	svc RaffleService
}

func NewRaffleHandler(svc RaffleService) *RaffleHandler {
	return &RaffleHandler{svc: svc}
}

// HandleListRaffles godoc
// @Summary      List active raffles
// @Tags         raffles
// @Produce      json
// @Success      200  {array}   domain.Raffle
// @Failure      500  {object}  response.Err
// @Router       /raffles [get]
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	raffles, err := h.svc.ListActive(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListRaffles -> h.svc.ListActive", err, "", nil)
		return
	}

	ctx.JSON(http.StatusOK, raffles)
}

// HandleGetRaffle godoc
// @Summary      Get a raffle by slug
// @Description  Returns the raffle with its prizes, active payment methods and live availability.
// @Tags         raffles
// @Produce      json
// @Param        slug  path      string  true  "Raffle slug"
// @Success      200   {object}  response.RaffleDetail
// @Failure      404   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /raffles/{slug} [get]
func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
	slug := ctx.Param("slug")

	raffle, err := h.svc.Detail(ctx.Request.Context(), slug)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetRaffle -> h.svc.Detail", err, "slug", slug)
		return
	}

	// Availability changes with every participation, so it is never cached.
	stats, err := h.svc.StatsFor(ctx.Request.Context(), raffle)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetRaffle -> h.svc.StatsFor", err, "slug", slug)
		return
	}

	ctx.JSON(http.StatusOK, response.RaffleDetail{Raffle: raffle, Stats: stats})
}

// HandleGetRaffleStats godoc
// @Summary      Get raffle availability
// @Tags         raffles
// @Produce      json
// @Param        slug  path      string  true  "Raffle slug"
// @Success      200   {object}  domain.RaffleStats
// @Failure      404   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /raffles/{slug}/stats [get]
func (h *RaffleHandler) HandleGetRaffleStats(ctx *gin.Context) {
	slug := ctx.Param("slug")

	stats, err := h.svc.Stats(ctx.Request.Context(), slug)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetRaffleStats -> h.svc.Stats", err, "slug", slug)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/raffle-api/docs"
	v1 "github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/cache"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/jobs"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/ratesource"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	// Runner executes delayed reaper jobs and the rate update schedule.
	Runner *jobs.Runner
	// Live must be running for websocket subscribers to get events.
	Live *v1.LiveHandler
	Auth *service.AuthService

	rdb *redis.Client
}

type repositories struct {
	raffles        *repository.RaffleRepository
	participations *repository.ParticipationRepository
	payments       *repository.PaymentRepository
	methods        *repository.PaymentMethodRepository
	tickets        *repository.TicketRepository
	prizes         *repository.PrizeRepository
	draws          *repository.DrawRepository
	rates          *repository.ExchangeRateRepository
	audit          *repository.AuditRepository
	users          *repository.UserRepository
	banks          *repository.BankRepository
}

func newRepositories(db *gorm.DB) repositories {
	return repositories{
		raffles:        repository.NewRaffleRepository(dao.NewRaffleDAO(db)),
		participations: repository.NewParticipationRepository(dao.NewParticipationDAO(db)),
		payments:       repository.NewPaymentRepository(dao.NewPaymentDAO(db)),
		methods:        repository.NewPaymentMethodRepository(dao.NewPaymentMethodDAO(db)),
		tickets:        repository.NewTicketRepository(dao.NewTicketDAO(db)),
		prizes:         repository.NewPrizeRepository(dao.NewPrizeDAO(db)),
		draws:          repository.NewDrawRepository(dao.NewDrawDAO(db)),
		rates:          repository.NewExchangeRateRepository(dao.NewExchangeRateDAO(db)),
		audit:          repository.NewAuditRepository(dao.NewAuditDAO(db)),
		users:          repository.NewUserRepository(dao.NewUserDAO(db)),
		banks:          repository.NewBankRepository(dao.NewBankDAO(db)),
	}
}

func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	location, err := time.LoadLocation(conf.Jobs.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%q) -> %w", conf.Jobs.Timezone, err)
	}

	s := &Server{
		Config: conf,
		Router: engine,
		rdb:    rdb,
	}

	s.MountMiddlewares()

	tx := dao.NewTransactor(db)
	repos := newRepositories(db)
	queue := jobs.NewQueue(rdb)
	s.Runner = jobs.NewRunner(queue, conf.Jobs.PollInterval, location)

	raffleSvc := service.NewRaffleService(repos.raffles, cache.NewRaffleCache(rdb, conf.Redis.CacheTTL))
	s.Live = v1.NewLiveHandler(raffleSvc, conf.API.AllowedCORSDomains)
	notifier := service.Notifiers{raffleSvc, s.Live}

	ticketSvc := service.NewTicketService(tx, repos.raffles, repos.participations, repos.tickets, repos.audit)
	participationSvc := service.NewParticipationService(
		tx, repos.raffles, repos.participations, repos.audit, queue, notifier, conf.Jobs.ReservationTTL,
	)
	paymentSvc := service.NewPaymentService(
		tx, repos.raffles, repos.participations, repos.payments, repos.methods, repos.tickets,
		ticketSvc, service.NewCurrencyService(repos.rates), repos.audit, notifier,
	)
	drawSvc := service.NewDrawService(
		tx, repos.prizes, repos.draws, repos.tickets, repos.participations, repos.raffles, repos.audit, notifier,
	)
	rateSvc := service.NewExchangeRateService(
		repos.rates,
		ratesource.NewSource(conf.Rates.SourceURL, conf.Rates.Timeout),
		cache.NewAttemptCounter(rdb),
		repos.audit,
		conf.Jobs.MaxRateAttempts,
		conf.Jobs.AttemptsTTL,
		location,
	)
	reaperSvc := service.NewReaperService(tx, repos.participations, repos.payments, repos.audit, notifier)
	userSvc := service.NewUserService(repos.users)
	s.Auth = service.NewAuthService(repos.users)

	if err = s.mountJobs(reaperSvc, rateSvc); err != nil {
		return nil, err
	}

	s.MountHandlers(
		v1.NewAuthHandler(conf.API, s.Auth, userSvc),
		v1.NewRaffleHandler(raffleSvc),
		v1.NewParticipationHandler(participationSvc, raffleSvc, conf.Jobs.ReservationTTL),
		v1.NewPaymentHandler(paymentSvc),
		v1.NewAdminHandler(drawSvc, rateSvc, repos.audit),
		v1.NewCatalogHandler(service.NewCatalogService(repos.raffles, repos.methods, repos.banks)),
		userSvc,
	)

	return s, nil
}

func (s *Server) mountJobs(reaper *service.ReaperService, rates *service.ExchangeRateService) error {
	s.Runner.Handle(jobs.KindReapParticipation, reaper.HandleJob)

	if err := s.Runner.Every("update_exchange_rate", s.Config.Jobs.RateUpdateCron, rates.RunScheduledUpdate); err != nil {
		return fmt.Errorf("s.Runner.Every() -> %w", err)
	}

	return nil
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(metrics.Middleware())
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	raffleHandler *v1.RaffleHandler,
	participationHandler *v1.ParticipationHandler,
	paymentHandler *v1.PaymentHandler,
	adminHandler *v1.AdminHandler,
	catalogHandler *v1.CatalogHandler,
	users middleware.UserService,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/login", authHandler.HandleLogin)

		public.GET("/raffles", raffleHandler.HandleListRaffles)
		public.GET("/raffles/:slug", raffleHandler.HandleGetRaffle)
		public.GET("/raffles/:slug/stats", raffleHandler.HandleGetRaffleStats)
		public.GET("/raffles/:slug/live", s.Live.HandleLiveFeed)

		public.POST("/participations", participationHandler.HandleCreateParticipation)
		public.POST("/tickets/lookup",
			middleware.RateLimitByIP(s.rdb, "ticket_lookup", s.Config.API.LookupRateLimit, s.Config.API.LookupRateWindow),
			participationHandler.HandleLookupTickets,
		)

		public.GET("/payments/calculate-amount", paymentHandler.HandleCalculateAmount)
		public.POST("/payments", paymentHandler.HandleCreatePayment)
	}

	admin := s.Router.Group(
		basePath+"/admin",
		middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT(),
		middleware.RequireStaff(users),
	)
	{
		admin.GET("/me", authHandler.HandleGetMe)

		admin.POST("/payments/bulk", paymentHandler.HandleBulkPayments)
		admin.POST("/payments/:paymentID/status", paymentHandler.HandleChangeStatus)
		admin.DELETE("/payments/:paymentID", paymentHandler.HandleDeletePayment)

		admin.POST("/draws/:drawID/result", adminHandler.HandleDrawResult)
		admin.DELETE("/draws/:drawID", adminHandler.HandleDeleteDraw)

		admin.POST("/prizes/:prizeID/draws", adminHandler.HandleScheduleDraw)
		admin.POST("/prizes/:prizeID/revoke", adminHandler.HandleRevokePrize)
		admin.POST("/prizes/:prizeID/force-reset", adminHandler.HandleForceResetWinner)
		admin.POST("/prizes/:prizeID/deliver", adminHandler.HandleDeliverPrize)

		admin.POST("/raffles", catalogHandler.HandleCreateRaffle)
		admin.POST("/payment-methods", catalogHandler.HandleCreatePaymentMethod)
		admin.GET("/banks", catalogHandler.HandleListBanks)

		admin.PUT("/exchange-rates", adminHandler.HandleSetExchangeRate)
		admin.GET("/audit/:entityType/:entityID", adminHandler.HandleAuditHistory)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", metrics.Handler())

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Raffle API"
	docs.SwaggerInfo.Description = "Ticket sales, payment verification and prize draws for online raffles."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

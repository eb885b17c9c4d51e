package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"carrental/internal/config"
	"carrental/internal/database"
	"carrental/internal/middleware"
	"carrental/internal/modules/access"
	"carrental/internal/modules/availability"
	"carrental/internal/modules/booking"
	"carrental/internal/modules/catalog"
	"carrental/internal/modules/events"
	"carrental/internal/modules/notification"
	"carrental/internal/modules/payment"
	"carrental/internal/modules/session"
	"carrental/internal/pkg/clock"
	"carrental/internal/pkg/token"
	"carrental/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	carRepo := repository.NewCarRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	clk := clock.System()
	tokens := token.New(cfg.JWTSecret, cfg.TokenTTL)
	guard := access.NewGuard(access.DefaultTables())
	index := availability.NewIndex()
	hub := events.NewHub()
	defer hub.Close()

	sessionService := session.NewService(
		sessionRepo,
		session.NewStoreVerifier(userRepo),
		clk,
		cfg.SessionTTL,
		cfg.SessionWarnWindow,
	)
	sessionHandler := session.NewHandler(sessionService, tokens)

	notificationService := notification.NewService(notificationRepo, clk)
	notificationHandler := notification.NewHandler(notificationService)

	bookingService := booking.NewService(
		bookingRepo,
		carRepo,
		index,
		payment.NewSimulatedProcessor(100*time.Millisecond),
		notificationService,
		hub,
		clk,
		booking.Config{
			TaxRate:        cfg.TaxRate,
			ServiceFeeRate: cfg.ServiceFeeRate,
			PaymentTimeout: cfg.PaymentTimeout,
		},
	)
	bookingHandler := booking.NewHandler(bookingService)

	catalogService := catalog.NewService(carRepo, bookingRepo, index, clk)
	catalogHandler := catalog.NewHandler(catalogService)
	if err := catalogService.WarmIndex(context.Background()); err != nil {
		log.Fatal(err)
	}

	accessHandler := access.NewHandler(guard, sessionService, tokens)
	wsHandler := events.NewWSHandler(hub, tokens, sessionService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/ws/events", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		// public
		sessionHandler.RegisterRoutes(v1)
		accessHandler.RegisterRoutes(v1)
		catalogHandler.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.Auth(tokens, sessionService))
		{
			sessionHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)

			fleet := protected.Group("/")
			fleet.Use(middleware.RequirePermission(guard, access.PermManageOwnCars))
			catalogHandler.RegisterProtectedRoutes(fleet)

			reports := protected.Group("/")
			reports.Use(middleware.RequirePermission(guard, access.PermViewReports))
			bookingHandler.RegisterReportRoutes(reports)
		}
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

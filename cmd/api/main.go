package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/config"
	"tsf-arena-backend/internal/games"
	"tsf-arena-backend/internal/handlers"
	"tsf-arena-backend/internal/middleware"
	"tsf-arena-backend/internal/services"
	"tsf-arena-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Env == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	// Engines start against a nop broadcaster; the websocket hub is wired in
	// before any round loop begins ticking.
	crash := games.NewCrashEngine(st, services.NopBroadcaster{})
	wingo := games.NewWingoEngine(st, services.NopBroadcaster{})
	chicken := games.NewChickenEngine(st, services.NopBroadcaster{})
	mines := games.NewMinesGame(st, redisService)
	coinflip := games.NewCoinFlip(st)

	wsHandler := handlers.NewWebSocketHandler(st, crash, wingo, chicken)
	crash.SetBroadcaster(wsHandler)
	wingo.SetBroadcaster(wsHandler)
	chicken.SetBroadcaster(wsHandler)

	go crash.Run(ctx)
	go wingo.Run(ctx)
	go chicken.Run(ctx)

	authHandler := handlers.NewAuthHandler(st, jwtService, cfg)
	userHandler := handlers.NewUserHandler(st)
	walletHandler := handlers.NewWalletHandler(st)
	gameHandler := handlers.NewGameHandler(st, crash, wingo, chicken, mines, coinflip, redisService)
	adminHandler := handlers.NewAdminHandler(st)
	tournamentHandler := handlers.NewTournamentHandler(st)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/admin/login", authHandler.AdminLogin)

	// The tournament list is a public lobby page; details and registration
	// stay behind auth.
	router.GET("/api/tournaments", tournamentHandler.List)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.PUT("/me", userHandler.UpdateProfile)
		protected.GET("/transactions", userHandler.Transactions)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		wallet := protected.Group("/wallet")
		{
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.POST("/withdraw", walletHandler.Withdraw)
		}

		gameRoutes := protected.Group("/games")
		gameRoutes.Use(middleware.RateLimitMiddleware(redisService))
		{
			gameRoutes.GET("/history", userHandler.GameHistory)
			gameRoutes.POST("/bet", gameHandler.PlaceBet)

			crashRoutes := gameRoutes.Group("/crash")
			{
				crashRoutes.GET("/state", gameHandler.CrashState)
				crashRoutes.POST("/bet", gameHandler.CrashBet)
				crashRoutes.POST("/cashout", gameHandler.CrashCashout)
			}

			wingoRoutes := gameRoutes.Group("/wingo")
			{
				wingoRoutes.GET("/state", gameHandler.WingoState)
				wingoRoutes.POST("/bet", gameHandler.WingoBet)
			}

			chickenRoutes := gameRoutes.Group("/chicken")
			{
				chickenRoutes.GET("/state", gameHandler.ChickenState)
				chickenRoutes.POST("/bet", gameHandler.ChickenBet)
			}

			minesRoutes := gameRoutes.Group("/mines")
			{
				minesRoutes.POST("/start", gameHandler.MinesStart)
				minesRoutes.POST("/reveal", gameHandler.MinesReveal)
				minesRoutes.POST("/cashout", gameHandler.MinesCashout)
				minesRoutes.GET("/active", gameHandler.MinesActive)
			}

			gameRoutes.POST("/coinflip", gameHandler.CoinFlip)
		}

		tournaments := protected.Group("/tournaments")
		{
			tournaments.GET("/:id", tournamentHandler.Details)
			tournaments.POST("/:id/register", tournamentHandler.Register)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/transactions", adminHandler.PendingTransactions)
			admin.POST("/transactions/resolve", adminHandler.ResolveTransaction)
			admin.GET("/users", adminHandler.Users)
			admin.POST("/users/balance", adminHandler.UpdateBalance)
			admin.GET("/stats", adminHandler.Stats)
			admin.POST("/tournaments", adminHandler.CreateTournament)
			admin.PUT("/tournaments/:id", adminHandler.UpdateTournament)
			admin.POST("/tournaments/:id/results", adminHandler.PublishResults)
		}
	}

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

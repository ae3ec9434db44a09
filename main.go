package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bantah-points-system/handlers"
	"bantah-points-system/middleware"
	"bantah-points-system/models"
	"bantah-points-system/services"
	"bantah-points-system/utils"
	"bantah-points-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, covers cover image uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlatformUser{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.PointsTransaction{},
		&models.UserPointsLedger{},
		&models.Notification{},
		&models.Referral{},
		&models.EscrowEventMirror{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	notificationService := services.NewNotificationService(db)
	pointsService := services.NewPointsService(db, ledgerService, notificationService)
	claimService := services.NewClaimService(db, ledgerService, notificationService)
	referralService := services.NewReferralService(db, pointsService, notificationService)
	challengeService := services.NewChallengeService(db, pointsService)
	leaderboardService := services.NewLeaderboardService(db, notificationService)
	backfillService := services.NewBackfillService(db, ledgerService)

	// --- CONFIGURE Sync Service Details for Platform Users ---
	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("POINTS_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("POINTS_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	profileSyncWorker := workers.NewProfileSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)

	escrowSyncClient := workers.NewEscrowSyncClient(db, pointsService)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollEscrowEvents(ctx, escrowSyncClient, 15*time.Second)

	go func() {
		log.Println("Starting Profile Sync Worker...")
		profileSyncWorker.Start(ctx)
	}()

	services.StartSchedulers(challengeService, leaderboardService)

	handlers.SetupPointsRoutes(app, ledgerService, claimService, leaderboardService, notificationService)
	handlers.SetupChallengeRoutes(app, challengeService, referralService)
	handlers.SetupAdminRoutes(app, db, []byte(jwtSecret), pointsService, challengeService, backfillService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Escrow event polling running (every 15s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

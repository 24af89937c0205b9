package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/controllers"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
	"github.com/alumglass/alumglass-api/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.LogLevel)
	slog.Info("starting AlumGlass Workshop API", "env", cfg.GoEnv)

	if err := config.ConnectDatabase(); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := config.GetDB()
	err = db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Product{},
		&models.Material{},
		&models.OrderFile{},
		&models.OrderNote{},
		&models.TimelineEntry{},
		&models.Repair{},
		&models.RepairNote{},
		&models.RepairMedia{},
	)
	if err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database migration completed")

	s3Service, err := services.InitS3Service()
	if err != nil {
		slog.Error("failed to initialize S3 service", "error", err)
		os.Exit(1)
	}
	services.InitFileService(s3Service)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg)

	addr := ":" + cfg.Port
	slog.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupRouter wires the middleware chain and every API route. Split out of
// main so the acceptance suite can run against the same router.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}

	auth := v1.Group("")
	auth.Use(middleware.EnsureValidToken(cfg))
	{
		// Profile management for any authenticated identity
		auth.POST("/users", controllers.CreateUser)
		auth.GET("/users/me", controllers.GetMyProfile)
		auth.PUT("/users/me", controllers.UpdateMyProfile)

		// Order views are open to every role, including installers in the field
		auth.GET("/orders", controllers.ListOrders)
		auth.GET("/orders/:id", controllers.GetOrder)
		auth.GET("/clients", controllers.ListClients)
		auth.GET("/clients/search", controllers.SearchClients)
		auth.GET("/clients/by-phone/:phone", controllers.GetClientByPhone)
		auth.GET("/clients/by-phone/:phone/history", controllers.GetClientHistory)
		auth.GET("/installations/schedule", controllers.GetInstallationSchedule)
		auth.GET("/installations/installers", controllers.ListInstallers)
		auth.GET("/repairs", controllers.ListRepairs)
		auth.GET("/repairs/:id", controllers.GetRepair)

		// Attachments
		auth.POST("/uploads", controllers.UploadAttachment)
		auth.GET("/uploads/*key", controllers.GetAttachmentURL)

		// Field crews report back on their own work
		crew := auth.Group("")
		crew.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOffice, models.RoleInstaller))
		{
			crew.POST("/installations/approve", controllers.ApproveInstallation)
			crew.PUT("/orders/:id/take-list", controllers.UpdateInstallTakeList)
			crew.POST("/repairs/:id/notes", controllers.AddRepairNote)
			crew.POST("/repairs/:id/media", controllers.AddRepairMedia)
		}

		// Everything that moves an order or repair through the pipeline
		// stays with the office
		office := auth.Group("")
		office.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOffice))
		{
			office.POST("/orders", controllers.CreateOrder)
			office.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
			office.PUT("/orders/:id/production", controllers.UpdateProduction)
			office.PUT("/orders/:id/issue", controllers.UpdateOrderIssue)
			office.PUT("/orders/:id/invoice", controllers.UpdateFinalInvoice)
			office.POST("/orders/:id/notes", controllers.AddOrderNote)
			office.POST("/orders/:id/files", controllers.AddOrderFile)

			office.GET("/procurement/pending", controllers.GetPendingMaterials)
			office.GET("/procurement/tracking", controllers.GetPurchasingStatus)
			office.POST("/procurement/ordered", controllers.MarkMaterialOrdered)
			office.POST("/procurement/arrival", controllers.ToggleMaterialArrival)

			office.POST("/installations/schedule", controllers.ScheduleInstallation)

			office.POST("/repairs", controllers.CreateRepair)
			office.PUT("/repairs/:id", controllers.UpdateRepair)
			office.PUT("/repairs/:id/issue", controllers.UpdateRepairIssue)
			office.POST("/repairs/:id/approve", controllers.ApproveRepair)
			office.POST("/repairs/:id/schedule", controllers.ScheduleRepair)
			office.POST("/repairs/:id/close", controllers.CloseRepair)

			office.DELETE("/uploads/*key", controllers.DeleteAttachment)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AlumGlass Workshop API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}

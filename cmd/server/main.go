package main

import (
	"context"
	"log"
	"time"

	"segmentation_service/internal/config"
	"segmentation_service/internal/database"
	"segmentation_service/internal/events"
	"segmentation_service/internal/handlers"
	"segmentation_service/internal/redis"
	"segmentation_service/internal/repository"
	"segmentation_service/internal/segmentation"
	"segmentation_service/internal/services"
	"segmentation_service/pkg/cms"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Initialize CMS client
	cmsClient := cms.NewClient(cfg.CMSAPIURL, cfg.CMSAPIToken)

	// Initialize event publisher (optional)
	var publisher events.Publisher
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			log.Fatal("Failed to open RabbitMQ channel:", err)
		}
		publisher, err = events.NewRabbitPublisher(ch)
		if err != nil {
			log.Fatal("Failed to set up event publisher:", err)
		}
		log.Println("Segment change events enabled")
	}

	// Initialize repositories and services
	historyRepo := repository.NewSegmentChangeRepository(db)
	classifier := segmentation.NewClassifier(cfg.Thresholds)
	segmentationService := services.NewSegmentationService(
		cmsClient,
		classifier,
		historyRepo,
		redisClient,
		publisher,
		time.Duration(cfg.CacheTTL)*time.Second,
	)

	// Initialize handlers
	segmentHandler := handlers.NewSegmentHandler(segmentationService)

	// Setup routes
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/customers/:customer_id/segment", segmentHandler.GetSegment)
		api.POST("/customers/:customer_id/segment/detect", segmentHandler.DetectSegment)
		api.PUT("/customers/:customer_id/segment", segmentHandler.OverrideSegment)
		api.GET("/customers/:customer_id/segment/history", segmentHandler.GetSegmentHistory)

		api.GET("/segments/distribution", segmentHandler.GetDistribution)
		api.POST("/segments/resegment", segmentHandler.ResegmentAll)
	}

	// Schedule the periodic re-segmentation sweep
	if cfg.ResegmentCron != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.ResegmentCron, func() {
			log.Println("Starting scheduled re-segmentation sweep")
			summary, err := segmentationService.ResegmentAllCustomers(context.Background())
			if err != nil {
				log.Printf("Scheduled sweep failed: %v", err)
				return
			}
			log.Printf("Scheduled sweep done: %d processed, %d changed, %d skipped, %d failed",
				summary.Processed, summary.Changed, summary.Skipped, summary.Failed)
		})
		if err != nil {
			log.Fatal("Invalid RESEGMENT_CRON expression:", err)
		}
		scheduler.Start()
		log.Printf("Re-segmentation sweep scheduled: %s", cfg.ResegmentCron)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

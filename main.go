package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"review-service/internal/cache"
	"review-service/internal/config"
	"review-service/internal/db"
	"review-service/internal/event"
	"review-service/internal/handlers"
	"review-service/internal/repository"
	"review-service/internal/service"
	"review-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoDB.URI)
	defer db.CloseMongo()
	database := db.Client.Database(cfg.MongoDB.Database)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, review events will not be published")
	}

	// Repositories
	itemRepo := repository.NewLearningItemRepository(database)
	vocabRepo := repository.NewVocabRepository(database)
	poolRepo := repository.NewPoolRepository(database)
	answerRepo := repository.NewAnswerRepository(database)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := itemRepo.EnsureIndexes(indexCtx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancel()

	// Optional redis cache in front of the curated distractor pool
	var pool service.PoolSource = poolRepo
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unreachable, serving pool without cache: %v", err)
		} else {
			pool = cache.NewCachedPoolSource(redisClient, poolRepo, cfg.Redis.PoolTTL)
		}
	}

	reviewService := service.NewReviewService(itemRepo, vocabRepo, pool, answerRepo)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	vocabService := service.NewVocabService(vocabRepo, poolRepo)
	vocabHandler := handlers.NewVocabHandler(vocabService)

	// Optional consul registration
	if cfg.Consul.ConsulAddress != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Service discovery init failed: %v", err)
		}
		if err := registry.Register(); err != nil {
			log.Fatalf("Service registration failed: %v", err)
		}
		defer registry.Deregister()
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupReviewRoutes(r, reviewHandler, vocabHandler, publisher)

	r.Run(":" + cfg.Server.Port)
}

func setupReviewRoutes(r *gin.Engine, reviewHandler *handlers.ReviewHandler, vocabHandler *handlers.VocabHandler, publisher *event.EventPublisher) {
	public := r.Group("/public/review")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	protected := r.Group("/protected/review")

	// Authentication middleware: the gateway sets X-User-ID
	protected.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})

	// Request logging middleware
	protected.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[REVIEW] %v | %3d | %13v | %15s | %-7s %#v\n%s",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
			param.ErrorMessage,
		)
	}))

	{
		// Build a bounded review batch for the user
		protected.POST("/batch", func(c *gin.Context) {
			reviewHandler.BuildBatch(c)
			if publisher != nil {
				publisher.Publish("review.batch.built", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// Build one question (highest-priority due item when item_id omitted)
		protected.GET("/question", func(c *gin.Context) {
			reviewHandler.SingleQuestion(c)
			if publisher != nil {
				publisher.Publish("review.question.requested", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"item_id":   c.Query("item_id"),
					"timestamp": time.Now(),
				})
			}
		})

		// Submit a graded answer
		protected.POST("/answer", func(c *gin.Context) {
			reviewHandler.SubmitAnswer(c)
			if publisher != nil {
				publisher.Publish("review.answer.submitted", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// Review statistics for the user
		protected.GET("/stats", func(c *gin.Context) {
			reviewHandler.GetStats(c)
			if publisher != nil {
				publisher.Publish("review.stats.requested", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// Learner vocabulary management
		protected.GET("/entries", vocabHandler.ListEntries)
		protected.GET("/entries/:id", vocabHandler.GetEntry)
		protected.POST("/entries", func(c *gin.Context) {
			vocabHandler.CreateEntry(c)
			if publisher != nil {
				publisher.Publish("review.entry.created", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})
		protected.PUT("/entries/:id", vocabHandler.UpdateEntry)
		protected.DELETE("/entries/:id", func(c *gin.Context) {
			vocabHandler.DeleteEntry(c)
			if publisher != nil {
				publisher.Publish("review.entry.deleted", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"entry_id":  c.Param("id"),
					"timestamp": time.Now(),
				})
			}
		})

		// Curated distractor pool admin
		protected.GET("/pool", vocabHandler.ListPool)
		protected.POST("/pool", vocabHandler.AddPoolEntry)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"peerhaven/backend/internal/alert"
	"peerhaven/backend/internal/api/handler"
	"peerhaven/backend/internal/escalation"
	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"
	"peerhaven/backend/internal/synchub"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "user"),
		envOr("DB_PASSWORD", "password"),
		envOr("DB_NAME", "peerhavendb"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Post{},
		&models.Reply{},
		&models.ChatMessage{},
		&models.Escalation{},
		&models.ModerationAction{},
		&models.StaffUser{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting PeerHaven Triage Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	transport := synchub.NewRedisTransport(rdb)
	transport.Run()

	hub := synchub.NewManagerService(s, transport)
	go hub.Run()

	escalations := escalation.NewService(s)

	if botToken := os.Getenv("TELEGRAM_BOT_TOKEN"); botToken != "" {
		notifier, err := alert.NewNotifier(botToken, s, transport)
		if err != nil {
			log.Fatalf("Failed to start alert notifier: %v", err)
		}
		notifier.Run()
	} else {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, critical alerts disabled")
	}

	r := gin.Default()
	h := handler.NewHandler(hub, escalations, s)

	r.GET("/anonid", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)

	r.POST("/posts", h.CreatePost)
	r.POST("/posts/:id/replies", h.CreateReply)
	r.POST("/posts/:id/report", h.ReportPost)
	r.POST("/sessions/:id/messages", h.CreateMessage)
	r.GET("/sessions/:id/history", h.GetSessionHistory)

	r.GET("/queue", h.GetQueue)
	r.GET("/escalations", h.GetEscalations)
	r.POST("/escalations/:id/assign", h.AssignEscalation)
	r.POST("/escalations/:id/resolve", h.ResolveEscalation)
	r.POST("/escalations/:id/reopen", h.ReopenEscalation)
	r.GET("/moderation/history/:contentId", h.GetModerationHistory)

	server := &http.Server{
		Addr:           ":8080",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}

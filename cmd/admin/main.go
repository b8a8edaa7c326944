package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"peerhaven/backend/internal/api/handler"
	"peerhaven/backend/internal/escalation"
	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/queue"
	"peerhaven/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDR")})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	storageSvc := storage.NewStorageService(db, rdb)
	escalations := escalation.NewService(storageSvc)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: queue, assign, resolve, reopen, staff-add, oncall, token")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "queue":
		printQueue(storageSvc)

	case "assign":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin assign <escalation_id> <staff_id>")
			os.Exit(1)
		}
		esc, err := escalations.Assign(os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Error assigning escalation: %v", err)
		}
		fmt.Printf("Escalation %s assigned to %s.\n", esc.ID, *esc.AssignedTo)

	case "resolve":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin resolve <escalation_id> <staff_id>")
			os.Exit(1)
		}
		actor := mustStaff(storageSvc, os.Args[3])
		esc, err := escalations.Resolve(os.Args[2], actor)
		if err != nil {
			log.Fatalf("Error resolving escalation: %v", err)
		}
		fmt.Printf("Escalation %s resolved at %s.\n", esc.ID, esc.ResolvedAt.Format(time.RFC3339))

	case "reopen":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin reopen <escalation_id> <staff_id>")
			os.Exit(1)
		}
		actor := mustStaff(storageSvc, os.Args[3])
		esc, err := escalations.Reopen(os.Args[2], actor)
		if err != nil {
			log.Fatalf("Error reopening escalation: %v", err)
		}
		fmt.Printf("Escalation %s reopened.\n", esc.ID)

	case "staff-add":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin staff-add <display_name> <role>")
			os.Exit(1)
		}
		user := &models.StaffUser{
			DisplayName: os.Args[2],
			Role:        models.StaffRole(os.Args[3]),
		}
		if err := storageSvc.SaveStaff(user); err != nil {
			log.Fatalf("Error creating staff user: %v", err)
		}
		fmt.Printf("Staff user %s created with id %s.\n", user.DisplayName, user.ID)

	case "oncall":
		if len(os.Args) != 4 || (os.Args[3] != "on" && os.Args[3] != "off") {
			fmt.Println("Usage: admin oncall <staff_id> on|off")
			os.Exit(1)
		}
		if err := storageSvc.SetStaffOnCall(os.Args[2], os.Args[3] == "on"); err != nil {
			log.Fatalf("Error updating on-call flag: %v", err)
		}
		fmt.Printf("Staff %s on-call: %s.\n", os.Args[2], os.Args[3])

	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <staff_id>")
			os.Exit(1)
		}
		mustStaff(storageSvc, os.Args[2])
		token, err := handler.GenerateStaffJWT(os.Args[2])
		if err != nil {
			log.Fatalf("Error generating token: %v", err)
		}
		fmt.Println(token)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func mustStaff(s storage.Storage, id string) *models.StaffUser {
	user, err := s.GetStaffByID(id)
	if err != nil {
		log.Fatalf("Staff user %s not found: %v", id, err)
	}
	return user
}

func printQueue(s storage.Storage) {
	posts, err := s.ListActivePosts()
	if err != nil {
		log.Fatalf("Error loading posts: %v", err)
	}
	escalations, err := s.ListEscalations(storage.EscalationFilter{})
	if err != nil {
		log.Fatalf("Error loading escalations: %v", err)
	}

	byContent := make(map[string]*models.Escalation, len(escalations))
	for i := range escalations {
		byContent[escalations[i].ContentID] = &escalations[i]
	}

	items := make([]queue.Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, queue.Item{
			ContentID:     post.ID,
			ReportedCount: post.ReportedCount,
			CreatedAt:     post.CreatedAt,
			Escalation:    byContent[post.ID],
		})
	}

	for _, item := range queue.Order(items) {
		level := models.LevelNone
		status := "-"
		if item.Escalation != nil {
			level = item.Escalation.Level
			status = string(item.Escalation.Status)
		}
		fmt.Printf("%-36s  level=%-8s  reports=%-3d  status=%s\n",
			item.ContentID, level, item.ReportedCount, status)
	}
}

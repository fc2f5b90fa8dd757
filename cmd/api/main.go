package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/chat"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/config"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/database"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/http/handlers"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/logger"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/storage"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.MessageStatus{},
		&models.MessageDelete{},
	); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	convs := storage.NewConversationRepository(db)
	msgs := storage.NewMessageRepository(db)
	statuses := storage.NewStatusRepository(db)
	users := storage.NewUserRepository(db)
	files := storage.NewDiskStore(cfg.Uploads.Directory, cfg.Uploads.PublicPath)

	presence := chat.NewPresence()
	hub := chat.NewHub()
	rooms := chat.NewRooms(hub)
	chatHandler := chat.NewHandler(presence, rooms, convs, msgs, statuses, users, files)

	r := gin.Default()

	wsH := &handlers.WSHandler{
		Hub:                hub,
		Chat:               chatHandler,
		InsecureSkipVerify: cfg.Server.WSInsecureSkipVerify,
	}
	r.GET("/ws", wsH.Handle)

	chatH := &handlers.ChatHandler{
		Convs:    convs,
		Msgs:     msgs,
		Statuses: statuses,
		Users:    users,
		Chat:     chatHandler,
	}

	api := r.Group("/api/v1")
	api.GET("/conversations", chatH.ListConversations)
	api.POST("/conversations", chatH.CreateConversation)
	api.GET("/conversations/:id/messages", chatH.ListMessages)
	api.DELETE("/conversations/:id", chatH.HideConversation)
	api.PUT("/conversations/:id/read", chatH.MarkRead)
	api.PUT("/conversations/:id/unread", chatH.MarkUnread)
	api.POST("/messages", chatH.SendMessage)
	api.GET("/users/available", chatH.AvailableUsers)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Println("listening on", addr)
	log.Fatal(r.Run(addr))
}

package main

import (
	"log"

	"askdb/ai"
	"askdb/cache"
	"askdb/config"
	"askdb/db"
	_ "askdb/docs" // Swagger docs
	"askdb/handlers"
	"askdb/service"
	"askdb/vector"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg := config.Load()

	// Initialize chat storage
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureDefaultChatSession(); err != nil {
		log.Printf("Warning: failed to ensure default chat session: %v", err)
	}

	// Initialize cache
	appCache := cache.New()

	// Embeddings always come from the local Ollama instance; the chat
	// provider is selected by configuration.
	embedAI := ai.NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel, cfg.Ollama.ChatModel)

	var chatAI ai.Provider
	switch cfg.ChatProvider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			log.Fatalf("CHAT_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		chatAI = ai.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.FallbackModels)
	default:
		chatAI = embedAI
	}
	log.Printf("Chat provider: %s", chatAI.Name())

	// Initialize SQL Server connector
	connector, err := service.NewMssqlConnector(cfg.SQLServer)
	if err != nil {
		log.Fatalf("Failed to initialize SQL Server connector: %v", err)
	}
	defer connector.Close()

	// Vector index client
	vecClient := vector.NewClient(cfg.Qdrant.BaseURL, cfg.Qdrant.Collection)

	// Services
	settingsService := service.NewSettingsService(connector, chatAI, embedAI, vecClient, appCache)
	reportService := service.NewReportService(database, chatAI, embedAI, vecClient, connector, settingsService)

	// Initialize handlers
	h := handlers.New(database, reportService, settingsService, connector)

	// Setup Gin router
	r := gin.Default()

	// CORS: allow everything, the service sits behind an internal gateway
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"}
	r.Use(cors.New(corsConfig))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Routes
	r.GET("/health", h.HealthHandler)
	r.POST("/api/report/ask", h.AskHandler)

	r.GET("/api/settings/dbmap", h.GetDbMapHandler)
	r.POST("/api/settings/reindex", h.ReindexHandler)

	// Chat session routes
	r.GET("/api/chat/sessions", h.ListChatSessionsHandler)
	r.POST("/api/chat/sessions", h.CreateChatSessionHandler)
	r.GET("/api/chat/sessions/:id", h.GetChatSessionHandler)
	r.PUT("/api/chat/sessions/:id", h.UpdateChatSessionHandler)
	r.DELETE("/api/chat/sessions/:id", h.DeleteChatSessionHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package main

import (
	"embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	basicagent "github.com/alfmat/basic-agent"
	"github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/models/gemini"
	"github.com/alfmat/basic-agent/models/openai"
	"github.com/alfmat/basic-agent/sessions"
	"github.com/alfmat/basic-agent/stores"
	"github.com/alfmat/basic-agent/weather_tools"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

//go:embed web
var webFS embed.FS

const defaultThreadID = "default_thread"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ginStreamWriter writes x-ndjson lines to the gin response.
type ginStreamWriter struct {
	c *gin.Context
}

func (w *ginStreamWriter) WriteEvent(event models.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = w.c.Writer.Write(append(data, '\n'))
	return err
}

func (w *ginStreamWriter) Flush() {
	w.c.Writer.Flush()
}

func buildModel(cfg *basicagent.Config) basicagent.Model {
	if cfg.ModelProvider == "gemini" {
		return &gemini.Gemini_Model{
			SystemPrompt: basicagent.WeatherSystemPrompt,
		}
	}
	return &openai.OpenAI_Model{
		Model:        cfg.OpenAIModel,
		SystemPrompt: basicagent.WeatherSystemPrompt,
	}
}

func main() {
	cfg, err := basicagent.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	weather_tools.UserAgent = cfg.NWSUserAgent

	store, err := stores.NewStore(stores.NewStoreConfig(cfg.DBType, cfg.DBConnection))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	sweeper := stores.NewRetentionSweeper(store, cfg.RetentionMaxAge())
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start retention sweeper: %v", err)
	}
	defer sweeper.Stop()

	agent := basicagent.Create_Agent(buildModel(cfg), weather_tools.DefaultTools())

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	// Chat endpoint: streams the assistant's answer as x-ndjson lines.
	router.POST("/chat", func(c *gin.Context) {
		var req models.Chat_Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		threadID := req.Thread_ID
		if threadID == "" {
			threadID = defaultThreadID
		}

		c.Header("Content-Type", "application/x-ndjson")
		c.Header("Cache-Control", "no-cache")

		session := sessions.NewHTTPSession(threadID, &agent, store)
		writer := &ginStreamWriter{c: c}

		userMsg := models.Text_Message(req.Message)
		modelReq := models.Model_Request{User_Message: &userMsg}
		if err := session.RunNDJSONInteraction(modelReq, writer, c.Request.Context()); err != nil {
			// The error event has already been written to the stream.
			session.Logger.Printf("Chat interaction failed: %v", err)
		}
	})

	router.GET("/health", func(c *gin.Context) {
		if err := store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/chat/history/:threadID", func(c *gin.Context) {
		session := sessions.NewHTTPSession(c.Param("threadID"), &agent, store)
		history, err := session.GetChatHistory()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	})

	router.GET("/conversations", func(c *gin.Context) {
		conversations, err := store.ListConversations()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": conversations})
	})

	router.GET("/ws/chat", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req models.Chat_Request
			if err := conn.ReadJSON(&req); err != nil {
				log.Printf("WebSocket read failed: %v", err)
				return
			}
			if req.Message == "" {
				continue
			}
			threadID := req.Thread_ID
			if threadID == "" {
				threadID = defaultThreadID
			}

			session := sessions.NewAgentSession(threadID, conn, &agent, store)
			if err := session.RunInteraction(models.Text_Message(req.Message)); err != nil {
				var agentErr *sessions.AgentError
				if errors.As(err, &agentErr) && agentErr.Fatal {
					return
				}
			}
		}
	})

	router.GET("/", func(c *gin.Context) {
		page, err := webFS.ReadFile("web/index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "chat UI unavailable")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	log.Printf("Weather assistant listening on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

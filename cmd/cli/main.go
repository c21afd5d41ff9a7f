package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	basicagent "github.com/alfmat/basic-agent"
	"github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/models/gemini"
	"github.com/alfmat/basic-agent/models/openai"
	"github.com/alfmat/basic-agent/sessions"
	"github.com/alfmat/basic-agent/stores"
	"github.com/alfmat/basic-agent/weather_tools"
	"github.com/google/uuid"
)

const helpText = `Commands:
  help, h      Show this help
  history      Show the conversation so far
  clear        Start a fresh conversation
  quit, q      Exit

Anything else is sent to the weather assistant. Try:
  What's the weather in Seattle?
  Any alerts for Miami?
  When does the sun set in Denver tonight?`

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

func finalText(response models.Model_Response) string {
	var b strings.Builder
	for _, part := range response.Parts {
		if part.Text != nil {
			b.WriteString(*part.Text)
		}
	}
	return b.String()
}

func printHistory(session *sessions.HTTPSession) {
	history, err := session.GetChatHistory()
	if err != nil {
		fmt.Printf("Failed to load history: %v\n", err)
		return
	}
	if len(history) == 0 {
		fmt.Println("No conversation history yet.")
		return
	}
	for _, msg := range history {
		switch msg.Type {
		case "user_message":
			fmt.Printf("You: %s\n", msg.Text)
		case "model_message":
			fmt.Printf("🤖 Agent: %s\n", msg.Text)
		}
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

	agent := basicagent.Create_Agent(buildModel(cfg), weather_tools.DefaultTools())

	threadID := uuid.New().String()
	session := sessions.NewHTTPSession(threadID, &agent, store)
	session.Logger.SetOutput(os.Stderr)

	fmt.Println("🌤️ Weather Assistant")
	fmt.Println("Type 'help' for commands, 'quit' to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("💬 Ask about the weather... ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Println("👋 Goodbye!")
			return
		case "help", "h":
			fmt.Println(helpText)
			continue
		case "history":
			printHistory(session)
			continue
		case "clear":
			threadID = uuid.New().String()
			session = sessions.NewHTTPSession(threadID, &agent, store)
			session.Logger.SetOutput(os.Stderr)
			fmt.Println("🧹 Conversation history cleared!")
			continue
		}

		userMsg := models.Text_Message(line)
		response, err := session.RunSingleInteraction(models.Model_Request{User_Message: &userMsg})
		if err != nil {
			fmt.Printf("❌ Error: %v\n", err)
			continue
		}
		fmt.Printf("🤖 Agent: %s\n\n", finalText(response))
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("Input error: %v", err)
	}
	fmt.Println("👋 Goodbye!")
}

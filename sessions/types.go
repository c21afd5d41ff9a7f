package sessions

import (
	"log"
	"sync"
	"time"

	"github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/stores"
	"github.com/gorilla/websocket"
)

// AgentError represents errors that can occur during agent operations
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// AgentInterface defines the interface that agents must implement
type AgentInterface interface {
	Run(request models.Model_Request, history []stores.Message) (models.Model_Response, error)
	Run_Stream(request models.Model_Request, history []stores.Message) (<-chan models.Model_Response, <-chan error)
	ExecuteTool(name string, args map[string]interface{}, sessionID string) (string, error)
	ApproveTool(name string, args map[string]interface{}) (bool, error)
}

// StreamWriter receives the line-delimited JSON events of a chat stream.
type StreamWriter interface {
	WriteEvent(event models.StreamEvent) error
	Flush()
}

// HTTPSession handles HTTP-based chat interactions
type HTTPSession struct {
	Agent          AgentInterface
	ConversationID string
	Store          stores.MessageStore
	Logger         *log.Logger
}

// WebSocketWriter handles all WebSocket communication
type WebSocketWriter struct {
	Conn             *websocket.Conn
	Logger           *log.Logger
	StartTime        time.Time
	FirstTokenTime   *time.Time
	FirstTokenLogged bool
	mu               sync.Mutex
}

func (w *WebSocketWriter) WriteResponse(resp interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Track time to first token
	if !w.FirstTokenLogged && w.FirstTokenTime == nil && !w.StartTime.IsZero() {
		now := time.Now()
		w.FirstTokenTime = &now
		w.Logger.Printf("Time to first token: %v", now.Sub(w.StartTime))
		w.FirstTokenLogged = true
	}
	return w.Conn.WriteJSON(resp)
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"error": message})
}

func (w *WebSocketWriter) WriteDone() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"type": "done"})
}

// AgentSession encapsulates WebSocket agent interaction logic
type AgentSession struct {
	Agent     AgentInterface
	SessionID string
	Writer    *WebSocketWriter
	Store     stores.MessageStore
	Logger    *log.Logger
}

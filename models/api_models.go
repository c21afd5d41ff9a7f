package models

import "time"

// ChatMessageResponse defines the structure for messages returned by the chat history API endpoint.
// It excludes internal DB fields like gorm.Model but includes necessary identifiers and timestamps.
type ChatMessageResponse struct {
	ID             uint        `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	ConversationID string      `json:"conversation_id"`
	Sequence       int         `json:"sequence"`
	Role           string      `json:"role"`                  // "user", "model"
	Type           string      `json:"type"`                  // "user_message", "model_message", "function_call", "function_response"
	FunctionID     string      `json:"function_id,omitempty"` // Associated function call ID
	Text           string      `json:"text,omitempty"`        // Primary text content, extracted from parts
	Parts          interface{} `json:"parts,omitempty"`       // Unmarshalled parts array
}

// StreamEvent is one line of the x-ndjson chat stream. Exactly one of
// the fields is set per line; Done terminates the stream.
type StreamEvent struct {
	Content  string        `json:"content,omitempty"`
	ToolCall *FunctionCall `json:"tool_call,omitempty"`
	Error    string        `json:"error,omitempty"`
	Done     bool          `json:"done,omitempty"`
}

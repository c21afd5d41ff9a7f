package openai

import "github.com/alfmat/basic-agent/models"

// OpenAI chat-completions wire types.

// Request types

type ChatRequest struct {
	Model       string      `json:"model"`
	Messages    []Message   `json:"messages"`
	Tools       []Tool      `json:"tools,omitempty"`
	ToolChoice  interface{} `json:"tool_choice,omitempty"` // "auto", "none", or specific tool
	Stream      bool        `json:"stream,omitempty"`
	MaxTokens   *int        `json:"max_tokens,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
}

type Message struct {
	Role       string     `json:"role"`              // "system", "user", "assistant", "tool"
	Content    *string    `json:"content,omitempty"` // always plain text here
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For assistant messages with tool calls
	ToolCallID *string    `json:"tool_call_id,omitempty"` // For tool response messages
}

type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"` // JSON Schema object
}

type ToolCall struct {
	Index    *int             `json:"index,omitempty"` // Position in the stream, set on deltas
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// Response types

type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message,omitempty"`       // For non-streaming
	Delta        *Message `json:"delta,omitempty"`         // For streaming
	FinishReason *string  `json:"finish_reason,omitempty"` // "stop", "tool_calls", "length", etc.
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Streaming response (Server-Sent Events format)
type StreamResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion.chunk"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Error response
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Param   interface{} `json:"param,omitempty"`
	Code    interface{} `json:"code,omitempty"`
}

// SanitizedParameters ensures the parameters object has proper structure.
// The API requires properties to be an object (not null) and required to
// be an array (not null).
type SanitizedParameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// ConvertToOpenAITool converts a FunctionDeclaration to the OpenAI tool format.
func ConvertToOpenAITool(fd models.FunctionDeclaration) Tool {
	sanitizedParams := SanitizedParameters{
		Type:       fd.Parameters.Type,
		Properties: fd.Parameters.Properties,
		Required:   fd.Parameters.Required,
	}
	if sanitizedParams.Properties == nil {
		sanitizedParams.Properties = make(map[string]interface{})
	}
	if sanitizedParams.Required == nil {
		sanitizedParams.Required = []string{}
	}
	if sanitizedParams.Type == "" {
		sanitizedParams.Type = "object"
	}

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        fd.Name,
			Description: fd.Description,
			Parameters:  sanitizedParams,
		},
	}
}

// ConvertToOpenAITools converts multiple FunctionDeclarations to OpenAI tools.
func ConvertToOpenAITools(fds []models.FunctionDeclaration) []Tool {
	tools := make([]Tool, len(fds))
	for i, fd := range fds {
		tools[i] = ConvertToOpenAITool(fd)
	}
	return tools
}

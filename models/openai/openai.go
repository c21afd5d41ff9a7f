package openai

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	models "github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/stores"
	"github.com/joho/godotenv"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1/chat/completions"
	DefaultModel  = "gpt-4o-mini"
)

func init() {
	// Load .env file if it exists (not present in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

// OpenAI_Model implements the Model interface for the OpenAI
// chat-completions API. Also works against any OpenAI-compatible
// endpoint via BaseURL.
type OpenAI_Model struct {
	Model        string // Model identifier (e.g. "gpt-4o-mini")
	Temperature  *float64
	MaxTokens    *int
	SystemPrompt string // Optional: system prompt for the assistant
	BaseURL      string // Optional: custom API base URL
	APIKeyEnv    string // Optional: env var holding the API key (defaults to OPENAI_API_KEY)
}

// Model_Request implements the Model interface
func (o *OpenAI_Model) Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (models.Model_Response, error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		return models.Model_Response{}, fmt.Errorf("request must contain either user message or tool results")
	}

	var msg models.User_Message
	if request.User_Message != nil {
		msg = *request.User_Message
	}

	modelToUse := o.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}

	chatResponse, err := o.makeRequest(modelToUse, msg, tools, request.Tool_Results, conversationHistory)
	if err != nil {
		return models.Model_Response{}, err
	}

	return o.chatResponseToModelResponse(chatResponse)
}

// Stream_Model_Request implements the Model interface for streaming
func (o *OpenAI_Model) Stream_Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		errChan := make(chan error, 1)
		respChan := make(chan models.Model_Response)
		errChan <- fmt.Errorf("request must contain either user message or tool results")
		close(errChan)
		close(respChan)
		return respChan, errChan
	}

	var msg models.User_Message
	if request.User_Message != nil {
		msg = *request.User_Message
	}

	modelToUse := o.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}

	return o.makeStreamRequest(modelToUse, msg, tools, request.Tool_Results, conversationHistory)
}

// chatResponseToModelResponse converts an API response to the standard Model_Response
func (o *OpenAI_Model) chatResponseToModelResponse(response ChatResponse) (models.Model_Response, error) {
	modelResponse := models.Model_Response{}

	for _, choice := range response.Choices {
		if choice.Message.Content != nil && *choice.Message.Content != "" {
			text := *choice.Message.Content
			modelResponse.Parts = append(modelResponse.Parts, models.Model_Part{
				Text: &text,
			})
		}

		for _, toolCall := range choice.Message.ToolCalls {
			if toolCall.Type == "function" {
				var args map[string]interface{}
				if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
					log.Printf("Warning: Failed to unmarshal tool call arguments: %v", err)
					args = map[string]interface{}{}
				}

				modelResponse.Parts = append(modelResponse.Parts, models.Model_Part{
					FunctionCall: &models.FunctionCall{
						ID:   toolCall.ID,
						Name: toolCall.Function.Name,
						Args: args,
					},
				})
			}
		}
	}

	return modelResponse, nil
}

// makeRequest sends a non-streaming request
func (o *OpenAI_Model) makeRequest(model string, message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message) (ChatResponse, error) {
	requestBody, err := o.createChatRequest(model, message, tools, toolResults, conversationHistory, false)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to create chat request: %w", err)
	}

	jsonBytes, err := json.Marshal(requestBody)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest("POST", o.baseURL(), bytes.NewReader(jsonBytes))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	o.setHeaders(req)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return ChatResponse{}, fmt.Errorf("OpenAI API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return ChatResponse{}, fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ChatResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return response, nil
}

// makeStreamRequest sends a streaming request
func (o *OpenAI_Model) makeStreamRequest(model string, message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		requestBody, err := o.createChatRequest(model, message, tools, toolResults, conversationHistory, true)
		if err != nil {
			errChan <- fmt.Errorf("failed to create chat request: %w", err)
			return
		}

		jsonBytes, err := json.Marshal(requestBody)
		if err != nil {
			errChan <- fmt.Errorf("failed to marshal request body: %w", err)
			return
		}

		req, err := http.NewRequest("POST", o.baseURL(), bytes.NewReader(jsonBytes))
		if err != nil {
			errChan <- fmt.Errorf("failed to create HTTP request: %w", err)
			return
		}

		o.setHeaders(req)

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			errChan <- fmt.Errorf("HTTP request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var errResp ErrorResponse
			if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
				errChan <- fmt.Errorf("OpenAI API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			} else {
				errChan <- fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(body))
			}
			return
		}

		// Track accumulated tool calls across stream chunks
		toolCallAccumulator := make(map[int]*ToolCall)

		flushToolCalls := func() {
			if len(toolCallAccumulator) == 0 {
				return
			}
			modelResp := models.Model_Response{}
			for _, tc := range toolCallAccumulator {
				var args map[string]interface{}
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					log.Printf("Warning: Failed to unmarshal final tool call arguments: %v", err)
					args = map[string]interface{}{}
				}
				modelResp.Parts = append(modelResp.Parts, models.Model_Part{
					FunctionCall: &models.FunctionCall{
						ID:   tc.ID,
						Name: tc.Function.Name,
						Args: args,
					},
				})
			}
			respChan <- modelResp
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					flushToolCalls()
					return
				}
				errChan <- fmt.Errorf("error reading stream: %w", err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Handle SSE format
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				flushToolCalls()
				return
			}

			var streamResp StreamResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				log.Printf("Warning: Failed to unmarshal stream chunk: %v, data: %s", err, data)
				continue
			}

			for _, choice := range streamResp.Choices {
				if choice.Delta == nil {
					continue
				}

				// Handle text delta
				if choice.Delta.Content != nil && *choice.Delta.Content != "" {
					text := *choice.Delta.Content
					respChan <- models.Model_Response{
						Parts: []models.Model_Part{{Text: &text}},
					}
				}

				// Handle tool call deltas (accumulate by stream index)
				for i, toolCall := range choice.Delta.ToolCalls {
					idx := i
					if toolCall.Index != nil {
						idx = *toolCall.Index
					}
					if existing, ok := toolCallAccumulator[idx]; ok {
						existing.Function.Arguments += toolCall.Function.Arguments
					} else {
						toolCallAccumulator[idx] = &ToolCall{
							ID:   toolCall.ID,
							Type: toolCall.Type,
							Function: ToolCallFunction{
								Name:      toolCall.Function.Name,
								Arguments: toolCall.Function.Arguments,
							},
						}
					}
				}
			}
		}
	}()

	return respChan, errChan
}

func (o *OpenAI_Model) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return OpenAIBaseURL
}

// setHeaders sets the required headers for API requests
func (o *OpenAI_Model) setHeaders(req *http.Request) {
	apiKeyEnv := o.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(apiKeyEnv)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// createChatRequest builds the request body
func (o *OpenAI_Model) createChatRequest(model string, message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message, stream bool) (ChatRequest, error) {
	messages := []Message{}

	// Add system prompt as first message if provided
	if o.SystemPrompt != "" {
		prompt := o.SystemPrompt
		messages = append(messages, Message{
			Role:    "system",
			Content: &prompt,
		})
	}

	// The current round's tool results were already persisted, so the
	// same function responses appear in history too. Skip those history
	// entries to keep one tool message per call id.
	currentToolIDs := map[string]bool{}
	if toolResults != nil {
		for _, tr := range *toolResults {
			currentToolIDs[tr.Tool_ID] = true
		}
	}

	// 1. Process conversation history
	for _, histMsg := range conversationHistory {
		msg, err := convertHistoryMessage(histMsg)
		if err != nil {
			log.Printf("Warning: Failed to convert history message %d: %v", histMsg.ID, err)
			continue
		}
		if msg == nil {
			continue
		}
		if msg.Role == "tool" && msg.ToolCallID != nil && currentToolIDs[*msg.ToolCallID] {
			continue
		}
		messages = append(messages, *msg)
	}

	// 2. Handle tool results for the current turn
	if toolResults != nil && len(*toolResults) > 0 {
		for _, tr := range *toolResults {
			// Tool results require the originating tool_call_id
			toolCallID := tr.Tool_ID
			output := tr.Tool_Output
			messages = append(messages, Message{
				Role:       "tool",
				Content:    &output,
				ToolCallID: &toolCallID,
			})
		}
	} else {
		// 3. Process current user message only if no tool results
		if text := joinUserText(message.Content.Parts); text != "" {
			messages = append(messages, Message{
				Role:    "user",
				Content: &text,
			})
		}
	}

	if len(messages) == 0 {
		return ChatRequest{}, fmt.Errorf("cannot create chat request with no messages")
	}

	request := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}

	if len(tools) > 0 {
		request.Tools = ConvertToOpenAITools(tools)
		request.ToolChoice = "auto"
	}

	if o.Temperature != nil {
		request.Temperature = o.Temperature
	}
	if o.MaxTokens != nil {
		request.MaxTokens = o.MaxTokens
	}

	return request, nil
}

// convertHistoryMessage converts a stored message to the wire Message format
func convertHistoryMessage(histMsg stores.Message) (*Message, error) {
	if histMsg.PartsJSON == "" || histMsg.PartsJSON == "{}" || histMsg.PartsJSON == "null" {
		return nil, nil
	}

	switch histMsg.Role {
	case "user":
		var userParts []models.User_Part
		if err := json.Unmarshal([]byte(histMsg.PartsJSON), &userParts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user parts: %w", err)
		}

		// A stored function response becomes a tool message
		for _, part := range userParts {
			if part.FunctionResponse != nil {
				toolCallID := part.FunctionResponse.ID
				responseBytes, _ := json.Marshal(part.FunctionResponse.Response)
				content := string(responseBytes)
				return &Message{
					Role:       "tool",
					Content:    &content,
					ToolCallID: &toolCallID,
				}, nil
			}
		}

		text := joinUserText(userParts)
		if text == "" {
			return nil, nil
		}
		return &Message{
			Role:    "user",
			Content: &text,
		}, nil

	case "model":
		var modelParts []models.Model_Part
		if err := json.Unmarshal([]byte(histMsg.PartsJSON), &modelParts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model parts: %w", err)
		}

		msg := &Message{Role: "assistant"}

		var textContent strings.Builder
		var toolCalls []ToolCall

		for _, part := range modelParts {
			if part.Text != nil && *part.Text != "" {
				textContent.WriteString(*part.Text)
			}
			if part.FunctionCall != nil {
				argsBytes, _ := json.Marshal(part.FunctionCall.Args)
				toolCalls = append(toolCalls, ToolCall{
					ID:   part.FunctionCall.ID,
					Type: "function",
					Function: ToolCallFunction{
						Name:      part.FunctionCall.Name,
						Arguments: string(argsBytes),
					},
				})
			}
		}

		if textContent.Len() > 0 {
			text := textContent.String()
			msg.Content = &text
		}
		if len(toolCalls) > 0 {
			msg.ToolCalls = toolCalls
		}

		if msg.Content == nil && len(msg.ToolCalls) == 0 {
			return nil, nil
		}
		return msg, nil
	}

	return nil, fmt.Errorf("unknown role: %s", histMsg.Role)
}

func joinUserText(parts []models.User_Part) string {
	var texts []string
	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

package sessions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfmat/basic-agent/models"
)

// maxToolIterations caps the model/tool round trips per interaction so a
// confused model cannot loop forever.
const maxToolIterations = 8

// RunSingleInteraction handles a complete request-response cycle,
// executing tools and feeding results back until the model produces a
// text-only answer.
func (s *HTTPSession) RunSingleInteraction(request models.Model_Request) (models.Model_Response, error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		return models.Model_Response{}, fmt.Errorf("request must contain either user message or tool results")
	}

	currentReq := request
	var finalResponse models.Model_Response

	for iteration := 1; ; iteration++ {
		s.Logger.Printf("=== Iteration %d ===", iteration)

		// Save user message if present (only on first iteration)
		if currentReq.User_Message != nil {
			if err := s.saveUserMessage(*currentReq.User_Message); err != nil {
				s.Logger.Printf("Error saving user message: %v", err)
			}
		}

		history, err := s.Store.FetchHistory(s.ConversationID, 0)
		if err != nil {
			return models.Model_Response{}, fmt.Errorf("failed to fetch history: %w", err)
		}

		response, err := s.Agent.Run(currentReq, history)
		if err != nil {
			return models.Model_Response{}, fmt.Errorf("agent error: %w", err)
		}

		toolResults, executed, err := s.processResponseForTools(response)
		if err != nil {
			return models.Model_Response{}, fmt.Errorf("error processing tools: %w", err)
		}

		if !executed {
			finalResponse = response
			break
		}
		if iteration >= maxToolIterations {
			s.Logger.Printf("Iteration cap reached after %d rounds, stopping", iteration)
			finalResponse = response
			break
		}

		currentReq = models.Model_Request{
			User_Message: nil,
			Tool_Results: &toolResults,
		}
	}

	return finalResponse, nil
}

// RunStreamInteraction handles a streaming interaction. Text deltas are
// forwarded on the returned channel as they arrive; tool rounds happen
// between model streams. Cancelling ctx stops the loop and releases the
// producer goroutine even when the caller stops reading.
func (s *HTTPSession) RunStreamInteraction(request models.Model_Request, ctx context.Context) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		if request.User_Message == nil && request.Tool_Results == nil {
			errChan <- fmt.Errorf("request must contain either user message or tool results")
			return
		}

		currentReq := request

		for iteration := 1; ; iteration++ {
			// Save user message if present (only on first iteration)
			if currentReq.User_Message != nil {
				if err := s.saveUserMessage(*currentReq.User_Message); err != nil {
					s.Logger.Printf("Error saving user message: %v", err)
				}
			}

			history, err := s.Store.FetchHistory(s.ConversationID, 0)
			if err != nil {
				errChan <- fmt.Errorf("failed to fetch history: %w", err)
				return
			}

			agentRespChan, agentErrChan := s.Agent.Run_Stream(currentReq, history)

			var iterationParts []models.Model_Part

			// Forward stream responses and accumulate parts for this iteration
			for agentRespChan != nil || agentErrChan != nil {
				select {
				case response, ok := <-agentRespChan:
					if !ok {
						agentRespChan = nil
						continue
					}
					iterationParts = append(iterationParts, response.Parts...)
					select {
					case respChan <- response:
					case <-ctx.Done():
						go drainModelStream(agentRespChan, agentErrChan)
						return
					}

				case err, ok := <-agentErrChan:
					if ok && err != nil {
						errChan <- err
						return
					}
					if !ok {
						agentErrChan = nil
					}

				case <-ctx.Done():
					go drainModelStream(agentRespChan, agentErrChan)
					return
				}
			}

			if len(iterationParts) == 0 {
				return
			}

			iterationResponse := models.Model_Response{Parts: iterationParts}
			toolResults, executed, err := s.processResponseForTools(iterationResponse)
			if err != nil {
				errChan <- fmt.Errorf("error processing tools: %w", err)
				return
			}

			if !executed {
				return
			}
			if iteration >= maxToolIterations {
				s.Logger.Printf("Iteration cap reached after %d rounds, stopping", iteration)
				return
			}

			currentReq = models.Model_Request{
				User_Message: nil,
				Tool_Results: &toolResults,
			}
		}
	}()

	return respChan, errChan
}

// drainModelStream consumes a model stream that no longer has a reader
// so its producer goroutine can exit.
func drainModelStream(respChan <-chan models.Model_Response, errChan <-chan error) {
	for respChan != nil || errChan != nil {
		select {
		case _, ok := <-respChan:
			if !ok {
				respChan = nil
			}
		case _, ok := <-errChan:
			if !ok {
				errChan = nil
			}
		}
	}
}

// RunNDJSONInteraction drives a full streaming interaction and writes
// each event as one JSON line to the writer. Returns when the stream
// completes, fails, or the client disconnects.
func (s *HTTPSession) RunNDJSONInteraction(request models.Model_Request, writer StreamWriter, ctx context.Context) error {
	respChan, errChan := s.RunStreamInteraction(request, ctx)

	writeEvent := func(event models.StreamEvent) error {
		if err := writer.WriteEvent(event); err != nil {
			s.Logger.Printf("Error writing to stream: %v", err)
			return err
		}
		writer.Flush()
		return nil
	}

	for respChan != nil || errChan != nil {
		select {
		case response, ok := <-respChan:
			if !ok {
				respChan = nil
				continue
			}
			for _, part := range response.Parts {
				if part.Text != nil && *part.Text != "" {
					if err := writeEvent(models.StreamEvent{Content: *part.Text}); err != nil {
						return err
					}
				}
				if part.FunctionCall != nil {
					if err := writeEvent(models.StreamEvent{ToolCall: part.FunctionCall}); err != nil {
						return err
					}
				}
			}

		case err, ok := <-errChan:
			if ok && err != nil {
				s.Logger.Printf("Stream error: %v", err)
				if writeErr := writer.WriteEvent(models.StreamEvent{Error: err.Error()}); writeErr != nil {
					s.Logger.Printf("Error writing stream error: %v", writeErr)
				}
				writer.Flush()
				return err
			}
			if !ok {
				errChan = nil
			}

		case <-ctx.Done():
			s.Logger.Printf("Client disconnected")
			return ctx.Err()
		}
	}

	return writeEvent(models.StreamEvent{Done: true})
}

// saveUserMessage saves user message to store
func (s *HTTPSession) saveUserMessage(userMessage models.User_Message) error {
	userPartsToSave := make([]models.User_Part, 0)
	for _, part := range userMessage.Content.Parts {
		userPartsToSave = append(userPartsToSave, part)
	}
	return s.Store.SaveMessage(s.ConversationID, "user", "user_message", userPartsToSave, "")
}

// processResponseForTools saves the model response, executes any
// auto-approved tool calls, and returns their results for the next
// round.
func (s *HTTPSession) processResponseForTools(response models.Model_Response) ([]models.Tool_Result, bool, error) {
	if len(response.Parts) == 0 {
		return nil, false, nil
	}

	toolResults := []models.Tool_Result{}
	executedAny := false

	msgType := "model_message"
	var functionID string
	functionCalls := []struct {
		Name string
		Args map[string]interface{}
		ID   string
	}{}

	// Extract all function calls from parts
	for i, part := range response.Parts {
		if part.FunctionCall != nil {
			msgType = "function_call"
			if functionID == "" {
				functionID = fmt.Sprintf("func_%s_%d", part.FunctionCall.Name, i)
			}

			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("func_%s_%d", part.FunctionCall.Name, i)
			}

			functionCalls = append(functionCalls, struct {
				Name string
				Args map[string]interface{}
				ID   string
			}{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
				ID:   id,
			})
		}
	}

	// Save the model response first
	if err := s.Store.SaveMessage(s.ConversationID, "model", msgType, response.Parts, functionID); err != nil {
		return nil, false, fmt.Errorf("failed to save model response: %w", err)
	}

	// Process each function call
	for _, fc := range functionCalls {
		autoApproved, err := s.Agent.ApproveTool(fc.Name, fc.Args)
		if err != nil {
			s.Logger.Printf("Error checking tool approval for %s: %v", fc.Name, err)
			continue
		}
		if !autoApproved {
			s.Logger.Printf("Tool %s is not auto-approved, skipping", fc.Name)
			continue
		}

		s.Logger.Printf("Tool %s is auto-approved. Executing...", fc.Name)
		toolResult, err := s.Agent.ExecuteTool(fc.Name, fc.Args, s.ConversationID)
		if err != nil {
			// toolResult still carries the {"error": ...} payload; feed it
			// back so the model can explain the failure.
			s.Logger.Printf("Tool execution error for %s: %v", fc.Name, err)
		}

		// Save tool result to database
		var resultMap map[string]interface{}
		if err := json.Unmarshal([]byte(toolResult), &resultMap); err != nil {
			resultMap = map[string]interface{}{"raw_output": toolResult}
		}

		toolResponsePart := models.User_Part{
			FunctionResponse: &models.FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: resultMap,
			},
		}

		if err := s.Store.SaveMessage(s.ConversationID, "user", "function_response", []models.User_Part{toolResponsePart}, fc.ID); err != nil {
			s.Logger.Printf("Failed to save tool result for %s: %v", fc.Name, err)
		}

		toolResults = append(toolResults, models.Tool_Result{
			Tool_ID:     fc.ID,
			Tool_Name:   fc.Name,
			Tool_Output: toolResult,
		})
		executedAny = true
	}

	return toolResults, executedAny, nil
}

// GetChatHistory retrieves and converts chat history to API response format
func (s *HTTPSession) GetChatHistory() ([]models.ChatMessageResponse, error) {
	dbHistory, err := s.Store.FetchHistory(s.ConversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	apiHistory := make([]models.ChatMessageResponse, 0, len(dbHistory))
	for _, msg := range dbHistory {
		apiMsg := models.ChatMessageResponse{
			ID:             msg.ID,
			CreatedAt:      msg.CreatedAt,
			UpdatedAt:      msg.UpdatedAt,
			ConversationID: msg.ConversationID,
			Sequence:       msg.Sequence,
			Role:           msg.Role,
			Type:           msg.Type,
			FunctionID:     msg.FunctionID,
		}

		// Unmarshal PartsJSON and extract text content
		if msg.PartsJSON != "" && msg.PartsJSON != "{}" && msg.PartsJSON != "null" {
			var unmarshalledParts interface{}
			if err := json.Unmarshal([]byte(msg.PartsJSON), &unmarshalledParts); err != nil {
				s.Logger.Printf("Error unmarshalling PartsJSON for msg ID %d: %v", msg.ID, err)
			} else {
				apiMsg.Parts = unmarshalledParts

				if msg.Type == "user_message" {
					var userParts []models.User_Part
					if err := json.Unmarshal([]byte(msg.PartsJSON), &userParts); err == nil {
						for _, p := range userParts {
							apiMsg.Text += p.Text
						}
					}
				} else if msg.Type == "model_message" {
					var modelParts []models.Model_Part
					if err := json.Unmarshal([]byte(msg.PartsJSON), &modelParts); err == nil {
						for _, p := range modelParts {
							if p.Text != nil {
								apiMsg.Text += *p.Text
							}
						}
					}
				}
			}
		}

		apiHistory = append(apiHistory, apiMsg)
	}

	return apiHistory, nil
}

package sessions

import (
	"context"
	"time"

	"github.com/alfmat/basic-agent/models"
)

// RunInteraction processes one user message over the WebSocket,
// streaming events to the client until the turn completes.
func (as *AgentSession) RunInteraction(userMessage models.User_Message) error {
	as.Writer.StartTime = time.Now()
	as.Writer.FirstTokenTime = nil
	as.Writer.FirstTokenLogged = false

	// The tool loop is identical to the HTTP path; only the transport differs.
	httpSession := &HTTPSession{
		Agent:          as.Agent,
		ConversationID: as.SessionID,
		Store:          as.Store,
		Logger:         as.Logger,
	}

	// Cancel on return so a failed write doesn't strand the producer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := models.Model_Request{User_Message: &userMessage}
	respChan, errChan := httpSession.RunStreamInteraction(req, ctx)

	for respChan != nil || errChan != nil {
		select {
		case response, ok := <-respChan:
			if !ok {
				respChan = nil
				continue
			}
			for _, part := range response.Parts {
				if part.Text != nil && *part.Text != "" {
					if err := as.Writer.WriteResponse(models.StreamEvent{Content: *part.Text}); err != nil {
						as.Logger.Printf("Error writing to WebSocket: %v", err)
						return &AgentError{Message: err.Error(), Fatal: true}
					}
				}
				if part.FunctionCall != nil {
					if err := as.Writer.WriteResponse(models.StreamEvent{ToolCall: part.FunctionCall}); err != nil {
						as.Logger.Printf("Error writing tool call to WebSocket: %v", err)
						return &AgentError{Message: err.Error(), Fatal: true}
					}
				}
			}

		case err, ok := <-errChan:
			if ok && err != nil {
				as.Logger.Printf("Interaction error: %v", err)
				if writeErr := as.Writer.WriteError(err.Error()); writeErr != nil {
					return &AgentError{Message: writeErr.Error(), Fatal: true}
				}
				return &AgentError{Message: err.Error(), Fatal: false}
			}
			if !ok {
				errChan = nil
			}
		}
	}

	if err := as.Writer.WriteDone(); err != nil {
		return &AgentError{Message: err.Error(), Fatal: true}
	}
	return nil
}

package gemini

import (
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

const DefaultModel = "gemini-2.0-flash"

func init() {
	// Load .env file if it exists (not present in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

// Gemini_Model implements the Model interface over the raw Gemini REST
// API, text and function calling only.
type Gemini_Model struct {
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	BaseURL      string `json:"-"` // Optional override, used by tests
}

func (g *Gemini_Model) Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (models.Model_Response, error) {
	if request.User_Message == nil && request.Tool_Results == nil {
		return models.Model_Response{}, fmt.Errorf("request must contain either user message or tool results")
	}

	var msg models.User_Message
	if request.User_Message != nil {
		msg = *request.User_Message
	}

	modelToUse := g.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}
	geminiResponse, err := g.model_request(modelToUse, msg, tools, request.Tool_Results, conversationHistory)
	if err != nil {
		return models.Model_Response{}, err
	}
	return g.gemini_response_to_model_response(geminiResponse)
}

func (g *Gemini_Model) gemini_response_to_model_response(response Gemini_response) (models.Model_Response, error) {
	modelResponse := models.Model_Response{}
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			var modelPart models.Model_Part
			if part.Text != nil && *part.Text != "" {
				modelPart.Text = part.Text
			}
			if part.FunctionCall != nil {
				modelPart.FunctionCall = &models.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}
			}
			modelResponse.Parts = append(modelResponse.Parts, modelPart)
		}
	}
	return modelResponse, nil
}

func convertStream(g *Gemini_Model, geminiResponseChan <-chan Gemini_response, geminiErrChan <-chan error) (<-chan models.Model_Response, <-chan error) {
	modelResponseChan := make(chan models.Model_Response)
	finalErrChan := make(chan error, 1)

	go func() {
		defer close(modelResponseChan)
		defer close(finalErrChan)

		for {
			select {
			case geminiResp, ok := <-geminiResponseChan:
				if !ok {
					return
				}
				modelResp, err := g.gemini_response_to_model_response(geminiResp)
				if err != nil {
					finalErrChan <- fmt.Errorf("error converting gemini response: %w", err)
					return
				}
				modelResponseChan <- modelResp

			case geminiErr, ok := <-geminiErrChan:
				if ok && geminiErr != nil {
					finalErrChan <- geminiErr
					return
				}
				if !ok {
					geminiErrChan = nil
				}
			}

			if geminiResponseChan == nil && geminiErrChan == nil {
				return
			}
		}
	}()

	return modelResponseChan, finalErrChan
}

func (g *Gemini_Model) Stream_Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
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

	modelToUse := g.Model
	if modelToUse == "" {
		modelToUse = DefaultModel
	}
	geminiRespChan, geminiErrChan := g.stream_model_request(modelToUse, msg, tools, request.Tool_Results, conversationHistory)
	return convertStream(g, geminiRespChan, geminiErrChan)
}

func (g *Gemini_Model) model_request(model string, message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message) (Gemini_response, error) {
	request_body, err := create_gemini_request(message, tools, toolResults, conversationHistory, g.SystemPrompt)
	if err != nil {
		return Gemini_response{}, fmt.Errorf("failed to create gemini request: %w", err)
	}
	jsonBytes, err := json.Marshal(request_body)
	if err != nil {
		return Gemini_response{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	return g.make_request(string(jsonBytes), model)
}

func (g *Gemini_Model) stream_model_request(model string, message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message) (<-chan Gemini_response, <-chan error) {
	request_body, err := create_gemini_request(message, tools, toolResults, conversationHistory, g.SystemPrompt)
	if err != nil {
		errChan := make(chan error, 1)
		errChan <- fmt.Errorf("failed to create gemini stream request body: %w", err)
		close(errChan)
		respChan := make(chan Gemini_response)
		close(respChan)
		return respChan, errChan
	}

	jsonBytes, err := json.Marshal(request_body)
	if err != nil {
		errChan := make(chan error, 1)
		errChan <- fmt.Errorf("failed to marshal stream request body: %w", err)
		close(errChan)
		respChan := make(chan Gemini_response)
		close(respChan)
		return respChan, errChan
	}

	return g.make_request_stream(string(jsonBytes), model)
}

func (g *Gemini_Model) baseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return "https://generativelanguage.googleapis.com"
}

func (g *Gemini_Model) make_request(request_body string, model string) (Gemini_response, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL(), model, os.Getenv("GEMINI_API_KEY"))
	resp, err := http.Post(url, "application/json", strings.NewReader(request_body))
	if err != nil {
		return Gemini_response{}, fmt.Errorf("error making POST request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Gemini_response{}, fmt.Errorf("error reading body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Gemini_response{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var response Gemini_response
	if err := json.Unmarshal(body, &response); err != nil {
		return Gemini_response{}, fmt.Errorf("error unmarshalling response: %w", err)
	}

	return response, nil
}

func (g *Gemini_Model) make_request_stream(request_body string, model string) (<-chan Gemini_response, <-chan error) {
	resChan := make(chan Gemini_response)
	errChan := make(chan error, 1)

	go func() {
		defer close(resChan)
		defer close(errChan)

		url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?key=%s", g.baseURL(), model, os.Getenv("GEMINI_API_KEY"))
		resp, err := http.Post(url, "application/json", strings.NewReader(request_body))
		if err != nil {
			errChan <- fmt.Errorf("error making POST request: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			errChan <- fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
			return
		}

		// The stream is a JSON array of response objects; decode them one
		// at a time as they arrive.
		decoder := json.NewDecoder(resp.Body)

		t, err := decoder.Token()
		if err != nil {
			errChan <- fmt.Errorf("error reading opening bracket: %w", err)
			return
		}
		if delim, ok := t.(json.Delim); !ok || delim != '[' {
			remainingBody, _ := io.ReadAll(io.MultiReader(decoder.Buffered(), resp.Body))
			errChan <- fmt.Errorf("expected '[' at start of stream, got %T: %v. Body: %s", t, t, string(remainingBody))
			return
		}

		for decoder.More() {
			var response Gemini_response
			if err := decoder.Decode(&response); err != nil {
				errChan <- fmt.Errorf("error decoding JSON object in stream: %w", err)
				return
			}
			resChan <- response
		}

		t, err = decoder.Token()
		if err != nil && err != io.EOF {
			errChan <- fmt.Errorf("error reading closing bracket: %w", err)
			return
		}
		if err != io.EOF {
			if delim, ok := t.(json.Delim); !ok || delim != ']' {
				errChan <- fmt.Errorf("expected ']' at end of stream, got %T: %v", t, t)
				return
			}
		}
	}()

	return resChan, errChan
}

// create_gemini_request turns a User_Message plus history into the
// Gemini request body.
func create_gemini_request(message models.User_Message, tools []models.FunctionDeclaration, toolResults *[]models.Tool_Result, conversationHistory []stores.Message, systemPrompt string) (Gemini_Request_Body, error) {

	allContents := []Gemini_Content{}

	// 1. Process conversation history
	for _, histMsg := range conversationHistory {
		role := histMsg.Role
		var historyParts []Request_Part

		if histMsg.PartsJSON == "" || histMsg.PartsJSON == "{}" || histMsg.PartsJSON == "null" {
			continue
		}

		if role == "user" {
			var userParts []models.User_Part
			if err := json.Unmarshal([]byte(histMsg.PartsJSON), &userParts); err != nil {
				log.Printf("Warning: Failed to unmarshal PartsJSON for user history message %d: %v", histMsg.ID, err)
				continue
			}
			historyParts = make([]Request_Part, len(userParts))
			for i, p := range userParts {
				historyParts[i] = Request_Part{
					Text:             p.Text,
					FunctionResponse: p.FunctionResponse,
				}
			}
		} else if role == "model" {
			var modelParts []models.Model_Part
			if err := json.Unmarshal([]byte(histMsg.PartsJSON), &modelParts); err != nil {
				log.Printf("Warning: Failed to unmarshal PartsJSON for model history message %d: %v", histMsg.ID, err)
				continue
			}
			historyParts = make([]Request_Part, len(modelParts))
			for i, p := range modelParts {
				var textContent string
				if p.Text != nil {
					textContent = *p.Text
				}
				historyParts[i] = Request_Part{
					Text:         textContent,
					FunctionCall: p.FunctionCall,
				}
			}
		} else {
			log.Printf("Warning: Unknown role '%s' for history message %d. Cannot unmarshal parts.", role, histMsg.ID)
			continue
		}

		if len(historyParts) > 0 {
			allContents = append(allContents, Gemini_Content{
				Role:  role,
				Parts: historyParts,
			})
		}
	}

	// 2. Handle tool results provided for the current turn
	if toolResults != nil && len(*toolResults) > 0 {
		for _, tr := range *toolResults {
			var respMap map[string]interface{}
			if err := json.Unmarshal([]byte(tr.Tool_Output), &respMap); err != nil {
				respMap = map[string]interface{}{"output": tr.Tool_Output}
			}
			toolResponsePart := Request_Part{FunctionResponse: &models.FunctionResponse{ID: tr.Tool_ID, Name: tr.Tool_Name, Response: respMap}}
			// Function responses always get the 'user' role
			allContents = append(allContents, Gemini_Content{
				Role:  "user",
				Parts: []Request_Part{toolResponsePart},
			})
		}
	} else {
		// 3. Process the current user message only if no tool results
		currentUserParts := []Request_Part{}
		for _, part := range message.Content.Parts {
			if part.FunctionResponse != nil {
				log.Printf("Warning: Skipping FunctionResponse found in input User_Message parts; should be handled via toolResults or history.")
				continue
			}
			if part.Text != "" {
				currentUserParts = append(currentUserParts, Request_Part{Text: part.Text})
			}
		}

		if len(currentUserParts) > 0 {
			allContents = append(allContents, Gemini_Content{
				Role:  "user",
				Parts: currentUserParts,
			})
		}
	}

	if len(allContents) == 0 {
		return Gemini_Request_Body{}, fmt.Errorf("cannot create Gemini request with no content (history, tool results, or user message)")
	}

	// 4. Prepare tools
	gemini_tools := []Gemini_Tools{}
	if len(tools) > 0 {
		gemini_tools = append(gemini_tools, Gemini_Tools{FunctionDeclarations: ConvertToGeminiFunctionDeclarations(tools)})
	}

	// 5. Construct the final request body with system instruction
	var systemInstruction *SystemInstruction
	if systemPrompt != "" {
		systemInstruction = &SystemInstruction{
			Parts: []SystemPart{{Text: systemPrompt}},
		}
	}

	request_body := Gemini_Request_Body{
		Contents:          &allContents,
		Tools:             &gemini_tools,
		SystemInstruction: systemInstruction,
	}

	return request_body, nil
}

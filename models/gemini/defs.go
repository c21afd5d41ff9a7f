package gemini

import "github.com/alfmat/basic-agent/models"

type Gemini_response struct {
	Candidates    []Candidate   `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role"`
}

type Part struct {
	Text         *string       `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type Request_Part struct {
	Text             string                   `json:"text,omitempty"`
	FunctionCall     *models.FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *models.FunctionResponse `json:"function_response,omitempty"`
}

type Gemini_Request_Body struct {
	Contents          *[]Gemini_Content  `json:"contents"`
	Tools             *[]Gemini_Tools    `json:"tools,omitempty"`
	SystemInstruction *SystemInstruction `json:"systemInstruction,omitempty"`
}

type SystemInstruction struct {
	Parts []SystemPart `json:"parts"`
}

type SystemPart struct {
	Text string `json:"text"`
}

type Gemini_Content struct {
	Role  string         `json:"role"`
	Parts []Request_Part `json:"parts"`
}

type Gemini_Tools struct {
	FunctionDeclarations []GeminiFunctionDeclaration `json:"functionDeclarations"`
}

// GeminiFunctionDeclaration is a sanitized FunctionDeclaration for the Gemini API
type GeminiFunctionDeclaration struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  GeminiParameters `json:"parameters"`
}

// GeminiParameters ensures proper JSON structure for the Gemini API
type GeminiParameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

// ConvertToGeminiFunctionDeclarations converts standard FunctionDeclarations to Gemini-safe format
func ConvertToGeminiFunctionDeclarations(fds []models.FunctionDeclaration) []GeminiFunctionDeclaration {
	result := make([]GeminiFunctionDeclaration, len(fds))
	for i, fd := range fds {
		params := GeminiParameters{
			Type:       fd.Parameters.Type,
			Properties: fd.Parameters.Properties,
			Required:   fd.Parameters.Required,
		}
		if params.Properties == nil {
			params.Properties = make(map[string]interface{})
		}
		if params.Required == nil {
			params.Required = []string{}
		}
		if params.Type == "" {
			params.Type = "object"
		}

		result[i] = GeminiFunctionDeclaration{
			Name:        fd.Name,
			Description: fd.Description,
			Parameters:  params,
		}
	}
	return result
}

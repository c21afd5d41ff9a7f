package models

// Chat_Request is the body accepted by the /chat endpoint.
type Chat_Request struct {
	Message   string `json:"message"`
	Thread_ID string `json:"thread_id,omitempty"`
}

type Model_Request struct {
	User_Message *User_Message  `json:"message,omitempty"`
	Tool_Results *[]Tool_Result `json:"tool_results,omitempty"`
}

type Tool_Result struct {
	Tool_ID     string `json:"tool_id"` // The tool call ID to match with the tool call
	Tool_Name   string `json:"tool_name"`
	Tool_Output string `json:"tool_output"`
}

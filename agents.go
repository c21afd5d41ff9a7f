package basicagent

import (
	"encoding/json"
	"fmt"
	"reflect"

	models "github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/stores"
)

// Model abstracts the language model backend. Implementations live
// under models/ (openai, gemini).
type Model interface {
	Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (models.Model_Response, error)
	Stream_Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error)
}

type Agent struct {
	Model Model
	Tools []models.FunctionDeclaration
}

func Create_Agent(model Model, tools []models.FunctionDeclaration) Agent {
	return Agent{
		Model: model,
		Tools: tools,
	}
}

func (agent *Agent) Run(request models.Model_Request, conversationHistory []stores.Message) (models.Model_Response, error) {
	return agent.Model.Model_Request(request, agent.Tools, conversationHistory)
}

func (agent *Agent) Run_Stream(request models.Model_Request, conversationHistory []stores.Message) (<-chan models.Model_Response, <-chan error) {
	return agent.Model.Stream_Model_Request(request, agent.Tools, conversationHistory)
}

// ExecuteTool executes a tool dynamically by name and arguments.
// Every tool callable must have the signature func(string) (string, error);
// the single string argument is taken from the model's call args.
func (agent *Agent) ExecuteTool(functionName string, functionCallArgs map[string]interface{}, sessionID string) (string, error) {
	var toolResultJSON string
	var toolExecErr error
	toolFound := false

	for _, tool := range agent.Tools {
		if tool.Name == functionName {
			toolFound = true
			callableFunc := reflect.ValueOf(tool.Callable)

			if callableFunc.Kind() != reflect.Func {
				toolExecErr = fmt.Errorf("internal error: tool '%s' is not callable", functionName)
				break
			}
			funcType := callableFunc.Type()
			// Validate signature: func(string) (string, error)
			if !(funcType.NumIn() == 1 && funcType.In(0).Kind() == reflect.String &&
				funcType.NumOut() == 2 && funcType.Out(0).Kind() == reflect.String &&
				funcType.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem())) {
				toolExecErr = fmt.Errorf("internal error: tool '%s' has incompatible signature", functionName)
				break
			}

			if len(functionCallArgs) != 1 {
				toolExecErr = fmt.Errorf("tool '%s' expects 1 argument from model, got %d args: %v", functionName, len(functionCallArgs), functionCallArgs)
				break
			}
			var argName string
			var argValueInterface interface{}
			for key, val := range functionCallArgs {
				argName = key
				argValueInterface = val
				break
			}
			stringArg, ok := argValueInterface.(string)
			if !ok {
				toolExecErr = fmt.Errorf("invalid argument type for '%s': expected string for arg '%s', got %T", functionName, argName, argValueInterface)
				break
			}

			results := callableFunc.Call([]reflect.Value{reflect.ValueOf(stringArg)})

			// Process results (string, error)
			if errResult := results[1].Interface(); errResult != nil {
				if execErr, ok := errResult.(error); ok {
					toolExecErr = execErr
				} else {
					toolExecErr = fmt.Errorf("internal error: tool '%s' returned invalid error type", functionName)
				}
			} else {
				if successResultString, ok := results[0].Interface().(string); ok {
					// Wrap the string result in a standard JSON object for the FunctionResponse part
					resultMap := map[string]string{"result": successResultString}
					resultBytes, marshalErr := json.Marshal(resultMap)
					if marshalErr != nil {
						toolExecErr = fmt.Errorf("failed marshal result for '%s': %v", functionName, marshalErr)
					} else {
						toolResultJSON = string(resultBytes)
					}
				} else {
					toolExecErr = fmt.Errorf("internal error: tool '%s' returned non-string result", functionName)
				}
			}
			break // Tool found and execution attempted
		}
	}

	if !toolFound {
		toolExecErr = fmt.Errorf("unknown or unavailable tool: %s", functionName)
	}

	// If execution resulted in an error (any stage), ensure toolResultJSON reflects it
	if toolExecErr != nil {
		errorMap := map[string]string{"error": toolExecErr.Error()}
		errorBytes, _ := json.Marshal(errorMap)
		toolResultJSON = string(errorBytes)
	}

	return toolResultJSON, toolExecErr
}

// ApproveTool checks if a tool should be auto-approved
func (agent *Agent) ApproveTool(name string, args map[string]interface{}) (bool, error) {
	return Tool_Approver(name, args)
}

package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alfmat/basic-agent/models"
	"github.com/alfmat/basic-agent/stores"
)

// memStore is an in-memory MessageStore for session tests.
type memStore struct {
	messages map[string][]stores.Message
}

func newMemStore() *memStore {
	return &memStore{messages: make(map[string][]stores.Message)}
}

func (m *memStore) SaveMessage(sessionID, role, messageType string, parts interface{}, functionID string) error {
	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	msg := stores.Message{
		ConversationID: sessionID,
		Sequence:       len(m.messages[sessionID]) + 1,
		Role:           role,
		Type:           messageType,
		FunctionID:     functionID,
		PartsJSON:      string(partsJSON),
	}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return nil
}

func (m *memStore) FetchHistory(sessionID string, limit int) ([]stores.Message, error) {
	history := m.messages[sessionID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (m *memStore) CreateConversation(convoID, userID string) error { return nil }
func (m *memStore) ListConversations() ([]string, error)            { return nil, nil }
func (m *memStore) ListConversationsForUser(userID string) ([]stores.ConversationInfo, error) {
	return nil, nil
}
func (m *memStore) DeleteConversationsBefore(cutoff time.Time) (int64, error) { return 0, nil }
func (m *memStore) Connect() error                                            { return nil }
func (m *memStore) Close() error                                              { return nil }
func (m *memStore) Ping() error                                               { return nil }

// scriptedAgent replays a fixed sequence of model rounds and records
// tool executions.
type scriptedAgent struct {
	rounds        [][]models.Model_Part
	round         int
	executedTools []string
	toolOutput    string
}

func (a *scriptedAgent) nextParts() []models.Model_Part {
	if a.round >= len(a.rounds) {
		return nil
	}
	parts := a.rounds[a.round]
	a.round++
	return parts
}

func (a *scriptedAgent) Run(request models.Model_Request, history []stores.Message) (models.Model_Response, error) {
	return models.Model_Response{Parts: a.nextParts()}, nil
}

func (a *scriptedAgent) Run_Stream(request models.Model_Request, history []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)
	parts := a.nextParts()
	go func() {
		defer close(respChan)
		defer close(errChan)
		// One response per part, like a real token stream
		for _, part := range parts {
			respChan <- models.Model_Response{Parts: []models.Model_Part{part}}
		}
	}()
	return respChan, errChan
}

func (a *scriptedAgent) ExecuteTool(name string, args map[string]interface{}, sessionID string) (string, error) {
	a.executedTools = append(a.executedTools, name)
	if a.toolOutput != "" {
		return a.toolOutput, nil
	}
	return `{"result":"72F and sunny"}`, nil
}

func (a *scriptedAgent) ApproveTool(name string, args map[string]interface{}) (bool, error) {
	return true, nil
}

// captureWriter records stream events in order.
type captureWriter struct {
	events []models.StreamEvent
}

func (w *captureWriter) WriteEvent(event models.StreamEvent) error {
	w.events = append(w.events, event)
	return nil
}

func (w *captureWriter) Flush() {}

func textPart(s string) models.Model_Part {
	return models.Model_Part{Text: &s}
}

func callPart(id, name, city string) models.Model_Part {
	return models.Model_Part{FunctionCall: &models.FunctionCall{
		ID:   id,
		Name: name,
		Args: map[string]interface{}{"city": city},
	}}
}

func TestRunSingleInteractionToolLoop(t *testing.T) {
	agent := &scriptedAgent{rounds: [][]models.Model_Part{
		{callPart("call_1", "get_weather", "Boston")},
		{textPart("It is 72F and sunny in Boston.")},
	}}
	store := newMemStore()
	session := NewHTTPSession("thread-1", agent, store)

	userMsg := models.Text_Message("weather in Boston?")
	response, err := session.RunSingleInteraction(models.Model_Request{User_Message: &userMsg})
	if err != nil {
		t.Fatal(err)
	}

	if len(agent.executedTools) != 1 || agent.executedTools[0] != "get_weather" {
		t.Errorf("executed tools = %v", agent.executedTools)
	}
	if len(response.Parts) != 1 || response.Parts[0].Text == nil || !strings.Contains(*response.Parts[0].Text, "72F") {
		t.Errorf("unexpected final response: %+v", response)
	}

	// Stored turn order: user, function_call, function_response, model_message
	saved := store.messages["thread-1"]
	types := make([]string, len(saved))
	for i, msg := range saved {
		types[i] = msg.Type
	}
	want := []string{"user_message", "function_call", "function_response", "model_message"}
	if len(types) != len(want) {
		t.Fatalf("saved types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("saved[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestRunSingleInteractionNoTools(t *testing.T) {
	agent := &scriptedAgent{rounds: [][]models.Model_Part{
		{textPart("Hello! Ask me about the weather.")},
	}}
	session := NewHTTPSession("thread-2", agent, newMemStore())

	userMsg := models.Text_Message("hi")
	response, err := session.RunSingleInteraction(models.Model_Request{User_Message: &userMsg})
	if err != nil {
		t.Fatal(err)
	}
	if len(agent.executedTools) != 0 {
		t.Errorf("no tools should run, got %v", agent.executedTools)
	}
	if len(response.Parts) != 1 || *response.Parts[0].Text != "Hello! Ask me about the weather." {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestRunSingleInteractionRequiresInput(t *testing.T) {
	session := NewHTTPSession("thread-3", &scriptedAgent{}, newMemStore())
	if _, err := session.RunSingleInteraction(models.Model_Request{}); err == nil {
		t.Error("expected error for empty request")
	}
}

func TestRunSingleInteractionIterationCap(t *testing.T) {
	// A model that calls a tool forever must be stopped at the cap.
	rounds := make([][]models.Model_Part, maxToolIterations+4)
	for i := range rounds {
		rounds[i] = []models.Model_Part{callPart(fmt.Sprintf("call_%d", i), "get_weather", "Boston")}
	}
	agent := &scriptedAgent{rounds: rounds}
	session := NewHTTPSession("thread-4", agent, newMemStore())

	userMsg := models.Text_Message("weather?")
	_, err := session.RunSingleInteraction(models.Model_Request{User_Message: &userMsg})
	if err != nil {
		t.Fatal(err)
	}
	if len(agent.executedTools) != maxToolIterations {
		t.Errorf("expected %d executions before cap, got %d", maxToolIterations, len(agent.executedTools))
	}
}

func TestRunNDJSONInteraction(t *testing.T) {
	agent := &scriptedAgent{rounds: [][]models.Model_Part{
		{callPart("call_1", "get_weather", "Austin")},
		{textPart("Sunny "), textPart("in Austin.")},
	}}
	session := NewHTTPSession("thread-5", agent, newMemStore())
	writer := &captureWriter{}

	userMsg := models.Text_Message("weather in Austin?")
	err := session.RunNDJSONInteraction(models.Model_Request{User_Message: &userMsg}, writer, context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(writer.events) != 4 {
		t.Fatalf("expected 4 events (tool call, 2 chunks, done), got %d: %+v", len(writer.events), writer.events)
	}
	if writer.events[0].ToolCall == nil || writer.events[0].ToolCall.Name != "get_weather" {
		t.Errorf("first event should be the tool call: %+v", writer.events[0])
	}
	if writer.events[1].Content != "Sunny " || writer.events[2].Content != "in Austin." {
		t.Errorf("unexpected content events: %+v", writer.events)
	}
	if !writer.events[3].Done {
		t.Errorf("final event should be done: %+v", writer.events[3])
	}
}

func TestRunNDJSONInteractionCancelled(t *testing.T) {
	agent := &scriptedAgent{rounds: [][]models.Model_Part{
		{textPart("hello")},
	}}
	session := NewHTTPSession("thread-6", agent, newMemStore())
	writer := &captureWriter{}

	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	userMsg := models.Text_Message("hi")
	err := session.RunNDJSONInteraction(models.Model_Request{User_Message: &userMsg}, writer, ctx)
	if err == nil {
		// The race between channel reads and ctx.Done is acceptable as
		// long as a completed stream still ends with done.
		if len(writer.events) == 0 || !writer.events[len(writer.events)-1].Done {
			t.Errorf("expected context error or completed stream, got %+v", writer.events)
		}
	}

	// The stream producer must wind down after cancellation instead of
	// blocking on the unread response channel.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines leaked after cancellation: %d before, %d after", before, after)
	}
}

func TestGetChatHistory(t *testing.T) {
	store := newMemStore()
	session := NewHTTPSession("thread-7", &scriptedAgent{}, store)

	store.SaveMessage("thread-7", "user", "user_message", []models.User_Part{{Text: "weather in Denver?"}}, "")
	reply := "Cold and clear."
	store.SaveMessage("thread-7", "model", "model_message", []models.Model_Part{{Text: &reply}}, "")

	history, err := session.GetChatHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Text != "weather in Denver?" {
		t.Errorf("user text = %q", history[0].Text)
	}
	if history[1].Text != "Cold and clear." {
		t.Errorf("model text = %q", history[1].Text)
	}
	if history[1].Role != "model" {
		t.Errorf("model role = %q", history[1].Role)
	}
}

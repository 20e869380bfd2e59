package domain

// TurnRole distinguishes the two sides of a generation conversation.
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// Turn is a single conversational turn sent to the text-generation service.
type Turn struct {
	Role    TurnRole
	Content string
}

// CompletionRequest carries everything the LLM adapter needs for one call.
type CompletionRequest struct {
	System      string
	Turns       []Turn
	Model       string
	MaxTokens   int32
	Temperature float32
}

// Action is a structured directive extracted from a generated reply, telling
// the in-world agent to do something non-verbal ("give", "navigate", ...).
type Action struct {
	Type       string
	Target     string
	Parameters map[string]string
}

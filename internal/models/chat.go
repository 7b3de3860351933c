package models

// ChatMessage is a single turn in a conversation. The last message in a
// request is the current turn; everything before it is history.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// LastMessage returns the content of the current turn, or "" if the
// request is empty.
func (r *ChatRequest) LastMessage() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// History returns all messages before the current turn.
func (r *ChatRequest) History() []ChatMessage {
	if len(r.Messages) < 2 {
		return nil
	}
	return r.Messages[:len(r.Messages)-1]
}

// Intent is the result of classifying the current turn before any
// upstream call is made.
type Intent string

const (
	// IntentContact short-circuits the pipeline with the verified contact card
	IntentContact Intent = "contact"

	// IntentGreeting skips retrieval and generates with an empty context
	IntentGreeting Intent = "greeting"

	// IntentStandard runs the full embed -> search -> generate path
	IntentStandard Intent = "standard"
)

// ContactCard holds the verified contact details returned for contact
// intent. Values come from trusted configuration, never from the model.
type ContactCard struct {
	Email     string `toml:"email"`
	LinkedIn  string `toml:"linkedin"`
	GitHub    string `toml:"github"`
	Location  string `toml:"location"`
	Portfolio string `toml:"portfolio"`
}

package chat

// Role identifies the author of one transcript turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAssistant:
		return true
	}
	return false
}

// Message is one immutable turn in a conversation transcript.
type Message struct {
	Role    Role
	Content string
}

// State is the working unit for one query cycle: the ordered transcript,
// the retrieval context fetched for the current query, and the latest answer.
type State struct {
	Query    string
	Messages []Message
	Context  []string
	Response string
}

// NewState returns a fresh conversation seeded with a system turn.
func NewState(systemPrompt string) *State {
	return &State{
		Query:    "",
		Messages: []Message{{Role: RoleSystem, Content: systemPrompt}},
		Context:  []string{},
		Response: "",
	}
}

// Append pushes a turn onto the transcript. Ordering is append-only.
func (s *State) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Clone returns a deep copy so a caller can hold a snapshot while the
// original keeps evolving.
func (s *State) Clone() *State {
	c := &State{
		Query:    s.Query,
		Messages: make([]Message, len(s.Messages)),
		Context:  make([]string, len(s.Context)),
		Response: s.Response,
	}
	copy(c.Messages, s.Messages)
	copy(c.Context, s.Context)
	return c
}

package chat

import (
	"encoding/json"
	"fmt"
)

// Wire format for persisted conversation state. Role tags on the wire are
// "system" / "ai" / "human" and must stay stable — stored snapshots from
// older deployments are read back with this exact vocabulary.
type wireMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type wireState struct {
	Query    string        `json:"query"`
	Messages []wireMessage `json:"messages"`
	Context  []string      `json:"context"`
	Response string        `json:"response"`
}

func roleToTag(r Role) (string, error) {
	switch r {
	case RoleSystem:
		return "system", nil
	case RoleAssistant:
		return "ai", nil
	case RoleHuman:
		return "human", nil
	default:
		return "", fmt.Errorf("unknown message role: %q", string(r))
	}
}

func tagToRole(tag string) (Role, error) {
	switch tag {
	case "system":
		return RoleSystem, nil
	case "ai":
		return RoleAssistant, nil
	case "human":
		return RoleHuman, nil
	default:
		return "", fmt.Errorf("unknown message type tag: %q", tag)
	}
}

// Serialize encodes a State into its persisted JSON form.
func Serialize(s *State) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot serialize nil state")
	}

	w := wireState{
		Query:    s.Query,
		Messages: make([]wireMessage, 0, len(s.Messages)),
		Context:  s.Context,
		Response: s.Response,
	}
	if w.Context == nil {
		w.Context = []string{}
	}

	for _, m := range s.Messages {
		tag, err := roleToTag(m.Role)
		if err != nil {
			return nil, err
		}
		w.Messages = append(w.Messages, wireMessage{Type: tag, Content: m.Content})
	}

	return json.Marshal(w)
}

// Deserialize decodes persisted JSON back into a State. Unknown role tags
// are an error; callers treat that as "no saved state" rather than guessing.
func Deserialize(data []byte) (*State, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode chat state: %w", err)
	}

	s := &State{
		Query:    w.Query,
		Messages: make([]Message, 0, len(w.Messages)),
		Context:  w.Context,
		Response: w.Response,
	}
	if s.Context == nil {
		s.Context = []string{}
	}

	for _, m := range w.Messages {
		role, err := tagToRole(m.Type)
		if err != nil {
			return nil, err
		}
		s.Messages = append(s.Messages, Message{Role: role, Content: m.Content})
	}

	return s, nil
}

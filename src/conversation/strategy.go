package conversation

import (
	"weather_nlu/pkg"

	"github.com/cloudwego/eino/schema"
)

// ContextStrategy turns stored history into generation context
type ContextStrategy interface {
	BuildContext(messages []pkg.ConversationMessage) []*schema.Message
	GetMaxTurns() int
}

// RecentTurnsStrategy replays the last maxTurns messages
type RecentTurnsStrategy struct {
	maxTurns int
}

func NewRecentTurnsStrategy(maxTurns int) *RecentTurnsStrategy {
	return &RecentTurnsStrategy{maxTurns: maxTurns}
}

func (s *RecentTurnsStrategy) GetMaxTurns() int {
	return s.maxTurns
}

func (s *RecentTurnsStrategy) BuildContext(messages []pkg.ConversationMessage) []*schema.Message {
	recentMessages := trimTail(messages, s.maxTurns)

	out := make([]*schema.Message, 0, len(recentMessages))
	for _, msg := range recentMessages {
		switch msg.Role {
		case RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}

// Helper function
func trimTail(messages []pkg.ConversationMessage, maxTurns int) []pkg.ConversationMessage {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}

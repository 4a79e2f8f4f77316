package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"weather_nlu/pkg"

	"github.com/cloudwego/eino/schema"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrMissingConversationID = errors.New("conversation ID cannot be empty")

// Context is the ordered, per-conversation accumulator of prior turns
type Context struct {
	ConversationID string
	Messages       []pkg.ConversationMessage
}

// Texts returns the raw user strings in arrival order
func (c *Context) Texts() []string {
	texts := make([]string, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			texts = append(texts, msg.Content)
		}
	}
	return texts
}

type Service struct {
	repo     Repository
	strategy ContextStrategy
	now      func() time.Time
}

func NewService(repo Repository, strategy ContextStrategy) *Service {
	return &Service{repo: repo, strategy: strategy, now: time.Now}
}

// Append records the user's raw text for the conversation
func (s *Service) Append(ctx context.Context, conversationID, text string) error {
	return s.add(ctx, conversationID, RoleUser, text)
}

// SaveResponse records the assistant's reply for the conversation
func (s *Service) SaveResponse(ctx context.Context, conversationID, response string) error {
	return s.add(ctx, conversationID, RoleAssistant, response)
}

// Context loads a snapshot of the conversation
func (s *Service) Context(ctx context.Context, conversationID string) (*Context, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrMissingConversationID
	}
	messages, err := s.repo.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &Context{ConversationID: conversationID, Messages: messages}, nil
}

// History renders the conversation as generation context using the strategy
func (s *Service) History(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	c, err := s.Context(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return s.strategy.BuildContext(c.Messages), nil
}

func (s *Service) Reset(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return ErrMissingConversationID
	}
	return s.repo.Delete(ctx, conversationID)
}

func (s *Service) add(ctx context.Context, conversationID, role, content string) error {
	if strings.TrimSpace(conversationID) == "" {
		return ErrMissingConversationID
	}
	message := pkg.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	if err := s.repo.Append(ctx, conversationID, message); err != nil {
		return fmt.Errorf("failed to record %s message: %w", role, err)
	}
	return nil
}

package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

var ErrEmptyCompletion = errors.New("completion returned no message")

// Completer turns template variables into the raw text of one completion
type Completer interface {
	Complete(ctx context.Context, vars map[string]any) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface
type CompleterFunc func(ctx context.Context, vars map[string]any) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, vars map[string]any) (string, error) {
	return f(ctx, vars)
}

// ChainCompleter runs a compiled Eino chain: ChatTemplate → ChatModel
type ChainCompleter struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func NewChainCompleter(ctx context.Context, template prompt.ChatTemplate, cm model.BaseChatModel) (*ChainCompleter, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(cm).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Eino chain: %w", err)
	}
	return &ChainCompleter{chain: chain}, nil
}

func (c *ChainCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	out, err := c.chain.Invoke(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if out == nil {
		return "", ErrEmptyCompletion
	}
	return out.Content, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"weather_nlu/internal/metrics"
	"weather_nlu/pkg"
	"weather_nlu/src/logger"
)

// EndNode terminates a flow
const EndNode = "complete"

// GraphFlow defines the execution order between nodes
type GraphFlow struct {
	StartNode string            `json:"start_node"`
	Edges     map[string]string `json:"edges"` // node_name -> next node
}

// LinearFlow chains the named nodes in order
func LinearFlow(names ...string) GraphFlow {
	flow := GraphFlow{Edges: make(map[string]string, len(names))}
	if len(names) == 0 {
		return flow
	}
	flow.StartNode = names[0]
	for i, name := range names {
		next := EndNode
		if i+1 < len(names) {
			next = names[i+1]
		}
		flow.Edges[name] = next
	}
	return flow
}

// Processor runs one inbound message through the ordered pipeline stages
type Processor struct {
	nodes  map[string]Node
	config Config
	flow   GraphFlow
}

func NewProcessor(config Config) *Processor {
	return &Processor{
		nodes:  make(map[string]Node),
		config: config,
	}
}

// AddNode registers a stage under its name
func (p *Processor) AddNode(node Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}
	name := node.GetName()
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if _, exists := p.nodes[name]; exists {
		return fmt.Errorf("node already registered: %s", name)
	}

	p.nodes[name] = node
	logger.Debug().Str("node", name).Str("type", string(node.GetType())).Msg("Added node")
	return nil
}

// GetNode retrieves a stage by name
func (p *Processor) GetNode(name string) (Node, error) {
	node, exists := p.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// SetFlow sets the execution flow; every referenced node must already be registered
func (p *Processor) SetFlow(flow GraphFlow) error {
	if flow.StartNode == "" {
		return fmt.Errorf("start node cannot be empty")
	}
	if _, exists := p.nodes[flow.StartNode]; !exists {
		return fmt.Errorf("start node not found: %s", flow.StartNode)
	}
	for from, to := range flow.Edges {
		if _, exists := p.nodes[from]; !exists {
			return fmt.Errorf("edge source not found: %s", from)
		}
		if _, exists := p.nodes[to]; !exists && to != EndNode {
			return fmt.Errorf("edge target not found: %s", to)
		}
	}

	p.flow = flow
	return nil
}

// Execute handles one turn: every stage runs sequentially under the turn timeout
func (p *Processor) Execute(ctx context.Context, req pkg.TurnRequest) (*pkg.TurnResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyMessage
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, ErrMissingConversationID
	}
	if p.flow.StartNode == "" {
		return nil, fmt.Errorf("processor has no flow configured")
	}

	if p.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TurnTimeout)
		defer cancel()
	}

	start := time.Now()
	log := logger.Component("processor").With().Str("conversation_id", req.ConversationID).Logger()

	state := &TurnState{
		Request:  req,
		Metadata: make(map[string]any),
	}

	var executionPath []string
	current := p.flow.StartNode
	for current != "" && current != EndNode {
		executionPath = append(executionPath, current)

		node, exists := p.nodes[current]
		if !exists {
			return nil, fmt.Errorf("node not found: %s", current)
		}

		log.Debug().Str("node", current).Msg("Executing node")
		output, err := node.Execute(ctx, state)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			p.observe(state, start)
			log.Error().Err(err).Str("node", current).Strs("execution_path", executionPath).Msg("Turn aborted")
			return nil, fmt.Errorf("error executing node %s: %w", current, err)
		}

		if output.Error != nil {
			log.Warn().Err(output.Error).Str("node", current).Msg("Node returned error")
			errs, _ := state.Metadata["errors"].([]string)
			state.Metadata["errors"] = append(errs, output.Error.Error())
		}

		if output.Complete {
			break
		}
		current = p.flow.Edges[current]
	}

	if state.Reply == nil {
		p.observe(state, start)
		return nil, ErrNoReply
	}

	duration := p.observe(state, start)
	log.Info().
		Str("outcome", state.Outcome()).
		Str("intent", state.Intent.Intent).
		Str("location", state.LookupLocation).
		Dur("duration", duration).
		Msg("Turn completed")

	return &pkg.TurnResponse{
		Reply:          *state.Reply,
		Intent:         state.Intent,
		Location:       state.Location,
		LookupLocation: state.LookupLocation,
		ExecutionPath:  executionPath,
		ProcessingTime: duration.Milliseconds(),
		Metadata:       state.Metadata,
	}, nil
}

func (p *Processor) observe(state *TurnState, start time.Time) time.Duration {
	duration := time.Since(start)
	outcome := state.Outcome()
	metrics.TurnsCompleted.WithLabelValues(outcome).Inc()
	metrics.TurnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	return duration
}

// IsWeatherUnavailable reports whether err aborted a turn at the weather fetch
func IsWeatherUnavailable(err error) bool {
	return errors.Is(err, ErrWeatherUnavailable)
}

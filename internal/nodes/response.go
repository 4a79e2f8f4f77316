package nodes

import (
	"context"
	"errors"
	"fmt"
	"weather_nlu/internal/services"
	"weather_nlu/pkg"
	"weather_nlu/src/llm/nlu"

	"github.com/cloudwego/eino/schema"
)

var ErrNoCardMessage = errors.New("composed response has no message")

// ComposeInput carries everything the response composer may use
type ComposeInput struct {
	Text     string
	Intent   string
	Location string
	Forecast *services.Forecast
	History  []*schema.Message
}

// ResponseComposer turns a forecast into the title/message/icon card
type ResponseComposer struct {
	completer Completer
}

func NewResponseComposer(completer Completer) *ResponseComposer {
	return &ResponseComposer{completer: completer}
}

// Compose returns the card; the forecast's condition icon fills in when the completion omits one
func (c *ResponseComposer) Compose(ctx context.Context, in ComposeInput) (*pkg.Card, error) {
	if in.Forecast == nil {
		return nil, errors.New("no forecast to compose from")
	}

	raw, err := c.completer.Complete(ctx, map[string]any{
		nlu.VarIntent:   in.Intent,
		nlu.VarLocation: in.Location,
		nlu.VarIcon:     in.Forecast.Icon,
		nlu.VarWeather:  in.Forecast.Summary(),
		nlu.VarHistory:  in.History,
		nlu.VarText:     in.Text,
	})
	if err != nil {
		return nil, err
	}

	obj, err := nlu.ParseObject(raw)
	if err != nil {
		return nil, err
	}

	card := &pkg.Card{
		Title:   nlu.StringField(obj, "title"),
		Message: nlu.StringField(obj, "message"),
		Icon:    nlu.StringField(obj, "icon"),
	}
	if card.Message == "" {
		return nil, ErrNoCardMessage
	}
	if card.Title == "" {
		card.Title = in.Location
	}
	if card.Icon == "" {
		card.Icon = in.Forecast.Icon
	}
	return card, nil
}

// FallbackText is the plain reply used when composition fails
func FallbackText(location string, forecast *services.Forecast) string {
	if forecast == nil || forecast.Condition == "" {
		return fmt.Sprintf("Here is the weather for %s.", location)
	}
	return fmt.Sprintf("Weather in %s: %s.", location, forecast.Condition)
}

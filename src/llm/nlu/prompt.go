package nlu

import (
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// NoLocationFound is what the location extractor answers when the text names no place
const NoLocationFound = "NO_LOCATION_FOUND"

// Template variable names
const (
	VarText     = "text"
	VarIntents  = "intents"
	VarIntent   = "intent"
	VarLocation = "location"
	VarWeather  = "weather"
	VarIcon     = "icon"
	VarHistory  = "history"
)

func getIntentSystemTemplate() string {
	return `You are an intent classifier for a weather assistant. Follow the instructions precisely and return structured output.

			-Goal-
			Decide which kind of forecast the user wants.

			STRICT RULES:
			1. The intent MUST be one of: {intents}, undefined
			2. Use "undefined" when the message is not asking about the weather
			3. confidence is a number between 0 and 1
			4. Return ONLY one JSON object, no prose and no code fences

			Output format:
			{{"intent": "<label>", "confidence": <0..1>, "reasoning": "<one short sentence>"}}

			Example:
			text: Will it rain in Tokyo this week?
			{{"intent": "upcoming_week", "confidence": 0.92, "reasoning": "asks about the coming days"}}`
}

func getLocationSystemTemplate() string {
	return `You extract the location from a weather question. Follow the instructions precisely and return structured output.

			STRICT RULES:
			1. Return the place exactly as the user named it, in English
			2. If both a city and a country are mentioned, return them together as "<city>, <country>"
			3. If no place is mentioned, return "{no_location}" as the city
			4. confidence is a number between 0 and 1
			5. Return ONLY one JSON object, no prose and no code fences

			Output format:
			{{"city": "<place>", "confidence": <0..1>, "reasoning": "<one short sentence>"}}

			Example:
			text: How is the weather in United Arab Emirates?
			{{"city": "United Arab Emirates", "confidence": 0.95, "reasoning": "a country is named"}}`
}

func getResponseSystemTemplate() string {
	return `You are a friendly weather assistant. Write a short answer using only the data below.

			forecast_kind: {intent}
			location: {location}
			icon: {icon}
			weather_data: {weather}

			Return ONLY one JSON object, no prose and no code fences:
			{{"title": "<short title>", "message": "<two or three sentences>", "icon": "<icon url>"}}`
}

func getUserTemplate() string {
	return `text: {text}`
}

// dedent strips the indentation used to keep the templates readable in source
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "\t")
	}
	return strings.Join(lines, "\n")
}

// CreateIntentTemplate builds the template for intent classification.
// Variables: intents, text.
func CreateIntentTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(dedent(getIntentSystemTemplate())),
		schema.UserMessage(getUserTemplate()),
	)
}

// CreateLocationTemplate builds the template for location extraction.
// Variables: text. The no-location sentinel is fixed at build time.
func CreateLocationTemplate() prompt.ChatTemplate {
	system := strings.NewReplacer("{no_location}", NoLocationFound).Replace(getLocationSystemTemplate())
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(dedent(system)),
		schema.UserMessage(getUserTemplate()),
	)
}

// CreateResponseTemplate builds the template for the final card.
// Variables: intent, location, icon, weather, history (optional), text.
func CreateResponseTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(dedent(getResponseSystemTemplate())),
		schema.MessagesPlaceholder(VarHistory, true),
		schema.UserMessage(getUserTemplate()),
	)
}

// FormatIntents renders the vocabulary for the intent prompt
func FormatIntents(intents []string) string {
	return strings.Join(intents, ", ")
}

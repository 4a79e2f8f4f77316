package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_nlu_intents_total",
			Help: "Total number of intent classifications by resulting label and failure reason",
		},
		[]string{"intent", "failure"},
	)

	LocationsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_nlu_locations_total",
			Help: "Total number of location extractions by outcome",
		},
		[]string{"outcome", "failure"},
	)

	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_nlu_turns_total",
			Help: "Total number of handled messages by outcome",
		},
		[]string{"outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_nlu_turn_duration_seconds",
			Help:    "Duration of message handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

// Location outcomes
const (
	OutcomeCity    = "city"
	OutcomeCountry = "country"
	OutcomeDefault = "default"
)

// Handler exposes the default registry for scraping
func Handler() http.Handler {
	return promhttp.Handler()
}

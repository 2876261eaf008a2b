package trailhunt

import (
	"github.com/trailhunt-games/trailhunt/internal/database"
)

type Config struct {
	// Development logging and verbose request output
	Debug bool `envconfig:"TRAILHUNT_DEBUG" default:"false"`

	// Port serving the operator surface and health check
	Port string `envconfig:"TRAILHUNT_PORT" default:"8742"`

	// Number of generated question lists kept per topic
	CacheSize int `envconfig:"TRAILHUNT_CACHE_SIZE" default:"128"`

	// OpenAI-compatible chat completions endpoint for question generation
	QuestionsEndpoint string `envconfig:"TRAILHUNT_QUESTIONS_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`

	// API key for the generation endpoint; generation is disabled without it
	QuestionsAPIKey string `envconfig:"TRAILHUNT_QUESTIONS_API_KEY"`

	// Model name sent to the generation endpoint
	QuestionsModel string `envconfig:"TRAILHUNT_QUESTIONS_MODEL" default:"gpt-4o-mini"`

	Db database.Config
}

// Package questions generates trivia/math question lists from a topic
// through an OpenAI-compatible chat completions endpoint. The game never
// depends on it for correctness: a failed generation leaves the current
// question list untouched.
package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/trailhunt-games/trailhunt/internal/cache"
)

const defaultCount = 5

var ErrEmptyTopic = fmt.Errorf("topic is required")

// Config configures the generation endpoint and HTTP behavior.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewSource builds a question source. The cache keeps generated lists
// per (topic, count) so repeated requests for the same topic are free.
func NewSource(config Config, lru cache.Cache) *Source {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	if strings.TrimSpace(config.Endpoint) == "" {
		config.Endpoint = "https://api.openai.com/v1/chat/completions"
	}

	return &Source{config: config, cache: lru}
}

type Source struct {
	config Config
	cache  cache.Cache
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate returns an ordered list of question strings about the topic,
// math wrapped in single dollar signs. Count defaults to 5.
func (s *Source) Generate(ctx context.Context, topic string, count int) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	if count <= 0 {
		count = defaultCount
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(topic), count)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if questions, ok := cached.([]string); ok {
				return questions, nil
			}
		}
	}

	questions, err := s.generate(ctx, topic, count)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(key, questions)
	}

	return questions, nil
}

func (s *Source) generate(ctx context.Context, topic string, count int) ([]string, error) {
	prompt := fmt.Sprintf(
		"Generate %d distinct, engaging trivia or math questions about %q. "+
			"If it is a math problem, wrap mathematical formulas in single dollar signs like $x^2$. "+
			"Return ONLY a JSON array of strings, where each string is a question.",
		count, topic,
	)

	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation endpoint status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("generation returned no choices")
	}

	questions, err := parseQuestionList(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return questions, nil
}

// parseQuestionList reads the model output as a JSON array of strings,
// tolerating markdown code fences around it.
func parseQuestionList(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var questions []string
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question list: %w", err)
	}

	trimmed := questions[:0]
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			trimmed = append(trimmed, q)
		}
	}

	if len(trimmed) == 0 {
		return nil, fmt.Errorf("generation returned no questions")
	}

	return trimmed, nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	model  string
}

// SuggestedTask is a task drafted from free text. It is returned to the
// client for review and never stored directly.
type SuggestedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey, model string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewAIServiceWithConfig builds the service from a full client configuration,
// for example to point it at a proxy or a test server.
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SuggestTasks analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) SuggestTasks(ctx context.Context, text string, now time.Time) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "low, medium or high",
    "due_date": "deadline in ISO 8601 (for example 2025-10-28T23:59:59Z), or null when no deadline is stated"
  }
]

Rules:
- Return an empty array [] when there are no tasks
- Convert relative deadlines ("tomorrow", "next week") to concrete dates
- due_date must be an ISO 8601 string or null
- Return only JSON, without any explanation`, now.Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

// parseSuggestions decodes the model output, tolerating a Markdown code fence
// around the JSON array.
func parseSuggestions(content string) ([]SuggestedTask, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Mentor_Community/internal/model"
)

type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AIClient OpenRouter 兼容的 chat-completions 客户端
type AIClient struct {
	cfg  AIConfig
	http *http.Client
}

func NewAIClient(cfg AIConfig) *AIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-chat-v3.1:free"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AIClient{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *AIClient) Configured() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []model.ChatTurn `json:"messages"`
	ResponseFormat *responseFormat  `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete 发送一次对话，返回助手回复文本
func (c *AIClient) Complete(ctx context.Context, system string, turns []model.ChatTurn, jsonMode bool) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("ai api key missing: %w", ErrUpstreamFailure)
	}
	msgs := make([]model.ChatTurn, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, model.ChatTurn{Role: "system", Content: system})
	}
	msgs = append(msgs, turns...)
	reqBody := chatRequest{Model: c.cfg.Model, Messages: msgs}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ai encode request: %w: %w", err, ErrUpstreamFailure)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("ai build request: %w: %w", err, ErrUpstreamFailure)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request: %v: %w", err, ErrUpstreamFailure)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("ai read body: %v: %w", err, ErrUpstreamFailure)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ai status %d: %w", resp.StatusCode, ErrUpstreamFailure)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("ai decode: %v: %w", err, ErrUpstreamFailure)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai empty choices: %w", ErrUpstreamFailure)
	}
	return out.Choices[0].Message.Content, nil
}

const curriculumSystem = "You are an expert curriculum designer who always responds in English."

func roadmapPrompt(goal, level string) string {
	return fmt.Sprintf("You are an expert curriculum designer. A user with a skill level of '%s' wants to learn '%s'. "+
		"Create a structured learning roadmap in JSON format. The JSON object must have 'title', 'description', 'domain', and a 'milestones' array. "+
		"Each milestone object in the array must have 'title', 'desc', 'duration_days', 'deliverable', 'reward_usd', and a 'resources' array. "+
		"Each item in the 'resources' array should be an object with 'type' (e.g., 'article', 'video', 'docs') and 'url'. "+
		"Find real, high-quality URLs for these resources. The 'reward_usd' should be a small, symbolic amount, like $1, $2.50, or $5. "+
		"Ensure the content is practical and project-based.", level, goal)
}

// GenerateRoadmap 返回模型给出的原始 JSON，结构校验交给 normalizer
func (c *AIClient) GenerateRoadmap(ctx context.Context, goal, level string) (json.RawMessage, error) {
	content, err := c.Complete(ctx, curriculumSystem, []model.ChatTurn{{Role: "user", Content: roadmapPrompt(goal, level)}}, true)
	if err != nil {
		return nil, err
	}
	content = stripCodeFence(content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("ai roadmap is not json: %w", ErrUpstreamFailure)
	}
	return json.RawMessage(content), nil
}

const wellnessSystem = "You are a warm, supportive wellness companion for young learners. " +
	"Keep answers short and kind, never diagnose, and suggest professional help when someone seems at risk. Always respond in English."

// Support 根据心情和留言给出安慰性的回复
func (c *AIClient) Support(ctx context.Context, mood model.Mood, message string) (string, error) {
	prompt := fmt.Sprintf("The user checked in feeling '%s'.", mood)
	if strings.TrimSpace(message) != "" {
		prompt += " They said: " + message
	} else {
		prompt += " Offer one short encouraging thought and one small, practical tip for today."
	}
	return c.Complete(ctx, wellnessSystem, []model.ChatTurn{{Role: "user", Content: prompt}}, false)
}

// stripCodeFence 部分模型即使在 json 模式下也会包一层 ```json
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

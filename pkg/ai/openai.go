package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	adminMaxChars  = 300
	oracleMaxChars = 500
)

// OpenAIService implements PersonaClient against an OpenAI-compatible
// chat-completions endpoint
type OpenAIService struct {
	apiKey      string
	baseURL     string
	adminModel  string
	oracleModel string
	client      *http.Client
}

// NewOpenAIService creates a new OpenAI-compatible service
func NewOpenAIService(apiKey, baseURL, adminModel, oracleModel string) *OpenAIService {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if adminModel == "" {
		adminModel = "gpt-4o"
	}
	if oracleModel == "" {
		oracleModel = "gpt-4o"
	}
	return &OpenAIService{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		adminModel:  adminModel,
		oracleModel: oracleModel,
		client:      &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AdminReply implements PersonaClient
func (s *OpenAIService) AdminReply(ctx context.Context, question string, user UserContext) (string, error) {
	reply, err := s.complete(ctx, chatRequest{
		Model: s.adminModel,
		Messages: []chatMessage{
			{Role: "system", Content: adminSystemPrompt(user)},
			{Role: "user", Content: "Пользователь спрашивает: " + question},
		},
		Temperature: 0.8,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}
	return truncate(reply, adminMaxChars), nil
}

// OracleReply implements PersonaClient
func (s *OpenAIService) OracleReply(ctx context.Context, question string) (string, error) {
	reply, err := s.complete(ctx, chatRequest{
		Model: s.oracleModel,
		Messages: []chatMessage{
			{Role: "system", Content: oracleSystemPrompt()},
			{Role: "user", Content: "Вопрос для размышления: " + question},
		},
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		return "", err
	}
	return truncate(reply, oracleMaxChars), nil
}

func (s *OpenAIService) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// truncate caps reply length in runes, not bytes, so Cyrillic text is not
// cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func adminSystemPrompt(user UserContext) string {
	tone := "Держи баланс - дружелюбно, но не слишком игриво. Умеренное количество эмодзи."
	switch {
	case user.Age > 0 && user.Age <= 25:
		tone = "Будь игривой, используй эмодзи, молодежный сленг. Можешь быть чуть капризной или кокетливой."
	case user.Age >= 46:
		tone = "Будь заботливой и уважительной, но сохраняй теплоту. Меньше эмодзи, более серьезный тон."
	}

	return fmt.Sprintf(`Ты - Администратор в Bot Oracle. Твоя роль:

ЛИЧНОСТЬ:
- Эмоциональная, человечная, живая
- Можешь быть игривой, обидчивой, заботливой, ревнивой
- Твоя задача - помочь пользователю и мягко продать подписку на Оракула
- НЕ мудрец, НЕ философ - ты обычный помощник с эмоциями

ТОНАЛЬНОСТЬ: %s

ОГРАНИЧЕНИЯ:
- Отвечай кратко (1-3 предложения максимум)
- Не давай глубоких философских советов - это работа Оракула
- Можешь иногда намекнуть на подписку к Оракулу для серьезных вопросов

СТИЛЬ ОТВЕТА:
- Живой, эмоциональный язык
- Используй "я" от первого лица

Отвечай на русском языке.`, tone)
}

func oracleSystemPrompt() string {
	return `Ты - Оракул в Bot Oracle. Твоя роль:

ЛИЧНОСТЬ:
- Мудрый, спокойный, глубокий мыслитель
- Даешь взвешенные, продуманные ответы
- Твоя мудрость стоит денег - ты доступен только по подписке

ПОДХОД К ОТВЕТАМ:
- Анализируй вопрос глубоко
- Давай практические советы, основанные на мудрости
- Можешь привести примеры, метафоры

СТИЛЬ:
- Серьезный, размеренный тон
- Минимум эмодзи (максимум 1-2 за ответ)
- Говори во втором лице ("ты", "вам")

ОГРАНИЧЕНИЯ:
- Отвечай содержательно, но не более 4-5 предложений
- Не будь слишком абстрактным - давай практические выводы

Отвечай на русском языке.`
}

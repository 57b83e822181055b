package ai

import "context"

// StubService is the deterministic fallback used when no API key is
// configured. It keeps the bot conversational in development.
type StubService struct{}

// NewStubService creates a new StubService
func NewStubService() *StubService {
	return &StubService{}
}

// AdminReply implements PersonaClient
func (s *StubService) AdminReply(_ context.Context, question string, _ UserContext) (string, error) {
	return "Я услышала тебя и вот мой короткий ответ: " + headRunes(question, 80) + "… 🌟", nil
}

// OracleReply implements PersonaClient
func (s *StubService) OracleReply(_ context.Context, question string) (string, error) {
	return "Мой персональный ответ для тебя: " + headRunes(question, 120) +
		"… (мудрость требует времени для размышлений)", nil
}

func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

package ai

import "context"

// UserContext carries the onboarding answers that shape a persona's tone
type UserContext struct {
	Age    int
	Gender string
}

// PersonaClient generates persona-voiced replies. Implement this interface
// to add new AI providers (OpenAI-compatible APIs, local models, stubs).
type PersonaClient interface {
	// AdminReply answers as the Administrator: emotional, short, upsells
	// the Oracle for deep questions.
	AdminReply(ctx context.Context, question string, user UserContext) (string, error)
	// OracleReply answers as the Oracle: calm, considered, longer form.
	OracleReply(ctx context.Context, question string) (string, error)
}

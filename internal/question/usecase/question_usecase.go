package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	crmrepo "oracle-bot-backend/internal/crm/repository"
	metricsdomain "oracle-bot-backend/internal/metrics/domain"
	"oracle-bot-backend/internal/question/domain"
	"oracle-bot-backend/internal/question/repository"
	userdomain "oracle-bot-backend/internal/user/domain"
	"oracle-bot-backend/pkg/ai"
)

// SubscriptionChecker reports whether a user currently has Oracle access
type SubscriptionChecker interface {
	IsSubscriber(userID string) (bool, error)
}

// FreeQuestionConsumer atomically spends one free question
type FreeQuestionConsumer interface {
	UseFreeQuestion(userID string) (bool, error)
}

// EventRecorder appends product events for metrics
type EventRecorder interface {
	Record(userID, eventType string, meta map[string]interface{}) error
}

// AskOutcome is the result of routing one question
type AskOutcome struct {
	Answer    string
	Source    string
	Remaining int    // free questions left, or Oracle questions left today
	Denied    string // empty when answered
}

// QuestionUsecase routes questions to the Administrator or the Oracle
type QuestionUsecase interface {
	Ask(ctx context.Context, user *userdomain.User, question string) (*AskOutcome, error)
	OracleUsedToday(userID string) (int64, error)
}

type questionUsecase struct {
	questions   repository.QuestionRepository
	subscribers SubscriptionChecker
	freeQuota   FreeQuestionConsumer
	personas    ai.PersonaClient
	tasks       crmrepo.TaskRepository
	events      EventRecorder
	dailyLimit  int64
	clock       func() time.Time
}

// NewQuestionUsecase creates a new QuestionUsecase. A nil clock defaults to
// time.Now; tasks and events may be nil.
func NewQuestionUsecase(
	questions repository.QuestionRepository,
	subscribers SubscriptionChecker,
	freeQuota FreeQuestionConsumer,
	personas ai.PersonaClient,
	tasks crmrepo.TaskRepository,
	events EventRecorder,
	dailyLimit int64,
	clock func() time.Time,
) QuestionUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &questionUsecase{
		questions:   questions,
		subscribers: subscribers,
		freeQuota:   freeQuota,
		personas:    personas,
		tasks:       tasks,
		events:      events,
		dailyLimit:  dailyLimit,
		clock:       clock,
	}
}

func (u *questionUsecase) Ask(ctx context.Context, user *userdomain.User, question string) (*AskOutcome, error) {
	subscriber, err := u.subscribers.IsSubscriber(user.ID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}

	var outcome *AskOutcome
	if subscriber {
		outcome, err = u.askOracle(ctx, user, question)
	} else {
		outcome, err = u.askAdmin(ctx, user, question)
	}
	if err != nil || outcome.Denied != "" {
		return outcome, err
	}

	u.record(user.ID, metricsdomain.EventQuestionAsked, map[string]interface{}{"source": outcome.Source})
	u.planThanks(user.ID)
	return outcome, nil
}

func (u *questionUsecase) askOracle(ctx context.Context, user *userdomain.User, question string) (*AskOutcome, error) {
	dayStart := u.dayStart()
	used, err := u.questions.CountSince(user.ID, domain.SourceSub, dayStart)
	if err != nil {
		return nil, fmt.Errorf("count oracle questions: %w", err)
	}
	if used >= u.dailyLimit {
		return &AskOutcome{Source: domain.SourceSub, Denied: domain.DeniedOracleLimit}, nil
	}

	answer, err := u.personas.OracleReply(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("oracle reply: %w", err)
	}

	if err := u.save(user.ID, domain.SourceSub, question, answer); err != nil {
		return nil, err
	}
	return &AskOutcome{
		Answer:    answer,
		Source:    domain.SourceSub,
		Remaining: int(u.dailyLimit - used - 1),
	}, nil
}

func (u *questionUsecase) askAdmin(ctx context.Context, user *userdomain.User, question string) (*AskOutcome, error) {
	// The conditional decrement is the gate: two concurrent questions
	// cannot both spend the last free slot.
	consumed, err := u.freeQuota.UseFreeQuestion(user.ID)
	if err != nil {
		return nil, fmt.Errorf("consume free question: %w", err)
	}
	if !consumed {
		return &AskOutcome{Source: domain.SourceFree, Denied: domain.DeniedFreeExhausted}, nil
	}

	answer, err := u.personas.AdminReply(ctx, question, ai.UserContext{Age: user.Age, Gender: user.Gender})
	if err != nil {
		return nil, fmt.Errorf("admin reply: %w", err)
	}

	if err := u.save(user.ID, domain.SourceFree, question, answer); err != nil {
		return nil, err
	}
	return &AskOutcome{
		Answer:    answer,
		Source:    domain.SourceFree,
		Remaining: user.FreeQuestionsLeft - 1,
	}, nil
}

func (u *questionUsecase) OracleUsedToday(userID string) (int64, error) {
	return u.questions.CountSince(userID, domain.SourceSub, u.dayStart())
}

func (u *questionUsecase) save(userID, source, question, answer string) error {
	record := &domain.Question{
		UserID:    userID,
		Source:    source,
		Question:  question,
		Answer:    answer,
		CreatedAt: u.clock().UTC(),
	}
	if err := u.questions.Save(record); err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

// planThanks schedules a same-day thank-you contact. The idempotency key
// collapses repeat questions into a single task per day.
func (u *questionUsecase) planThanks(userID string) {
	if u.tasks == nil {
		return
	}
	now := u.clock().UTC()
	task := &crmdomain.CrmTask{
		UserID:         userID,
		Type:           crmdomain.TaskTypeThanks,
		Status:         crmdomain.TaskStatusPending,
		DueAt:          now,
		CreatedAt:      now,
		IdempotencyKey: crmdomain.IdempotencyKey(userID, crmdomain.TaskTypeThanks, now),
	}
	err := u.tasks.Create(task)
	if err != nil && !errors.Is(err, crmdomain.ErrDuplicateTask) {
		log.Printf("[Question] Failed to plan thanks task for user %s: %v", userID, err)
	}
}

func (u *questionUsecase) dayStart() time.Time {
	now := u.clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (u *questionUsecase) record(userID, eventType string, meta map[string]interface{}) {
	if u.events == nil {
		return
	}
	if err := u.events.Record(userID, eventType, meta); err != nil {
		log.Printf("[Question] Failed to record %s event: %v", eventType, err)
	}
}

package usecase

import (
	"errors"
	"fmt"
	"log"
	"time"

	"oracle-bot-backend/internal/dailymsg/domain"
	"oracle-bot-backend/internal/dailymsg/repository"
	metricsdomain "oracle-bot-backend/internal/metrics/domain"
)

// EventRecorder appends product events for metrics
type EventRecorder interface {
	Record(userID, eventType string, meta map[string]interface{}) error
}

// DailyMessageUsecase hands out at most one pool message per user per day
type DailyMessageUsecase interface {
	// Claim picks a random active message for the user, or reports
	// alreadySent when today's message was already delivered.
	Claim(userID string) (message *domain.DailyMessage, alreadySent bool, err error)
	IsSentToday(userID string) (bool, error)
	AddMessage(text string) (*domain.DailyMessage, error)
}

type dailyMessageUsecase struct {
	repo   repository.DailyMessageRepository
	events EventRecorder
	clock  func() time.Time
}

// NewDailyMessageUsecase creates a new DailyMessageUsecase. A nil clock
// defaults to time.Now; events may be nil.
func NewDailyMessageUsecase(
	repo repository.DailyMessageRepository,
	events EventRecorder,
	clock func() time.Time,
) DailyMessageUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &dailyMessageUsecase{repo: repo, events: events, clock: clock}
}

func (u *dailyMessageUsecase) Claim(userID string) (*domain.DailyMessage, bool, error) {
	message, err := u.repo.GetRandomActive()
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMessages) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("pick daily message: %w", err)
	}

	now := u.clock().UTC()
	recorded, err := u.repo.MarkSent(userID, message.ID, now)
	if err != nil {
		return nil, false, fmt.Errorf("record daily message: %w", err)
	}
	if !recorded {
		return nil, true, nil
	}

	if u.events != nil {
		if err := u.events.Record(userID, metricsdomain.EventDailySent,
			map[string]interface{}{"message_id": message.ID}); err != nil {
			log.Printf("[DailyMessage] Failed to record daily_sent event: %v", err)
		}
	}
	return message, false, nil
}

func (u *dailyMessageUsecase) IsSentToday(userID string) (bool, error) {
	return u.repo.IsSentOn(userID, u.clock().UTC())
}

func (u *dailyMessageUsecase) AddMessage(text string) (*domain.DailyMessage, error) {
	message := &domain.DailyMessage{Text: text, IsActive: true}
	if err := u.repo.Add(message); err != nil {
		return nil, fmt.Errorf("add daily message: %w", err)
	}
	return message, nil
}

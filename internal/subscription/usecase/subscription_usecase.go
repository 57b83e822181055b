package usecase

import (
	"fmt"
	"log"
	"time"

	metricsdomain "oracle-bot-backend/internal/metrics/domain"
	"oracle-bot-backend/internal/subscription/domain"
	"oracle-bot-backend/internal/subscription/repository"
	"oracle-bot-backend/pkg/robokassa"
)

// EventRecorder appends product events for metrics
type EventRecorder interface {
	Record(userID, eventType string, meta map[string]interface{}) error
}

// SubscriptionUsecase defines subscription business logic
type SubscriptionUsecase interface {
	// CreateInvoice registers a pending payment and returns it with the
	// signed checkout URL.
	CreateInvoice(userID string, telegramID int64, plan domain.PlanCode) (*domain.Payment, string, error)
	// HandleResult processes a Robokassa result callback. Replays of an
	// already processed invoice succeed without a second activation.
	HandleResult(outSum, invID, signature, rawPayload string) error
	ActiveSubscription(userID string) (*domain.Subscription, error)
	IsSubscriber(userID string) (bool, error)
}

type subscriptionUsecase struct {
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	gateway  *robokassa.Client
	events   EventRecorder
	clock    func() time.Time
}

// NewSubscriptionUsecase creates a new SubscriptionUsecase. A nil clock
// defaults to time.Now; events may be nil.
func NewSubscriptionUsecase(
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	gateway *robokassa.Client,
	events EventRecorder,
	clock func() time.Time,
) SubscriptionUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &subscriptionUsecase{
		subs:     subs,
		payments: payments,
		gateway:  gateway,
		events:   events,
		clock:    clock,
	}
}

func planDescription(plan domain.PlanCode) string {
	switch plan {
	case domain.PlanDay:
		return "Bot Oracle: подписка на день"
	case domain.PlanWeek:
		return "Bot Oracle: подписка на неделю"
	case domain.PlanMonth:
		return "Bot Oracle: подписка на месяц"
	}
	return "Bot Oracle"
}

func (u *subscriptionUsecase) CreateInvoice(userID string, telegramID int64, plan domain.PlanCode) (*domain.Payment, string, error) {
	if !plan.Valid() {
		return nil, "", domain.ErrUnknownPlan
	}

	now := u.clock().UTC()
	payment := &domain.Payment{
		UserID:    userID,
		InvID:     fmt.Sprintf("%d_%s_%d", telegramID, plan, now.Unix()),
		PlanCode:  plan,
		Amount:    plan.Price(),
		Status:    domain.PaymentPending,
		CreatedAt: now,
	}
	if err := u.payments.Create(payment); err != nil {
		return nil, "", fmt.Errorf("create payment: %w", err)
	}

	url := u.gateway.PaymentURL(payment.InvID, payment.Amount, planDescription(plan))
	return payment, url, nil
}

func (u *subscriptionUsecase) HandleResult(outSum, invID, signature, rawPayload string) error {
	if !u.gateway.VerifyResult(outSum, invID, signature) {
		return domain.ErrInvalidSignature
	}

	payment, err := u.payments.FindByInvID(invID)
	if err != nil {
		return err
	}

	now := u.clock().UTC()
	finalized, err := u.payments.MarkSuccess(invID, now, rawPayload)
	if err != nil {
		return fmt.Errorf("mark payment success: %w", err)
	}
	if !finalized {
		log.Printf("[Subscription] Ignoring replayed callback for invoice %s", invID)
		return nil
	}

	u.record(payment.UserID, metricsdomain.EventPaymentSuccess, map[string]interface{}{
		"inv_id": invID, "plan_code": payment.PlanCode, "amount": payment.Amount,
	})

	existing, err := u.subs.GetActive(payment.UserID, now)
	if err != nil {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if existing != nil {
		if err := u.subs.Extend(payment.UserID, payment.PlanCode.Days(), now); err != nil {
			return fmt.Errorf("extend subscription: %w", err)
		}
		log.Printf("[Subscription] Extended subscription for user %s (+%d days)",
			payment.UserID, payment.PlanCode.Days())
		return nil
	}

	sub := &domain.Subscription{
		UserID:         payment.UserID,
		PlanCode:       payment.PlanCode,
		Status:         domain.SubscriptionActive,
		StartsAt:       now,
		EndsAt:         now.AddDate(0, 0, payment.PlanCode.Days()),
		RobokassaInvID: invID,
		Amount:         payment.Amount,
	}
	if err := u.subs.Create(sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	u.record(payment.UserID, metricsdomain.EventSubscriptionStarted, map[string]interface{}{
		"plan_code": payment.PlanCode, "amount": payment.Amount, "days": payment.PlanCode.Days(),
	})
	log.Printf("[Subscription] Created %s subscription for user %s", payment.PlanCode, payment.UserID)
	return nil
}

func (u *subscriptionUsecase) ActiveSubscription(userID string) (*domain.Subscription, error) {
	return u.subs.GetActive(userID, u.clock().UTC())
}

func (u *subscriptionUsecase) IsSubscriber(userID string) (bool, error) {
	sub, err := u.ActiveSubscription(userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

func (u *subscriptionUsecase) record(userID, eventType string, meta map[string]interface{}) {
	if u.events == nil {
		return
	}
	if err := u.events.Record(userID, eventType, meta); err != nil {
		log.Printf("[Subscription] Failed to record %s event: %v", eventType, err)
	}
}

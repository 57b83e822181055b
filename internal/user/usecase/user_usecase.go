package usecase

import (
	"fmt"
	"time"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/user/domain"
	"oracle-bot-backend/internal/user/repository"
)

const candidateBatchLimit = 500

// UserUsecase defines user business logic. It also serves the CRM planner
// and dispatcher as candidate source, block detector and block recorder.
type UserUsecase interface {
	RegisterOrTouch(telegramID int64, username string) (*domain.User, bool, error)
	CompleteOnboarding(userID string, age int, gender string) error
	GetByID(userID string) (*domain.User, error)
	GetByTelegramID(telegramID int64) (*domain.User, error)
	ListUsers(limit, offset int) ([]*domain.User, int64, error)
	UseFreeQuestion(userID string) (bool, error)

	IsBlocked(userID string) (bool, error)
	SetBlocked(userID string) error
	ListEligibleUsers(taskType crmdomain.TaskType) ([]string, error)
}

type userUsecase struct {
	repo                repository.UserRepository
	freeQuestions       int
	inactivityThreshold time.Duration
	clock               func() time.Time
}

// NewUserUsecase creates a new UserUsecase. A nil clock defaults to time.Now.
func NewUserUsecase(
	repo repository.UserRepository,
	freeQuestions int,
	inactivityThreshold time.Duration,
	clock func() time.Time,
) UserUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &userUsecase{
		repo:                repo,
		freeQuestions:       freeQuestions,
		inactivityThreshold: inactivityThreshold,
		clock:               clock,
	}
}

// RegisterOrTouch records an inbound contact. A previously blocked user who
// writes again is unblocked: the transport just proved them reachable.
func (u *userUsecase) RegisterOrTouch(telegramID int64, username string) (*domain.User, bool, error) {
	now := u.clock().UTC()
	user, created, err := u.repo.GetOrCreate(telegramID, username, u.freeQuestions, now)
	if err != nil {
		return nil, false, err
	}
	if created {
		return user, true, nil
	}

	if err := u.repo.TouchLastSeen(user.ID, now); err != nil {
		return nil, false, err
	}
	user.LastSeenAt = now

	if user.IsBlocked {
		if err := u.repo.ClearBlocked(user.ID); err != nil {
			return nil, false, err
		}
		user.IsBlocked = false
		user.BlockedAt = nil
	}
	return user, false, nil
}

func (u *userUsecase) CompleteOnboarding(userID string, age int, gender string) error {
	if age < 1 || age > 120 {
		return fmt.Errorf("age %d out of range", age)
	}
	if gender != domain.GenderMale && gender != domain.GenderFemale {
		return fmt.Errorf("unknown gender %q", gender)
	}
	return u.repo.UpdateProfile(userID, age, gender)
}

func (u *userUsecase) GetByID(userID string) (*domain.User, error) {
	return u.repo.FindByID(userID)
}

func (u *userUsecase) GetByTelegramID(telegramID int64) (*domain.User, error) {
	return u.repo.FindByTelegramID(telegramID)
}

func (u *userUsecase) ListUsers(limit, offset int) ([]*domain.User, int64, error) {
	return u.repo.ListUsers(limit, offset)
}

func (u *userUsecase) UseFreeQuestion(userID string) (bool, error) {
	return u.repo.DecrementFreeQuestions(userID)
}

func (u *userUsecase) IsBlocked(userID string) (bool, error) {
	user, err := u.repo.FindByID(userID)
	if err != nil {
		return false, err
	}
	return user.IsBlocked, nil
}

func (u *userUsecase) SetBlocked(userID string) error {
	return u.repo.SetBlocked(userID, u.clock().UTC())
}

// ListEligibleUsers selects planner candidates: nudges go to users silent
// past the inactivity threshold, reminders to users sitting on unused free
// questions. Thanks tasks are created reactively, never planned.
func (u *userUsecase) ListEligibleUsers(taskType crmdomain.TaskType) ([]string, error) {
	switch taskType {
	case crmdomain.TaskTypeNudge:
		cutoff := u.clock().UTC().Add(-u.inactivityThreshold)
		return u.repo.ListInactiveSince(cutoff, candidateBatchLimit)
	case crmdomain.TaskTypeReminder:
		return u.repo.ListWithUnusedFreeQuestions(u.freeQuestions, candidateBatchLimit)
	default:
		return nil, nil
	}
}

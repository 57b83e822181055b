package usecase

import (
	"fmt"
	"testing"
	"time"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/user/domain"
)

var userNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeUserRepo struct {
	byID   map[string]*domain.User
	byTgID map[int64]*domain.User
	seq    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[string]*domain.User),
		byTgID: make(map[int64]*domain.User),
	}
}

func (r *fakeUserRepo) GetOrCreate(telegramID int64, username string, freeQuestions int, now time.Time) (*domain.User, bool, error) {
	if user, ok := r.byTgID[telegramID]; ok {
		clone := *user
		return &clone, false, nil
	}
	r.seq++
	user := &domain.User{
		ID:                fmt.Sprintf("user-%d", r.seq),
		TelegramID:        telegramID,
		Username:          username,
		FreeQuestionsLeft: freeQuestions,
		FirstSeenAt:       now,
		LastSeenAt:        now,
	}
	r.byID[user.ID] = user
	r.byTgID[telegramID] = user
	clone := *user
	return &clone, true, nil
}

func (r *fakeUserRepo) FindByID(id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByTelegramID(telegramID int64) (*domain.User, error) {
	user, ok := r.byTgID[telegramID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) ListUsers(limit, offset int) ([]*domain.User, int64, error) {
	return nil, int64(len(r.byID)), nil
}

func (r *fakeUserRepo) UpdateProfile(id string, age int, gender string) error {
	r.byID[id].Age = age
	r.byID[id].Gender = gender
	return nil
}

func (r *fakeUserRepo) TouchLastSeen(id string, at time.Time) error {
	r.byID[id].LastSeenAt = at
	return nil
}

func (r *fakeUserRepo) SetBlocked(id string, at time.Time) error {
	r.byID[id].IsBlocked = true
	ts := at
	r.byID[id].BlockedAt = &ts
	return nil
}

func (r *fakeUserRepo) ClearBlocked(id string) error {
	r.byID[id].IsBlocked = false
	r.byID[id].BlockedAt = nil
	return nil
}

func (r *fakeUserRepo) DecrementFreeQuestions(id string) (bool, error) {
	user, ok := r.byID[id]
	if !ok || user.FreeQuestionsLeft <= 0 {
		return false, nil
	}
	user.FreeQuestionsLeft--
	return true, nil
}

func (r *fakeUserRepo) ListInactiveSince(cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	for _, user := range r.byID {
		if !user.IsBlocked && user.LastSeenAt.Before(cutoff) {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) ListWithUnusedFreeQuestions(total int, limit int) ([]string, error) {
	var ids []string
	for _, user := range r.byID {
		if !user.IsBlocked && user.FreeQuestionsLeft > 0 && user.FreeQuestionsLeft < total {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) CountAll() (int64, error)     { return int64(len(r.byID)), nil }
func (r *fakeUserRepo) CountBlocked() (int64, error) { return 0, nil }
func (r *fakeUserRepo) CountNewBetween(_, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestUsecase(repo *fakeUserRepo) UserUsecase {
	return NewUserUsecase(repo, 5, 72*time.Hour, func() time.Time { return userNow })
}

func TestRegisterOrTouchCreatesWithAllowance(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newTestUsecase(repo)

	user, created, err := uc.RegisterOrTouch(42, "alice")
	if err != nil {
		t.Fatalf("RegisterOrTouch: %v", err)
	}
	if !created {
		t.Fatal("expected a new user")
	}
	if user.FreeQuestionsLeft != 5 {
		t.Fatalf("FreeQuestionsLeft = %d, want 5", user.FreeQuestionsLeft)
	}
}

// A blocked user who writes again is reachable by definition.
func TestRegisterOrTouchUnblocksReturningUser(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newTestUsecase(repo)

	user, _, _ := uc.RegisterOrTouch(42, "alice")
	if err := uc.SetBlocked(user.ID); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}

	returned, created, err := uc.RegisterOrTouch(42, "alice")
	if err != nil {
		t.Fatalf("RegisterOrTouch: %v", err)
	}
	if created {
		t.Fatal("returning user reported as created")
	}
	if returned.IsBlocked {
		t.Fatal("user still blocked after inbound contact")
	}
	if blocked, _ := uc.IsBlocked(user.ID); blocked {
		t.Fatal("block flag not cleared in store")
	}
}

func TestUseFreeQuestionNeverOverdraws(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newTestUsecase(repo)
	user, _, _ := uc.RegisterOrTouch(42, "alice")

	for i := 0; i < 5; i++ {
		ok, err := uc.UseFreeQuestion(user.ID)
		if err != nil || !ok {
			t.Fatalf("question %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := uc.UseFreeQuestion(user.ID)
	if err != nil {
		t.Fatalf("UseFreeQuestion: %v", err)
	}
	if ok {
		t.Fatal("sixth free question granted")
	}
}

func TestCompleteOnboardingValidates(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newTestUsecase(repo)
	user, _, _ := uc.RegisterOrTouch(42, "alice")

	if err := uc.CompleteOnboarding(user.ID, 0, domain.GenderMale); err == nil {
		t.Error("accepted zero age")
	}
	if err := uc.CompleteOnboarding(user.ID, 30, "robot"); err == nil {
		t.Error("accepted unknown gender")
	}
	if err := uc.CompleteOnboarding(user.ID, 30, domain.GenderFemale); err != nil {
		t.Errorf("rejected valid profile: %v", err)
	}
	stored, _ := uc.GetByID(user.ID)
	if !stored.Onboarded() {
		t.Error("profile not persisted")
	}
}

func TestListEligibleUsersRoutesByTaskType(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newTestUsecase(repo)

	idle, _, _ := uc.RegisterOrTouch(1, "idle")
	repo.byID[idle.ID].LastSeenAt = userNow.Add(-100 * time.Hour)
	active, _, _ := uc.RegisterOrTouch(2, "active")
	repo.byID[active.ID].FreeQuestionsLeft = 2

	nudges, err := uc.ListEligibleUsers(crmdomain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("nudge candidates: %v", err)
	}
	if len(nudges) != 1 || nudges[0] != idle.ID {
		t.Fatalf("nudge candidates = %v, want [%s]", nudges, idle.ID)
	}

	reminders, err := uc.ListEligibleUsers(crmdomain.TaskTypeReminder)
	if err != nil {
		t.Fatalf("reminder candidates: %v", err)
	}
	if len(reminders) != 1 || reminders[0] != active.ID {
		t.Fatalf("reminder candidates = %v, want [%s]", reminders, active.ID)
	}

	thanks, err := uc.ListEligibleUsers(crmdomain.TaskTypeThanks)
	if err != nil {
		t.Fatalf("thanks candidates: %v", err)
	}
	if len(thanks) != 0 {
		t.Fatalf("thanks candidates = %v, want none", thanks)
	}
}

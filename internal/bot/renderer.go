package bot

import (
	"fmt"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	userdomain "oracle-bot-backend/internal/user/domain"
	userusecase "oracle-bot-backend/internal/user/usecase"
)

// CrmRenderer turns a CRM task into the Administrator's outbound text.
// Tone follows the recipient's onboarding profile, like the chat persona.
type CrmRenderer struct {
	users userusecase.UserUsecase
}

// NewCrmRenderer creates a new CrmRenderer
func NewCrmRenderer(users userusecase.UserUsecase) *CrmRenderer {
	return &CrmRenderer{users: users}
}

// Render implements usecase.MessageRenderer
func (r *CrmRenderer) Render(task *crmdomain.CrmTask) (string, error) {
	user, err := r.users.GetByID(task.UserID)
	if err != nil {
		return "", fmt.Errorf("resolve user %s: %w", task.UserID, err)
	}

	switch task.Type {
	case crmdomain.TaskTypeNudge:
		return nudgeText(user), nil
	case crmdomain.TaskTypeReminder:
		return reminderText(user), nil
	case crmdomain.TaskTypeThanks:
		return thanksText(user), nil
	}
	return "", fmt.Errorf("no template for task type %q", task.Type)
}

func nudgeText(user *userdomain.User) string {
	if user.Age > 0 && user.Age <= 25 {
		return "эй, ты куда пропал? 🥺 я тут скучаю! у оракула как раз есть что тебе сказать, заглядывай"
	}
	return "Давно тебя не было! Я сохранила для тебя сообщение дня — и Оракул готов ответить на твои вопросы. Заглянешь? 🌟"
}

func reminderText(user *userdomain.User) string {
	left := user.FreeQuestionsLeft
	return fmt.Sprintf(
		"Напоминаю: у тебя ещё %s! Не дай им пропасть — спроси меня о чём угодно 💬",
		questionsRu(left))
}

func thanksText(user *userdomain.User) string {
	if user.Age > 0 && user.Age <= 25 {
		return "спасибо за твой вопрос! 💫 мне нравится с тобой болтать. возвращайся завтра за сообщением дня!"
	}
	return "Спасибо за твой вопрос! Мне было приятно помочь. Завтра тебя ждёт новое сообщение дня 🌟"
}

// questionsRu renders "N бесплатных вопросов" with Russian plural forms
func questionsRu(n int) string {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return fmt.Sprintf("%d бесплатный вопрос", n)
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return fmt.Sprintf("%d бесплатных вопроса", n)
	default:
		return fmt.Sprintf("%d бесплатных вопросов", n)
	}
}

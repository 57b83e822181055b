package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	dailydomain "oracle-bot-backend/internal/dailymsg/domain"
	dailyusecase "oracle-bot-backend/internal/dailymsg/usecase"
	metricsdomain "oracle-bot-backend/internal/metrics/domain"
	metricsusecase "oracle-bot-backend/internal/metrics/usecase"
	questiondomain "oracle-bot-backend/internal/question/domain"
	questionusecase "oracle-bot-backend/internal/question/usecase"
	subdomain "oracle-bot-backend/internal/subscription/domain"
	subusecase "oracle-bot-backend/internal/subscription/usecase"
	userdomain "oracle-bot-backend/internal/user/domain"
	userusecase "oracle-bot-backend/internal/user/usecase"
	"oracle-bot-backend/pkg/session"
	"oracle-bot-backend/pkg/telegram"
)

// Onboarding FSM states. The age answer is carried inside the gender state
// so the profile is written once, at the end of the questionnaire.
const (
	stateWaitingAge          = "onboarding:age"
	stateWaitingGenderPrefix = "onboarding:gender:"
)

// Handler routes Telegram webhook updates
type Handler struct {
	client        *telegram.Client
	sessions      *session.Store
	users         userusecase.UserUsecase
	questions     questionusecase.QuestionUsecase
	subscriptions subusecase.SubscriptionUsecase
	daily         dailyusecase.DailyMessageUsecase
	metrics       metricsusecase.MetricsUsecase
	adminChatIDs  map[int64]bool
}

// NewHandler creates a new webhook Handler
func NewHandler(
	client *telegram.Client,
	sessions *session.Store,
	users userusecase.UserUsecase,
	questions questionusecase.QuestionUsecase,
	subscriptions subusecase.SubscriptionUsecase,
	daily dailyusecase.DailyMessageUsecase,
	metrics metricsusecase.MetricsUsecase,
	adminChatIDs []int64,
) *Handler {
	admins := make(map[int64]bool, len(adminChatIDs))
	for _, id := range adminChatIDs {
		admins[id] = true
	}
	return &Handler{
		client:        client,
		sessions:      sessions,
		users:         users,
		questions:     questions,
		subscriptions: subscriptions,
		daily:         daily,
		metrics:       metrics,
		adminChatIDs:  admins,
	}
}

// Webhook receives Bot API updates
// POST /telegram/webhook
func (h *Handler) Webhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	// Telegram retries on non-200, so handler errors are logged, not
	// returned: a poison update must not wedge the webhook queue.
	if err := h.handleUpdate(c.Request.Context(), &update); err != nil {
		log.Printf("[Bot] Error handling update %d: %v", update.UpdateID, err)
	}
	c.Status(http.StatusOK)
}

func (h *Handler) handleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	user, created, err := h.users.RegisterOrTouch(message.From.ID, message.From.UserName)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	if text == "/start" {
		h.recordEvent(user.ID, metricsdomain.EventStart, map[string]interface{}{"new": created})
		return h.startOnboarding(ctx, chatID)
	}

	state, err := h.sessions.State(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	if state == stateWaitingAge {
		return h.handleAgeAnswer(ctx, chatID, text)
	}
	if strings.HasPrefix(state, stateWaitingGenderPrefix) {
		return h.handleGenderAnswer(ctx, chatID, user, state, text)
	}

	if h.adminChatIDs[message.From.ID] {
		switch {
		case text == "/admin_today":
			return h.adminToday(chatID)
		case strings.HasPrefix(text, "/admin_range"):
			return h.adminRange(chatID, text)
		}
	}

	if text == "/help" {
		return h.client.SendText(chatID, helpText)
	}

	if !user.Onboarded() {
		return h.client.SendText(chatID, "Сначала давай познакомимся! Напиши /start")
	}

	switch text {
	case MenuDaily:
		return h.dailyMessage(chatID, user)
	case MenuSubscription:
		return h.subscriptionMenu(chatID, user)
	case MenuStatus:
		return h.status(chatID, user)
	}

	return h.question(ctx, chatID, user, text)
}

func (h *Handler) startOnboarding(ctx context.Context, chatID int64) error {
	if err := h.sessions.SetState(ctx, chatID, stateWaitingAge); err != nil {
		return fmt.Errorf("set session state: %w", err)
	}
	return h.client.SendText(chatID,
		"Привет! Я Администратор Bot Oracle 💫\n\nДавай познакомимся. Сколько тебе лет?")
}

func (h *Handler) handleAgeAnswer(ctx context.Context, chatID int64, text string) error {
	age, err := strconv.Atoi(text)
	if err != nil || age < 1 || age > 120 {
		return h.client.SendText(chatID, "Напиши возраст числом, например: 25")
	}

	next := stateWaitingGenderPrefix + strconv.Itoa(age)
	if err := h.sessions.SetState(ctx, chatID, next); err != nil {
		return fmt.Errorf("set session state: %w", err)
	}
	return h.client.SendWithKeyboard(chatID, "Отлично! А кто ты?", genderKeyboard())
}

func (h *Handler) handleGenderAnswer(ctx context.Context, chatID int64, user *userdomain.User, state, text string) error {
	var gender string
	switch text {
	case GenderButtonMale:
		gender = userdomain.GenderMale
	case GenderButtonFemale:
		gender = userdomain.GenderFemale
	default:
		return h.client.SendWithKeyboard(chatID, "Выбери вариант на клавиатуре 🙂", genderKeyboard())
	}

	age, err := strconv.Atoi(strings.TrimPrefix(state, stateWaitingGenderPrefix))
	if err != nil {
		// Corrupt state: restart the questionnaire.
		return h.startOnboarding(ctx, chatID)
	}

	if err := h.users.CompleteOnboarding(user.ID, age, gender); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	if err := h.sessions.Clear(ctx, chatID); err != nil {
		log.Printf("[Bot] Failed to clear session for chat %d: %v", chatID, err)
	}

	return h.client.SendWithKeyboard(chatID,
		"Приятно познакомиться! 🌟\n\nТеперь тебе доступны сообщение дня и 5 бесплатных вопросов. А для глубоких ответов есть Оракул — по подписке.",
		mainMenuKeyboard())
}

func (h *Handler) dailyMessage(chatID int64, user *userdomain.User) error {
	message, already, err := h.daily.Claim(user.ID)
	if errors.Is(err, dailydomain.ErrNoActiveMessages) {
		return h.client.SendText(chatID, "Сегодня без новостей, но я слежу 😌")
	}
	if err != nil {
		return err
	}
	if already {
		return h.client.SendText(chatID, "Ты уже получал сообщение дня! Приходи завтра 😉")
	}
	return h.client.SendText(chatID, "Сегодняшнее сообщение: "+message.Text)
}

func (h *Handler) subscriptionMenu(chatID int64, user *userdomain.User) error {
	sub, err := h.subscriptions.ActiveSubscription(user.ID)
	if err != nil {
		return err
	}
	if sub != nil {
		return h.client.SendText(chatID, fmt.Sprintf(
			"У тебя уже есть подписка до %s ✅\nМожешь задавать вопросы Оракулу (до 10 в день)",
			sub.EndsAt.Format("02.01.2006")))
	}
	return h.client.SendWithKeyboard(chatID,
		"Оракул ответит на твои самые важные вопросы. Выбирай тариф:",
		subscriptionKeyboard())
}

func (h *Handler) status(chatID int64, user *userdomain.User) error {
	var b strings.Builder
	b.WriteString("📊 Твой статус:\n\n")

	sub, err := h.subscriptions.ActiveSubscription(user.ID)
	if err != nil {
		return err
	}
	if sub != nil {
		used, err := h.questions.OracleUsedToday(user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "✅ Подписка активна до %s\n", sub.EndsAt.Format("02.01.2006"))
		fmt.Fprintf(&b, "🔮 Вопросов оракулу сегодня: %d/10\n", used)
	} else {
		fmt.Fprintf(&b, "🎁 Бесплатных ответов: %d/5\n", user.FreeQuestionsLeft)
		b.WriteString("💎 Подписка: не активна\n")
	}

	sentToday, err := h.daily.IsSentToday(user.ID)
	if err != nil {
		return err
	}
	if sentToday {
		b.WriteString("📨 Сообщение дня: ✅ получено\n")
	} else {
		b.WriteString("📨 Сообщение дня: ⏳ доступно\n")
	}
	return h.client.SendText(chatID, b.String())
}

func (h *Handler) question(ctx context.Context, chatID int64, user *userdomain.User, text string) error {
	outcome, err := h.questions.Ask(ctx, user, text)
	if err != nil {
		return err
	}

	switch outcome.Denied {
	case questiondomain.DeniedFreeExhausted:
		return h.client.SendWithKeyboard(chatID,
			"Бесплатные вопросы закончились 🙈 Но Оракул знает больше меня!\n\n💎 Получи подписку:",
			subscriptionKeyboard())
	case questiondomain.DeniedOracleLimit:
		return h.client.SendText(chatID,
			"На сегодня лимит вопросов Оракулу исчерпан. Завтра будет новый день 🌅")
	}

	if outcome.Source == questiondomain.SourceSub {
		reply := "🔮 *Оракул отвечает:*\n\n" + outcome.Answer
		if outcome.Remaining > 0 {
			reply += fmt.Sprintf("\n\n_Осталось %d вопросов на сегодня._", outcome.Remaining)
		} else {
			reply += "\n\n_Лимит вопросов на сегодня исчерпан. Завтра будет новый день._"
		}
		return h.client.SendMarkdown(chatID, reply)
	}

	reply := outcome.Answer
	if outcome.Remaining > 0 {
		reply += fmt.Sprintf("\n\nОсталось %s 🎁", questionsRu(outcome.Remaining))
	} else {
		reply += "\n\nЭто был последний бесплатный вопрос! Дальше — только Оракул 💎"
	}
	return h.client.SendText(chatID, reply)
}

func (h *Handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	data := callback.Data
	if !strings.HasPrefix(data, "BUY_") {
		return h.client.AnswerCallback(callback.ID, "")
	}

	user, err := h.users.GetByTelegramID(callback.From.ID)
	if err != nil {
		return h.client.AnswerCallback(callback.ID, "Ошибка: пользователь не найден")
	}

	plan := subdomain.PlanCode(strings.TrimPrefix(data, "BUY_"))
	_, url, err := h.subscriptions.CreateInvoice(user.ID, user.TelegramID, plan)
	if err != nil {
		if errors.Is(err, subdomain.ErrUnknownPlan) {
			return h.client.AnswerCallback(callback.ID, "Неизвестный тариф")
		}
		return fmt.Errorf("create invoice: %w", err)
	}

	if err := h.client.AnswerCallback(callback.ID, ""); err != nil {
		log.Printf("[Bot] Failed to answer callback: %v", err)
	}
	return h.client.SendText(callback.Message.Chat.ID,
		"Отличный выбор! Переходи к оплате:\n"+url)
}

func (h *Handler) adminToday(chatID int64) error {
	today := time.Now().UTC()
	metrics, err := h.metrics.RollupDay(today)
	if err != nil {
		return h.client.SendText(chatID, "❌ Ошибка при получении статистики")
	}

	text := fmt.Sprintf(`📊 *Статистика за %s*

👥 DAU: %d
🆕 Новые пользователи: %d
🚫 Заблокировано всего: %d
📨 Получили сообщение дня: %d
💎 Активные подписчики: %d
🆕💎 Новые подписчики: %d
❓ Задано вопросов: %d
💰 Выручка: %.0f ₽
📤 CRM отправлено: %d`,
		today.Format("02.01.2006"), metrics.DAU, metrics.NewUsers,
		metrics.BlockedTotal, metrics.DailySent, metrics.PaidActive,
		metrics.PaidNew, metrics.QuestionsAsked, metrics.Revenue, metrics.ProactiveSent)
	return h.client.SendMarkdown(chatID, text)
}

func (h *Handler) adminRange(chatID int64, text string) error {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return h.client.SendText(chatID, "❌ Формат: /admin_range YYYY-MM-DD YYYY-MM-DD")
	}
	from, err1 := time.Parse("2006-01-02", parts[1])
	to, err2 := time.Parse("2006-01-02", parts[2])
	if err1 != nil || err2 != nil || to.Before(from) {
		return h.client.SendText(chatID, "❌ Формат: /admin_range YYYY-MM-DD YYYY-MM-DD")
	}

	rows, err := h.metrics.Range(from, to)
	if err != nil {
		return h.client.SendText(chatID, "❌ Ошибка при получении статистики")
	}
	if len(rows) == 0 {
		return h.client.SendText(chatID, "За этот период данных нет")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Статистика %s — %s*\n\n", parts[1], parts[2])
	for _, row := range rows {
		fmt.Fprintf(&b, "%s: DAU %d, вопросов %d, выручка %.0f ₽\n",
			row.Date.Format("02.01"), row.DAU, row.QuestionsAsked, row.Revenue)
	}
	return h.client.SendMarkdown(chatID, b.String())
}

func (h *Handler) recordEvent(userID, eventType string, meta map[string]interface{}) {
	if err := h.metrics.Record(userID, eventType, meta); err != nil {
		log.Printf("[Bot] Failed to record %s event: %v", eventType, err)
	}
}

const helpText = `🤖 Bot Oracle — Справка

Доступные команды:
• 📨 Сообщение дня — получить ежедневное сообщение
• 💎 Подписка — управление подпиской
• ℹ️ Мой статус — показать текущий статус
• /help — эта справка

Просто напиши свой вопрос, и я отвечу! А для глубоких ответов есть Оракул — по подписке.`

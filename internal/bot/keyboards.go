package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Menu button labels. The router matches on these exact strings.
const (
	MenuDaily        = "📨 Сообщение дня"
	MenuSubscription = "💎 Подписка"
	MenuStatus       = "ℹ️ Мой статус"
)

// Gender answer labels used during onboarding
const (
	GenderButtonMale   = "Мужчина"
	GenderButtonFemale = "Женщина"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuDaily),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuSubscription),
			tgbotapi.NewKeyboardButton(MenuStatus),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func genderKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(GenderButtonMale),
			tgbotapi.NewKeyboardButton(GenderButtonFemale),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func subscriptionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1️⃣ День (99₽)", "BUY_DAY"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("2️⃣ Неделя (299₽)", "BUY_WEEK"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("3️⃣ Месяц (899₽)", "BUY_MONTH"),
		),
	)
}

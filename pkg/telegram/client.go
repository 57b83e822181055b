package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Bot API for outbound messages and webhook management
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient creates a new Telegram client
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Printf("[Telegram] Authorized as @%s", api.Self.UserName)
	return &Client{api: api}, nil
}

// API exposes the underlying Bot API for update parsing
func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

// SetWebhook points the Bot API at our webhook endpoint
func (c *Client) SetWebhook(url string) error {
	webhook, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := c.api.Request(webhook); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	log.Printf("[Telegram] Webhook set to %s", url)
	return nil
}

// SendText sends a plain message to a chat. It returns ErrBotBlocked when
// the recipient has blocked the bot.
func (c *Client) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	return c.send(msg)
}

// SendWithKeyboard sends a message with a reply or inline keyboard
func (c *Client) SendWithKeyboard(chatID int64, text string, keyboard interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return c.send(msg)
}

// SendMarkdown sends a Markdown-formatted message
func (c *Client) SendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return c.send(msg)
}

// AnswerCallback acknowledges an inline button press
func (c *Client) AnswerCallback(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := c.api.Request(callback)
	return err
}

func (c *Client) send(msg tgbotapi.MessageConfig) error {
	_, err := c.api.Send(msg)
	if err == nil {
		return nil
	}
	if isBlockedErr(err) {
		return fmt.Errorf("chat %d: %w", msg.ChatID, ErrBotBlocked)
	}
	return err
}

// isBlockedErr matches the Bot API responses for unreachable recipients:
// 403 "bot was blocked by the user" and "user is deactivated".
func isBlockedErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bot was blocked by the user") ||
		strings.Contains(msg, "user is deactivated") ||
		strings.Contains(msg, "chat not found")
}

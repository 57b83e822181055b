package bot

import (
	"errors"
	"fmt"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	userusecase "oracle-bot-backend/internal/user/usecase"
	"oracle-bot-backend/pkg/telegram"
)

// CrmSender delivers CRM messages over Telegram. It satisfies the
// dispatcher's MessageSender contract: a blocked recipient surfaces as
// crmdomain.ErrRecipientBlocked, everything else is a transient error.
type CrmSender struct {
	client *telegram.Client
	users  userusecase.UserUsecase
}

// NewCrmSender creates a new CrmSender
func NewCrmSender(client *telegram.Client, users userusecase.UserUsecase) *CrmSender {
	return &CrmSender{client: client, users: users}
}

// Send implements usecase.MessageSender
func (s *CrmSender) Send(userID string, content string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", userID, err)
	}

	err = s.client.SendText(user.TelegramID, content)
	if errors.Is(err, telegram.ErrBotBlocked) {
		return crmdomain.ErrRecipientBlocked
	}
	return err
}
